package httpapp

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/http/dto"
	"github.com/cesargomez89/showmover/internal/jellyfin"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/storage"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		h.Logger.Warn("Health check database ping failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "degraded", "db": "error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "ok"})
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Settings.Snapshot())
}

func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var next settings.Settings
	if err := decodeJSON(w, r, &next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.Settings.Update(next)
	if err != nil {
		var validation *settings.ValidationError
		if errors.As(err, &validation) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "settings validation failed",
				"details": validation.Problems,
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("Settings updated", "hot_root", updated.HotRoot, "cold_root", updated.ColdRoot)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) ListPaths(w http.ResponseWriter, r *http.Request) {
	root := strings.TrimSpace(r.URL.Query().Get("root"))
	if err := storage.ValidateRoot(root); err != nil {
		switch {
		case errors.Is(err, storage.ErrRootRequired), errors.Is(err, storage.ErrNotDirectory):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrRootNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.fail(w, r, err)
		}
		return
	}

	dirs, err := storage.ListSubdirs(root)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: list %s: %v", domain.ErrFilesystem, root, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"root":        filepath.Clean(root),
		"directories": dto.NewDirectoryResponses(dirs),
	})
}

func (h *Handler) ListPools(w http.ResponseWriter, r *http.Request) {
	pools := app.CollectPools(h.Settings.Snapshot())
	writeJSON(w, http.StatusOK, dto.NewPoolResponses(pools))
}

func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if err := h.Scans.TriggerScan(h.BaseCtx); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.Scans.Status())
}

func (h *Handler) ScanStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Scans.Status())
}

func (h *Handler) ListShows(w http.ResponseWriter, r *http.Request) {
	query, errs := dto.ParseShowsQuery(r.URL.Query())
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	page, err := h.Shows.ListShows(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.NewShowResponses(page.Items), page.Total, page.Limit, page.Offset))
}

func (h *Handler) ShowThumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.Shows.Thumbnail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if storage.IsNotExist(err) {
			h.fail(w, r, domain.ErrThumbnailNotFound)
			return
		}
		h.fail(w, r, fmt.Errorf("%w: open thumbnail: %v", domain.ErrFilesystem, err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: stat thumbnail: %v", domain.ErrFilesystem, err))
		return
	}

	w.Header().Set("Content-Type", imageContentType(path))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", constants.ThumbnailMaxAge))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func imageContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func (h *Handler) MoveShow(w http.ResponseWriter, r *http.Request) {
	var req dto.MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	job, err := h.Jobs.CreateMoveJob(r.Context(), chi.URLParam(r, "id"), req.Target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewJobResponse(job))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, errs := dto.ParseJobsQuery(r.URL.Query())
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	if page.Active {
		active, err := h.Jobs.ListActiveJobs(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		start := min(page.Offset, len(active))
		end := min(start+page.Limit, len(active))
		writeJSON(w, http.StatusOK, dto.NewPage(dto.NewJobResponses(active[start:end]), len(active), page.Limit, page.Offset))
		return
	}

	jobs, err := h.Jobs.ListJobs(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.Jobs.GetJobStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPage(dto.NewJobResponses(jobs), stats.Total, page.Limit, page.Offset))
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewJobResponse(job))
}

func (h *Handler) JobAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Jobs.GetJobStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAnalyticsResponse(stats))
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Preferences.Get(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme *string `json:"theme"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Theme == nil {
		h.GetPreferences(w, r)
		return
	}

	prefs, err := h.Preferences.SetTheme(r.Context(), *req.Theme)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) ResetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Preferences.Reset(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) JellyfinRescan(w http.ResponseWriter, r *http.Request) {
	client, err := h.Jellyfin.Client()
	if err != nil {
		h.jellyfinError(w, r, err)
		return
	}
	if err := client.Rescan(r.Context()); err != nil {
		h.jellyfinError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) JellyfinStatus(w http.ResponseWriter, r *http.Request) {
	client, err := h.Jellyfin.Client()
	if err != nil {
		h.jellyfinError(w, r, err)
		return
	}

	st := client.CheckStatus(r.Context())
	switch {
	case !st.ServerReachable:
		writeError(w, http.StatusBadGateway, st.Message)
	case !st.AuthOK && st.LibraryStatusCode != nil &&
		(*st.LibraryStatusCode == http.StatusUnauthorized || *st.LibraryStatusCode == http.StatusForbidden):
		writeError(w, http.StatusUnauthorized, st.Message)
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func (h *Handler) jellyfinError(w http.ResponseWriter, r *http.Request, err error) {
	var statusErr *jellyfin.StatusError
	switch {
	case errors.Is(err, jellyfin.ErrNotConfigured):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &statusErr) && statusErr.Unauthorized():
		writeError(w, http.StatusUnauthorized, "Jellyfin API key invalid")
	default:
		h.Logger.Error("Jellyfin request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
