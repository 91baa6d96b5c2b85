package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/http/dto"
	"github.com/cesargomez89/showmover/internal/jellyfin"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/store"
)

type Handler struct {
	DB          *store.DB
	Shows       *app.ShowService
	Jobs        *app.JobService
	Scans       *app.ScanService
	Preferences *app.PreferencesService
	Settings    *settings.Store
	Jellyfin    *jellyfin.Notifier
	Logger      *logger.Logger

	// BaseCtx outlives individual requests. Background scans run on it.
	BaseCtx context.Context
}

func NewHandler(db *store.DB, cfg *settings.Store, jobs *app.JobService, scans *app.ScanService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		DB:          db,
		Shows:       app.NewShowService(db, cfg),
		Jobs:        jobs,
		Scans:       scans,
		Preferences: app.NewPreferencesService(store.NewSettingsRepo(db)),
		Settings:    cfg,
		Jellyfin:    jellyfin.NewNotifier(cfg, nil, log),
		Logger:      log.WithComponent("http"),
		BaseCtx:     context.Background(),
	}
}

// Routes returns a router with the API mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Put("/config", h.UpdateConfig)
		r.Get("/paths", h.ListPaths)
		r.Get("/pools", h.ListPools)

		r.Post("/scan", h.TriggerScan)
		r.Get("/scan/status", h.ScanStatus)

		r.Get("/shows", h.ListShows)
		r.Get("/shows/{id}/thumbnail", h.ShowThumbnail)
		r.Post("/shows/{id}/move", h.MoveShow)

		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/analytics", h.JobAnalytics)
		r.Get("/jobs/{id}", h.GetJob)

		r.Get("/me/settings", h.GetPreferences)
		r.Patch("/me/settings", h.UpdatePreferences)
		r.Delete("/me/settings", h.ResetPreferences)

		r.Post("/jellyfin/rescan", h.JellyfinRescan)
		r.Get("/jellyfin/status", h.JellyfinStatus)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   dto.ToResponse(errs),
		"details": dto.ToMap(errs),
	})
}

// fail writes err with the status its kind maps to. Unexpected errors are
// logged and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var validation *settings.ValidationError
	switch {
	case errors.Is(err, domain.ErrShowNotFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrThumbnailNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTarget),
		errors.Is(err, domain.ErrAlreadyInLocation),
		errors.Is(err, domain.ErrMissingRoot),
		errors.Is(err, domain.ErrPathMismatch),
		errors.Is(err, domain.ErrSettingsIncomplete),
		errors.Is(err, app.ErrInvalidTheme),
		errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrScanInProgress),
		errors.Is(err, domain.ErrJobsActive),
		errors.Is(err, domain.ErrScanRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
