package httpapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/scanner"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/store"
)

type testEnv struct {
	h        *Handler
	db       *store.DB
	router   http.Handler
	hotRoot  string
	coldRoot string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	hot := filepath.Join(dir, "hot")
	cold := filepath.Join(dir, "cold")
	for _, d := range []string{hot, cold} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	db, err := store.NewSQLiteDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg, _, err := settings.Open(filepath.Join(dir, "settings.toml"), settings.Settings{HotRoot: hot, ColdRoot: cold})
	if err != nil {
		t.Fatalf("Failed to open settings: %v", err)
	}

	log := logger.Discard()
	jobs := app.NewJobService(db, cfg, log)
	scans := app.NewScanService(scanner.New(db, log), jobs, cfg, log)
	jobs.Scans = scans
	t.Cleanup(scans.Wait)

	h := NewHandler(db, cfg, jobs, scans, log)
	return &testEnv{h: h, db: db, router: h.Routes(), hotRoot: hot, coldRoot: cold}
}

func (e *testEnv) addShow(t *testing.T, root, name string) *domain.Show {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir show: %v", err)
	}
	show := &domain.Show{
		Title:     name,
		Path:      path,
		Location:  domain.LocationOf(path, e.hotRoot, e.coldRoot),
		Source:    domain.ShowSourceScan,
		SizeBytes: 1000,
	}
	if _, err := e.db.UpsertShow(context.Background(), show); err != nil {
		t.Fatalf("UpsertShow failed: %v", err)
	}
	return show
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "ok" || body["db"] != "ok" {
		t.Errorf("Unexpected health body %v", body)
	}
}

func TestListShows(t *testing.T) {
	e := newTestEnv(t)
	e.addShow(t, e.hotRoot, "Alpha")
	e.addShow(t, e.coldRoot, "Beta")

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
	}{
		{"all", "", http.StatusOK, 2},
		{"hot only", "?location=hot", http.StatusOK, 1},
		{"search", "?search=bet", http.StatusOK, 1},
		{"bad location", "?location=warm", http.StatusBadRequest, 0},
		{"bad limit", "?limit=-5", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/shows"+tt.query, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var page struct {
				Items []map[string]any `json:"items"`
				Total int              `json:"total"`
			}
			decode(t, rec, &page)
			if page.Total != tt.wantTotal || len(page.Items) != tt.wantTotal {
				t.Errorf("Expected %d shows, got total %d items %d", tt.wantTotal, page.Total, len(page.Items))
			}
		})
	}
}

func TestMoveShow(t *testing.T) {
	e := newTestEnv(t)
	show := e.addShow(t, e.hotRoot, "Alpha")

	rec := e.do(t, http.MethodPost, "/api/shows/"+show.ID+"/move", map[string]string{"target": "cold"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var job map[string]any
	decode(t, rec, &job)
	if job["destination_path"] != filepath.Join(e.coldRoot, "Alpha") {
		t.Errorf("Unexpected destination %v", job["destination_path"])
	}
	if job["status"] != string(domain.JobStatusQueued) {
		t.Errorf("Expected queued job, got %v", job["status"])
	}

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%v", job["id"]), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected job lookup to succeed, got %d", rec.Code)
	}
}

func TestMoveShow_Rejections(t *testing.T) {
	e := newTestEnv(t)
	show := e.addShow(t, e.hotRoot, "Alpha")

	tests := []struct {
		name     string
		showID   string
		body     any
		wantCode int
	}{
		{"already there", show.ID, map[string]string{"target": "hot"}, http.StatusBadRequest},
		{"unknown target", show.ID, map[string]string{"target": "warm"}, http.StatusBadRequest},
		{"missing target", show.ID, map[string]string{}, http.StatusBadRequest},
		{"unknown field", show.ID, map[string]string{"tier": "cold"}, http.StatusBadRequest},
		{"unknown show", "missing", map[string]string{"target": "cold"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/shows/"+tt.showID+"/move", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	stats, err := e.db.GetJobStats(context.Background())
	if err != nil {
		t.Fatalf("GetJobStats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Expected no jobs after rejected moves, got %d", stats.Total)
	}
}

func TestJobs(t *testing.T) {
	e := newTestEnv(t)
	for _, name := range []string{"A", "B", "C"} {
		show := e.addShow(t, e.hotRoot, name)
		if rec := e.do(t, http.MethodPost, "/api/shows/"+show.ID+"/move", map[string]string{"target": "cold"}); rec.Code != http.StatusCreated {
			t.Fatalf("move %s: %d", name, rec.Code)
		}
	}

	rec := e.do(t, http.MethodGet, "/api/jobs?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var page struct {
		Items   []map[string]any `json:"items"`
		Total   int              `json:"total"`
		HasMore bool             `json:"has_more"`
	}
	decode(t, rec, &page)
	if len(page.Items) != 2 || page.Total != 3 || !page.HasMore {
		t.Errorf("Unexpected page: %d items, total %d, has_more %v", len(page.Items), page.Total, page.HasMore)
	}

	rec = e.do(t, http.MethodGet, "/api/jobs?status=active&limit=2&offset=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for active jobs, got %d", rec.Code)
	}
	decode(t, rec, &page)
	if len(page.Items) != 1 || page.Total != 3 || page.HasMore {
		t.Fatalf("Unexpected active page: %d items, total %d, has_more %v", len(page.Items), page.Total, page.HasMore)
	}
	if page.Items[0]["source_path"] != filepath.Join(e.hotRoot, "C") {
		t.Errorf("Expected newest job last in the active list, got %v", page.Items[0]["source_path"])
	}

	if rec := e.do(t, http.MethodGet, "/api/jobs?status=done", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status filter, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/api/jobs/analytics", nil)
	var stats map[string]any
	decode(t, rec, &stats)
	if stats["queued"] != float64(3) {
		t.Errorf("Expected 3 queued jobs, got %v", stats["queued"])
	}

	if rec := e.do(t, http.MethodGet, "/api/jobs/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown job, got %d", rec.Code)
	}
}

func TestShowThumbnail(t *testing.T) {
	e := newTestEnv(t)

	withThumb := func(name, thumb string) string {
		show := e.addShow(t, e.hotRoot, name)
		show.ThumbnailPath = &thumb
		if _, err := e.db.UpsertShow(context.Background(), show); err != nil {
			t.Fatalf("UpsertShow failed: %v", err)
		}
		return show.ID
	}

	poster := filepath.Join(e.hotRoot, "Alpha", "poster.png")
	okID := withThumb("Alpha", poster)
	if err := os.WriteFile(poster, []byte("png"), 0o644); err != nil {
		t.Fatalf("write poster: %v", err)
	}

	outside := filepath.Join(t.TempDir(), "secret.jpg")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write outside: %v", err)
	}
	deniedID := withThumb("Beta", outside)
	goneID := withThumb("Gamma", filepath.Join(e.hotRoot, "Gamma", "folder.jpg"))
	noneID := e.addShow(t, e.hotRoot, "Delta").ID

	rec := e.do(t, http.MethodGet, "/api/shows/"+okID+"/thumbnail", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Body.String() != "png" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}

	tests := []struct {
		name     string
		id       string
		wantCode int
	}{
		{"outside roots", deniedID, http.StatusForbidden},
		{"file missing", goneID, http.StatusNotFound},
		{"no thumbnail", noneID, http.StatusNotFound},
		{"unknown show", "missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(t, http.MethodGet, "/api/shows/"+tt.id+"/thumbnail", nil); rec.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestScan(t *testing.T) {
	e := newTestEnv(t)
	if err := os.MkdirAll(filepath.Join(e.hotRoot, "Alpha", "Season 1"), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := e.do(t, http.MethodPost, "/api/scan", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	e.h.Scans.Wait()

	var status app.ScanStatus
	decode(t, e.do(t, http.MethodGet, "/api/scan/status", nil), &status)
	if status.State != app.ScanStateIdle || status.LastSummary == nil || status.LastSummary.Inserted != 1 {
		t.Errorf("Unexpected scan status %+v", status)
	}

	shows, err := e.db.ListShows(context.Background(), store.ShowFilter{})
	if err != nil || len(shows) != 1 {
		t.Fatalf("Expected 1 indexed show, got %d (%v)", len(shows), err)
	}
	if rec := e.do(t, http.MethodPost, "/api/shows/"+shows[0].ID+"/move", map[string]string{"target": "cold"}); rec.Code != http.StatusCreated {
		t.Fatalf("move: %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/scan", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 with active jobs, got %d", rec.Code)
	}
}

func TestConfig(t *testing.T) {
	e := newTestEnv(t)

	var cfg settings.Settings
	decode(t, e.do(t, http.MethodGet, "/api/config", nil), &cfg)
	if cfg.HotRoot != e.hotRoot || cfg.ColdRoot != e.coldRoot {
		t.Errorf("Unexpected config %+v", cfg)
	}

	cfg.HotRoot = filepath.Join(e.hotRoot, "missing")
	rec := e.do(t, http.MethodPut, "/api/config", cfg)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing root, got %d", rec.Code)
	}
	if e.h.Settings.Snapshot().HotRoot != e.hotRoot {
		t.Error("Rejected update should leave settings unchanged")
	}

	library := filepath.Join(e.hotRoot, "..")
	cfg.HotRoot = e.hotRoot
	cfg.LibraryPaths = []string{library}
	rec = e.do(t, http.MethodPut, "/api/config", cfg)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := e.h.Settings.Snapshot().LibraryPaths; len(got) != 1 || got[0] != filepath.Clean(library) {
		t.Errorf("Unexpected library paths %v", got)
	}
}

func TestListPaths(t *testing.T) {
	e := newTestEnv(t)
	parent := filepath.Dir(e.hotRoot)
	file := filepath.Join(parent, "plain.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		root     string
		wantCode int
	}{
		{"ok", parent, http.StatusOK},
		{"blank", "", http.StatusBadRequest},
		{"missing", filepath.Join(parent, "nope"), http.StatusNotFound},
		{"file", file, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/api/paths?root="+tt.root, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}

	var body struct {
		Directories []struct {
			Name string `json:"name"`
		} `json:"directories"`
	}
	decode(t, e.do(t, http.MethodGet, "/api/paths?root="+parent, nil), &body)
	if len(body.Directories) != 2 || body.Directories[0].Name != "cold" || body.Directories[1].Name != "hot" {
		t.Errorf("Unexpected directories %+v", body.Directories)
	}
}

func TestListPools(t *testing.T) {
	e := newTestEnv(t)
	var pools []struct {
		Tier  string         `json:"tier"`
		Usage map[string]any `json:"usage"`
		Error string         `json:"error"`
	}
	decode(t, e.do(t, http.MethodGet, "/api/pools", nil), &pools)
	if len(pools) != 2 || pools[0].Tier != "hot" || pools[1].Tier != "cold" {
		t.Fatalf("Unexpected pools %+v", pools)
	}
	for _, p := range pools {
		if p.Usage == nil || p.Error != "" {
			t.Errorf("Expected usage for %s, got error %q", p.Tier, p.Error)
		}
	}
}

func TestPreferences(t *testing.T) {
	e := newTestEnv(t)

	var prefs app.Preferences
	decode(t, e.do(t, http.MethodGet, "/api/me/settings", nil), &prefs)
	if prefs.Theme != "jelly" {
		t.Errorf("Expected default theme, got %q", prefs.Theme)
	}

	rec := e.do(t, http.MethodPatch, "/api/me/settings", map[string]string{"theme": "Dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPatch, "/api/me/settings", map[string]string{"theme": "neon"}); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown theme, got %d", rec.Code)
	}

	decode(t, e.do(t, http.MethodGet, "/api/me/settings", nil), &prefs)
	if prefs.Theme != "dark" {
		t.Errorf("Expected dark theme, got %q", prefs.Theme)
	}

	rec = e.do(t, http.MethodDelete, "/api/me/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on reset, got %d", rec.Code)
	}
	decode(t, rec, &prefs)
	if prefs.Theme != "jelly" {
		t.Errorf("Expected default theme after reset, got %q", prefs.Theme)
	}
}

func TestJellyfin(t *testing.T) {
	e := newTestEnv(t)

	if rec := e.do(t, http.MethodPost, "/api/jellyfin/rescan", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 when not configured, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/jellyfin/status", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 status when not configured, got %d", rec.Code)
	}

	var libraryCode atomic.Int32
	libraryCode.Store(http.StatusUnauthorized)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(int(libraryCode.Load()))
		}
	}))
	defer srv.Close()

	cfg := e.h.Settings.Snapshot()
	cfg.Jellyfin = settings.Jellyfin{URL: srv.URL, APIKey: "key"}
	if _, err := e.h.Settings.Update(cfg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if rec := e.do(t, http.MethodPost, "/api/jellyfin/rescan", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for rejected key, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/jellyfin/status", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 status for rejected key, got %d", rec.Code)
	}

	libraryCode.Store(http.StatusNoContent)
	if rec := e.do(t, http.MethodPost, "/api/jellyfin/rescan", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 after accepted rescan, got %d", rec.Code)
	}
	rec := e.do(t, http.MethodGet, "/api/jellyfin/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 status, got %d", rec.Code)
	}
	var st map[string]any
	decode(t, rec, &st)
	if st["auth_ok"] != true || st["server_reachable"] != true {
		t.Errorf("Unexpected status %v", st)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrShowNotFound, http.StatusNotFound},
		{domain.ErrJobNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: \"warm\"", domain.ErrInvalidTarget), http.StatusBadRequest},
		{&domain.MissingRootError{Field: "cold_root"}, http.StatusBadRequest},
		{&settings.ValidationError{Problems: []string{"x"}}, http.StatusBadRequest},
		{domain.ErrAccessDenied, http.StatusForbidden},
		{domain.ErrScanInProgress, http.StatusConflict},
		{domain.ErrJobsActive, http.StatusConflict},
		{fmt.Errorf("%w: boom", domain.ErrStore), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
