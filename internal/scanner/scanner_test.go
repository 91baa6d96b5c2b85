package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesargomez89/showmover/internal/domain"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/settings"
	"github.com/cesargomez89/showmover/internal/store"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "scan.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBuildCandidate(t *testing.T) {
	root := t.TempDir()
	hot := filepath.Join(root, "hot")
	cold := filepath.Join(root, "cold")
	show := filepath.Join(hot, "The Show")

	writeFile(t, filepath.Join(show, "Season 1", "e1.mkv"), 100)
	writeFile(t, filepath.Join(show, "Season 1", "e2.MP4"), 100)
	writeFile(t, filepath.Join(show, "Season 2", "e1.avi"), 50)
	writeFile(t, filepath.Join(show, "Season 2", "notes.txt"), 7)
	writeFile(t, filepath.Join(show, "poster.jpg"), 3)
	writeFile(t, filepath.Join(show, "thumb.jpg"), 3)

	s := New(nil, logger.Discard())
	c := s.buildCandidate(show, hot, cold)

	if c.Title != "The Show" || c.Source != domain.ShowSourceScan {
		t.Errorf("Expected directory title and fs_scan, got %q %s", c.Title, c.Source)
	}
	if c.Location != domain.LocationHot {
		t.Errorf("Expected hot location, got %q", c.Location)
	}
	if c.SizeBytes != 263 {
		t.Errorf("Expected 263 bytes, got %d", c.SizeBytes)
	}
	if c.EpisodeCount != 3 {
		t.Errorf("Expected 3 episodes, got %d", c.EpisodeCount)
	}
	if c.SeasonCount != 2 {
		t.Errorf("Expected 2 seasons, got %d", c.SeasonCount)
	}
	if c.ThumbnailPath == nil || *c.ThumbnailPath != filepath.Join(show, "poster.jpg") {
		t.Errorf("Expected poster.jpg thumbnail, got %v", c.ThumbnailPath)
	}
	if c.LastScan.IsZero() {
		t.Error("Expected last scan timestamp")
	}
}

func TestSeasonCount(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  int
	}{
		{"videos at root count as one season", []string{"e1.mkv", "e2.mkv"}, 1},
		{"no videos", []string{"readme.txt"}, 0},
		{"empty", nil, 0},
		{"nested extras share the first component", []string{"S1/e1.mkv", "S1/extras/b.mkv", "S2/e1.mkv"}, 2},
		{"root videos ignored when seasons exist", []string{"pilot.mkv", "S1/e1.mkv"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			show := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(show, f), 1)
			}
			if got := gatherStats(show).seasonCount; got != tt.want {
				t.Errorf("seasonCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEpisodeNFOOverride(t *testing.T) {
	t.Run("episode nfo files override video count", func(t *testing.T) {
		show := t.TempDir()
		for i := 0; i < 5; i++ {
			writeFile(t, filepath.Join(show, "S1", "e"+string(rune('a'+i))+".mkv"), 1)
		}
		writeFile(t, filepath.Join(show, "S1", "ea.nfo"), 1)
		writeFile(t, filepath.Join(show, "S1", "eb.NFO"), 1)
		writeFile(t, filepath.Join(show, "tvshow.nfo"), 1)

		c := New(nil, logger.Discard()).buildCandidate(show, "", "")
		if c.EpisodeCount != 2 {
			t.Errorf("Expected 2 episodes from nfo files, got %d", c.EpisodeCount)
		}
	})

	t.Run("no episode nfo keeps video count", func(t *testing.T) {
		show := t.TempDir()
		for i := 0; i < 5; i++ {
			writeFile(t, filepath.Join(show, "S1", "e"+string(rune('a'+i))+".mkv"), 1)
		}
		writeFile(t, filepath.Join(show, "TVSHOW.NFO"), 1)

		c := New(nil, logger.Discard()).buildCandidate(show, "", "")
		if c.EpisodeCount != 5 {
			t.Errorf("Expected 5 episodes from videos, got %d", c.EpisodeCount)
		}
	})
}

func TestNFOTitle(t *testing.T) {
	show := filepath.Join(t.TempDir(), "dir-name")
	if err := os.MkdirAll(show, 0o755); err != nil {
		t.Fatal(err)
	}
	nfo := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<tvshow>
  <TITLE>  Real Title  </TITLE>
  <originaltitle>Other</originaltitle>
</tvshow>`
	if err := os.WriteFile(filepath.Join(show, "tvshow.nfo"), []byte(nfo), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(nil, logger.Discard()).buildCandidate(show, "", "")
	if c.Title != "Real Title" {
		t.Errorf("Expected nfo title, got %q", c.Title)
	}
	if c.Source != domain.ShowSourceScanNFO {
		t.Errorf("Expected fs_scan_nfo source, got %s", c.Source)
	}
	if c.Location != domain.LocationUnknown {
		t.Errorf("Expected unknown location without roots, got %q", c.Location)
	}
}

func TestParseNFOTitle(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"simple", `<tvshow><title>Show</title></tvshow>`, "Show", false},
		{"blank title skipped", `<tvshow><title>   </title><title>Second</title></tvshow>`, "Second", false},
		{"no title", `<tvshow><plot>x</plot></tvshow>`, "", false},
		{"html entity", `<tvshow><title>Law &amp; Order&nbsp;SVU</title></tvshow>`, "Law & Order SVU", false},
		{"trailing url after document", "<tvshow><title>Show</title></tvshow>\nhttps://example.org/show/1", "Show", false},
		{"latin1 charset", "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><tvshow><title>Caf\xe9</title></tvshow>", "Café", false},
		{"unknown charset", `<?xml version="1.0" encoding="x-made-up"?><tvshow><title>X</title></tvshow>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNFOTitle(strings.NewReader(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseNFOTitle error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseNFOTitle = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := map[string]bool{
		"a.mkv": true, "b.MKV": true, "c.m4v": true, "d.wmv": true, "e.mov": true,
		"f.srt": false, "g": false, "h.mkv.part": false,
	}
	for name, want := range tests {
		if got := isVideoFile(name); got != want {
			t.Errorf("isVideoFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRunIndexesLibraries(t *testing.T) {
	root := t.TempDir()
	hot := filepath.Join(root, "hot")
	cold := filepath.Join(root, "cold")
	writeFile(t, filepath.Join(hot, "Alpha", "S1", "e1.mkv"), 10)
	writeFile(t, filepath.Join(hot, "Bravo", "e1.mkv"), 10)
	writeFile(t, filepath.Join(cold, "Charlie", "S1", "e1.mkv"), 10)
	writeFile(t, filepath.Join(hot, "stray.mkv"), 1)

	db := setupStore(t)
	s := New(db, logger.Discard())
	ctx := context.Background()
	cfg := settings.Settings{HotRoot: hot, ColdRoot: cold}

	summary, err := s.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ScannedLibraries != 2 || summary.ShowsProcessed != 3 || summary.Inserted != 3 || summary.Updated != 0 {
		t.Errorf("Unexpected first summary: %+v", summary)
	}

	again, err := s.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if again.Inserted != 0 || again.Updated != 3 {
		t.Errorf("Expected unchanged rescan to only update, got %+v", again)
	}

	charlie, err := db.GetShowByPath(ctx, filepath.Join(cold, "Charlie"))
	if err != nil || charlie == nil {
		t.Fatalf("Expected Charlie to be indexed: %v", err)
	}
	if charlie.Location != domain.LocationCold {
		t.Errorf("Expected Charlie in cold, got %q", charlie.Location)
	}
}

func TestRunSkipsMissingLibraryPaths(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	writeFile(t, filepath.Join(lib, "Show", "e1.mkv"), 1)

	db := setupStore(t)
	cfg := settings.Settings{LibraryPaths: []string{filepath.Join(root, "missing"), lib, lib}}

	summary, err := New(db, logger.Discard()).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ScannedLibraries != 1 || summary.ShowsProcessed != 1 {
		t.Errorf("Expected one library and one show, got %+v", summary)
	}
}

func TestRunSkipsTierRootsInsideLibrary(t *testing.T) {
	root := t.TempDir()
	hot := filepath.Join(root, "hot")
	cold := filepath.Join(root, "cold")
	writeFile(t, filepath.Join(hot, "Alpha", "e1.mkv"), 1)
	writeFile(t, filepath.Join(cold, "Other", "keep.mkv"), 1)
	writeFile(t, filepath.Join(root, "Loose", "e1.mkv"), 1)

	tests := []struct {
		name       string
		cfg        settings.Settings
		indexed    []string
		notIndexed []string
	}{
		{
			name:       "parent of both roots",
			cfg:        settings.Settings{HotRoot: hot, ColdRoot: cold, LibraryPaths: []string{root}},
			indexed:    []string{filepath.Join(root, "Loose")},
			notIndexed: []string{hot, cold},
		},
		{
			name:       "parent with trailing separator",
			cfg:        settings.Settings{HotRoot: hot + string(filepath.Separator), ColdRoot: cold, LibraryPaths: []string{root, hot}},
			indexed:    []string{filepath.Join(root, "Loose"), filepath.Join(hot, "Alpha")},
			notIndexed: []string{hot, cold},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupStore(t)
			ctx := context.Background()

			summary, err := New(db, logger.Discard()).Run(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if summary.ShowsProcessed != len(tt.indexed) {
				t.Errorf("Expected %d shows, got %+v", len(tt.indexed), summary)
			}
			for _, path := range tt.indexed {
				if show, err := db.GetShowByPath(ctx, path); err != nil || show == nil {
					t.Errorf("Expected %s to be indexed: %v", path, err)
				}
			}
			for _, path := range tt.notIndexed {
				if show, err := db.GetShowByPath(ctx, path); err != nil || show != nil {
					t.Errorf("Expected tier root %s not to be indexed, got %+v (%v)", path, show, err)
				}
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) UpsertShow(ctx context.Context, show *domain.Show) (bool, error) {
	return false, errors.New("database is locked")
}

func TestRunAbortsOnStoreError(t *testing.T) {
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "Show", "e1.mkv"), 1)

	_, err := New(failingWriter{}, logger.Discard()).Run(context.Background(), settings.Settings{LibraryPaths: []string{lib}})
	if err == nil || !strings.Contains(err.Error(), "database is locked") {
		t.Errorf("Expected store error to abort scan, got %v", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "Show", "e1.mkv"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(setupStore(t), logger.Discard()).Run(ctx, settings.Settings{LibraryPaths: []string{lib}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
