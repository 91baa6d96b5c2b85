// Package settings holds the operator-editable library configuration: the two
// storage roots, the scan paths and the media server connection.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cesargomez89/showmover/internal/domain"
)

// Jellyfin describes the optional media server to notify after moves.
type Jellyfin struct {
	URL    string `toml:"url" json:"url"`
	APIKey string `toml:"api_key" json:"api_key"`
}

// Settings is a point-in-time copy of the library configuration. Values
// returned by Store.Snapshot are never mutated by the store.
type Settings struct {
	HotRoot      string   `toml:"hot_root" json:"hot_root"`
	ColdRoot     string   `toml:"cold_root" json:"cold_root"`
	LibraryPaths []string `toml:"library_paths" json:"library_paths"`
	Jellyfin     Jellyfin `toml:"jellyfin" json:"jellyfin"`
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.LibraryPaths = slices.Clone(s.LibraryPaths)
	return out
}

// Ready reports whether both roots are configured.
func (s Settings) Ready() bool {
	return strings.TrimSpace(s.HotRoot) != "" && strings.TrimSpace(s.ColdRoot) != ""
}

// RootFor returns the configured root for a tier, or a MissingRootError
// naming the empty field.
func (s Settings) RootFor(loc domain.Location) (string, error) {
	switch loc {
	case domain.LocationHot:
		if root := strings.TrimSpace(s.HotRoot); root != "" {
			return root, nil
		}
		return "", &domain.MissingRootError{Field: "hot_root"}
	case domain.LocationCold:
		if root := strings.TrimSpace(s.ColdRoot); root != "" {
			return root, nil
		}
		return "", &domain.MissingRootError{Field: "cold_root"}
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTarget, string(loc))
	}
}

// ScanPaths returns the directories whose children are candidate shows.
// Explicit library paths are trimmed and de-duplicated in order; when none are
// set the hot root then the cold root are used.
func (s Settings) ScanPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, p := range s.LibraryPaths {
		add(p)
	}
	if len(paths) == 0 {
		add(s.HotRoot)
		add(s.ColdRoot)
	}
	return paths
}

// AllowedRoots lists every directory under which files may be served.
func (s Settings) AllowedRoots() []string {
	roots := s.ScanPaths()
	for _, r := range []string{s.HotRoot, s.ColdRoot} {
		r = strings.TrimSpace(r)
		if r != "" && !slices.Contains(roots, r) {
			roots = append(roots, r)
		}
	}
	return roots
}

// normalize trims every field and drops blank library paths.
func (s *Settings) normalize() {
	s.HotRoot = cleanPath(s.HotRoot)
	s.ColdRoot = cleanPath(s.ColdRoot)
	var paths []string
	for _, p := range s.LibraryPaths {
		if p = cleanPath(p); p != "" {
			paths = append(paths, p)
		}
	}
	s.LibraryPaths = paths
	s.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(s.Jellyfin.URL), "/")
	s.Jellyfin.APIKey = strings.TrimSpace(s.Jellyfin.APIKey)
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// Validate checks the settings against the filesystem. Empty roots are
// allowed so the service can start unconfigured.
func (s Settings) Validate() error {
	var problems []string

	for _, root := range []struct{ field, path string }{
		{"hot_root", s.HotRoot},
		{"cold_root", s.ColdRoot},
	} {
		if root.path == "" {
			continue
		}
		if err := requireDir(root.path); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", root.field, err))
		}
	}

	if s.HotRoot != "" && s.ColdRoot != "" {
		switch {
		case s.HotRoot == s.ColdRoot:
			problems = append(problems, "hot_root and cold_root must be different directories")
		case domain.IsWithin(s.HotRoot, s.ColdRoot) || domain.IsWithin(s.ColdRoot, s.HotRoot):
			problems = append(problems, "hot_root and cold_root must not be nested inside each other")
		}
	}

	for _, p := range s.LibraryPaths {
		if err := requireDir(p); err != nil {
			problems = append(problems, fmt.Sprintf("library_paths %s: %v", p, err))
		}
	}

	if s.Jellyfin.URL != "" {
		u, err := url.Parse(s.Jellyfin.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("jellyfin.url is not a valid URL: %s", s.Jellyfin.URL))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("directory does not exist")
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	return nil
}

// ValidationError lists every problem found in a settings update.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
}
