package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Location is the storage tier a show lives on. The zero value means the
// path is outside both roots.
type Location string

const (
	LocationUnknown Location = ""
	LocationHot     Location = "hot"
	LocationCold    Location = "cold"
)

// ParseLocation accepts "hot" or "cold" in any case, surrounded by whitespace.
func ParseLocation(s string) (Location, error) {
	if l := Location(strings.ToLower(strings.TrimSpace(s))); l.Valid() {
		return l, nil
	}
	return LocationUnknown, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
}

// Valid reports whether l names one of the two tiers.
func (l Location) Valid() bool {
	return l == LocationHot || l == LocationCold
}

func (l Location) String() string {
	if l == LocationUnknown {
		return "unknown"
	}
	return string(l)
}

func (l Location) Value() (driver.Value, error) {
	if l == LocationUnknown {
		return nil, nil
	}
	return string(l), nil
}

func (l *Location) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = LocationUnknown
	case string:
		*l = Location(v)
	case []byte:
		*l = Location(v)
	default:
		return fmt.Errorf("cannot scan %T into Location", value)
	}
	return nil
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l == LocationUnknown {
		return []byte("null"), nil
	}
	return json.Marshal(string(l))
}

func (l *Location) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = LocationUnknown
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = Location(s)
	return nil
}

// LocationOf reports which root contains path. The hot root is checked first.
func LocationOf(path, hotRoot, coldRoot string) Location {
	if hotRoot != "" && IsWithin(path, hotRoot) {
		return LocationHot
	}
	if coldRoot != "" && IsWithin(path, coldRoot) {
		return LocationCold
	}
	return LocationUnknown
}

// IsWithin reports whether path equals root or lies below it, comparing whole
// path components so "/media/hot2" is not inside "/media/hot".
func IsWithin(path, root string) bool {
	if path == "" || root == "" {
		return false
	}
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return true
	}
	if !strings.HasSuffix(r, string(filepath.Separator)) {
		r += string(filepath.Separator)
	}
	return strings.HasPrefix(p, r)
}

// Rebase maps a path under fromRoot onto toRoot, keeping the relative part.
// The root itself is not rebased: a tier root is never a show.
func Rebase(path, fromRoot, toRoot string) (string, error) {
	if !IsWithin(path, fromRoot) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrPathMismatch, path, fromRoot)
	}
	rel, err := filepath.Rel(filepath.Clean(fromRoot), filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathMismatch, err)
	}
	if rel == "." {
		return "", fmt.Errorf("%w: %s is the tier root", ErrPathMismatch, path)
	}
	return filepath.Join(toRoot, rel), nil
}
