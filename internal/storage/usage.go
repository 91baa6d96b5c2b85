package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// Usage describes the filesystem holding a path.
type Usage struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// DiskUsage reports capacity for the filesystem containing path. Free space is
// what an unprivileged user can still write.
func DiskUsage(path string) (*Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	free := st.Bavail * bsize
	used := total - st.Bfree*bsize
	return &Usage{
		Path:       path,
		TotalBytes: total,
		UsedBytes:  used,
		FreeBytes:  free,
	}, nil
}

// Percent returns used space as a percentage of total.
func (u *Usage) Percent() float64 {
	if u == nil || u.TotalBytes == 0 {
		return 0
	}
	return float64(u.UsedBytes) / float64(u.TotalBytes) * 100
}

var (
	ErrRootRequired = errors.New("root path is required")
	ErrRootNotFound = errors.New("root path not found")
	ErrNotDirectory = errors.New("root path is not a directory")
)

// ValidateRoot checks that root names an existing directory.
func ValidateRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return ErrRootRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		if IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return nil
}

// DirEntry is one subdirectory of a browsed root.
type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Usage *Usage `json:"usage,omitempty"`
}

// ListSubdirs returns the immediate subdirectories of root sorted by name,
// ignoring case. Usage is filled on a best-effort basis.
func ListSubdirs(root string) ([]DirEntry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []DirEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		entry := DirEntry{Name: e.Name(), Path: path}
		if u, err := DiskUsage(path); err == nil {
			entry.Usage = u
		}
		dirs = append(dirs, entry)
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.ToLower(dirs[i].Name) < strings.ToLower(dirs[j].Name)
	})
	return dirs, nil
}
