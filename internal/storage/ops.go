package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cesargomez89/showmover/internal/constants"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, constants.DirPermissions)
}

// RemoveTree deletes path and everything below it. A missing path is not an error.
func RemoveTree(path string) error {
	err := os.RemoveAll(path)
	if err != nil && !IsNotExist(err) {
		return err
	}
	return nil
}

// CopyFile copies src to dst, creating parent directories and replacing any
// existing file. It returns the number of bytes written.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return 0, fmt.Errorf("create parent: %w", err)
	}

	perm := info.Mode().Perm()
	if perm == 0 {
		perm = constants.FilePermissions
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("copy data: %w", err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("close destination: %w", err)
	}

	// media servers key caches off mtime
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return n, nil
}

// CopySymlink recreates the link at src as dst without following it.
func CopySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("read link: %w", err)
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	if err := os.Remove(dst); err != nil && !IsNotExist(err) {
		return fmt.Errorf("replace link: %w", err)
	}
	return os.Symlink(target, dst)
}

func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
