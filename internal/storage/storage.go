// Package storage is the file access layer used by the bank manager and the
// persistent state store. Those components only ever need a handful of
// operations on a file (seek, read, write, close), so they depend on the FS
// interface rather than on the os package directly. The OS implementation is
// used in production; tests substitute an in-memory FS that can inject
// failures.
package storage

import (
	"io"
	"os"
	"path/filepath"
)

// File is an open file.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// FS opens files.
type FS interface {
	// Open opens a file for reading.
	Open(path string) (File, error)

	// Create opens a file for reading and writing, creating it if necessary.
	// The file is truncated when truncate is true.
	Create(path string, truncate bool) (File, error)

	// Remove deletes a file.
	Remove(path string) error

	// MkdirAll creates a directory and its parents.
	MkdirAll(path string) error
}

// OS is the FS backed by the host file system.
type OS struct{}

func (OS) Open(path string) (File, error) {
	return os.Open(path)
}

func (OS) Create(path string, truncate bool) (File, error) {
	flag := os.O_RDWR | os.O_CREATE
	if truncate {
		flag |= os.O_TRUNC
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, flag, 0o644)
}

func (OS) Remove(path string) error {
	return os.Remove(path)
}

func (OS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}
