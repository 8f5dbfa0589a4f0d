package storage

import (
	"errors"
	"io"
	"io/fs"
	"path"
	"sync"
)

// ErrInjected is returned by Mem when a fault hook fires.
var ErrInjected = errors.New("injected storage fault")

// Fault decides whether an operation on a Mem file fails. The offset is the
// file position at which the operation would start.
type Fault func(path string, offset int64) bool

// Mem is an in-memory FS. The fault hooks make it possible to simulate an
// unreliable medium.
type Mem struct {
	crit  sync.Mutex
	files map[string][]byte

	FailOpen  func(path string) bool
	FailRead  Fault
	FailWrite Fault
	FailSeek  Fault

	// FailClose makes Close return an error, as a late flush failure would.
	// The file is closed either way.
	FailClose func(path string) bool
}

// NewMem is the preferred method of initialisation for the Mem type.
func NewMem() *Mem {
	return &Mem{files: make(map[string][]byte)}
}

// Put replaces the contents of a file.
func (m *Mem) Put(name string, data []byte) {
	m.crit.Lock()
	defer m.crit.Unlock()
	m.files[path.Clean(name)] = append([]byte(nil), data...)
}

// Get returns a copy of the contents of a file.
func (m *Mem) Get(name string) ([]byte, bool) {
	m.crit.Lock()
	defer m.crit.Unlock()
	d, ok := m.files[path.Clean(name)]
	return append([]byte(nil), d...), ok
}

func (m *Mem) Open(name string) (File, error) {
	name = path.Clean(name)
	if m.FailOpen != nil && m.FailOpen(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrInjected}
	}
	m.crit.Lock()
	defer m.crit.Unlock()
	if _, ok := m.files[name]; !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memFile{fs: m, name: name, readOnly: true}, nil
}

func (m *Mem) Create(name string, truncate bool) (File, error) {
	name = path.Clean(name)
	if m.FailOpen != nil && m.FailOpen(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrInjected}
	}
	m.crit.Lock()
	defer m.crit.Unlock()
	if _, ok := m.files[name]; !ok || truncate {
		m.files[name] = []byte{}
	}
	return &memFile{fs: m, name: name}, nil
}

func (m *Mem) Remove(name string) error {
	m.crit.Lock()
	defer m.crit.Unlock()
	name = path.Clean(name)
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

func (m *Mem) MkdirAll(string) error {
	return nil
}

type memFile struct {
	fs       *Mem
	name     string
	pos      int64
	readOnly bool
	closed   bool
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.fs.FailRead != nil && f.fs.FailRead(f.name, f.pos) {
		return 0, ErrInjected
	}
	f.fs.crit.Lock()
	defer f.fs.crit.Unlock()
	data := f.fs.files[f.name]
	if f.pos >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.readOnly {
		return 0, fs.ErrPermission
	}
	if f.fs.FailWrite != nil && f.fs.FailWrite(f.name, f.pos) {
		return 0, ErrInjected
	}
	f.fs.crit.Lock()
	defer f.fs.crit.Unlock()
	data := f.fs.files[f.name]
	end := f.pos + int64(len(p))
	if end > int64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[f.pos:], p)
	f.fs.files[f.name] = data
	f.pos = end
	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		f.fs.crit.Lock()
		abs = int64(len(f.fs.files[f.name])) + offset
		f.fs.crit.Unlock()
	default:
		return 0, errors.New("seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("seek: negative position")
	}
	if f.fs.FailSeek != nil && f.fs.FailSeek(f.name, abs) {
		return 0, ErrInjected
	}
	f.pos = abs
	return abs, nil
}

func (f *memFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	if f.fs.FailClose != nil && f.fs.FailClose(f.name) {
		return ErrInjected
	}
	return nil
}
