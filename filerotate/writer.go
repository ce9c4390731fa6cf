// Package filerotate implements a size-based rotating append-only
// writer, modeled on the rotate-then-append semantics of Python's
// logging.handlers.RotatingFileHandler: a write that would push the
// current file past maxBytes rotates existing numbered backups up by
// one first, then opens a fresh file.
package filerotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer is a single rotating log file with up to backups numbered
// siblings (path.1 .. path.N). It is safe for concurrent use: writes
// are serialized by an internal mutex so that no two lines interleave.
type Writer struct {
	mu sync.Mutex

	path     string
	maxBytes int64
	backups  int

	file *os.File
	size int64
}

// New creates a Writer rooted at path. The containing directory is
// created recursively on the first write, not here, so constructing a
// Writer never touches the filesystem.
//
// maxBytes <= 0 means "never accumulate": every write rotates first,
// so the live file always holds at most the most recent write.
// backups <= 0 means rotation still happens but no numbered backups
// are retained; the rotated-out file is simply removed.
func New(path string, maxBytes int64, backups int) *Writer {
	return &Writer{path: path, maxBytes: maxBytes, backups: backups}
}

// Write appends p as-is to the current file, rotating first if the
// write would exceed maxBytes. Any I/O failure is swallowed: it
// returns len(p), nil regardless, since a logging sink must never fail
// the caller on its behalf.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureOpen(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: log file write failed: %v\n", err)
		return len(p), nil
	}

	if w.shouldRotate(int64(len(p))) {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log file rotation failed: %v\n", err)
		}
		if err := w.ensureOpen(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log file write failed: %v\n", err)
			return len(p), nil
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: log file write failed: %v\n", err)
	}
	return len(p), nil
}

// Close closes the underlying file handle, if open.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *Writer) shouldRotate(incoming int64) bool {
	if w.maxBytes <= 0 {
		return true
	}
	return w.size+incoming > w.maxBytes
}

func (w *Writer) ensureOpen() error {
	if w.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// rotate closes the current file, shifts path.(N-1) -> path.N down to
// path.1 -> path.2, then renames path to path.1; the next ensureOpen
// call in Write opens path fresh. backups <= 0 discards the rotated
// file instead of keeping path.1.
func (w *Writer) rotate() error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	w.size = 0

	if w.backups <= 0 {
		return os.Remove(w.path)
	}

	oldest := fmt.Sprintf("%s.%d", w.path, w.backups)
	os.Remove(oldest)
	for i := w.backups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", w.path, i)
		to := fmt.Sprintf("%s.%d", w.path, i+1)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, to); err != nil {
				return err
			}
		}
	}
	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return err
		}
	}
	return nil
}
