package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Rotator is a size-triggered, count-and-age-bounded log file writer.
// Adapted from the teacher's LogRotator (pkg/logging/rotator.go): once the
// current file reaches maxSize bytes it is renamed with a timestamp suffix
// and a fresh file opened in its place, then rotate prunes backups past
// maxBackups or older than maxAge. Used by internal/applog for the
// decision/exec/mutation logs, which only ever grow.
type Rotator struct {
	path       string
	maxSize    int64
	maxBackups int
	maxAge     time.Duration

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotator returns a Rotator for path. maxSize <= 0 disables rotation
// (the file grows without bound); maxBackups <= 0 or maxAge <= 0 disable
// that particular pruning rule.
func NewRotator(path string, maxSize int64, maxBackups int, maxAge time.Duration) *Rotator {
	return &Rotator{path: path, maxSize: maxSize, maxBackups: maxBackups, maxAge: maxAge}
}

// Touch opens the backing file immediately, so a bad path is reported at
// startup rather than on the first log line.
func (r *Rotator) Touch() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		return nil
	}
	return r.open()
}

func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	if err != nil {
		return n, err
	}
	r.size += int64(n)

	if r.maxSize > 0 && r.size >= r.maxSize {
		if err := r.rotate(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Rotator) open() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		r.file = nil
	}

	timestamp := time.Now().Format("20060102-150405")
	ext := filepath.Ext(r.path)
	base := strings.TrimSuffix(r.path, ext)
	newPath := fmt.Sprintf("%s.%s%s", base, timestamp, ext)
	if err := os.Rename(r.path, newPath); err != nil {
		return fmt.Errorf("rename log file: %w", err)
	}

	if err := r.pruneBackups(); err != nil {
		return fmt.Errorf("prune old log files: %w", err)
	}
	return r.open()
}

func (r *Rotator) pruneBackups() error {
	dir := filepath.Dir(r.path)
	base := filepath.Base(r.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read log directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name != base && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			backups = append(backups, filepath.Join(dir, name))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		iInfo, _ := os.Stat(backups[i])
		jInfo, _ := os.Stat(backups[j])
		return iInfo.ModTime().After(jInfo.ModTime())
	})

	if r.maxBackups > 0 && len(backups) > r.maxBackups {
		for _, stale := range backups[r.maxBackups:] {
			if err := os.Remove(stale); err != nil {
				return err
			}
		}
		backups = backups[:r.maxBackups]
	}

	if r.maxAge > 0 {
		cutoff := time.Now().Add(-r.maxAge)
		for _, backup := range backups {
			info, err := os.Stat(backup)
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(backup); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
