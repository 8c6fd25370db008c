package applog

import (
	"sync"
	"time"

	"github.com/lomehong/santad/pkg/logger"
)

// Defaults for the three ever-growing decision/exec/mutation logs: rotate
// at 100MiB, keep 5 backups, and drop anything older than 30 days.
const (
	defaultMaxSize    = 100 * 1024 * 1024
	defaultMaxBackups = 5
	defaultMaxAge     = 30 * 24 * time.Hour
)

// Writer appends pre-formatted log lines to a size-rotated file (see
// pkg/logger's Rotator), the same durable-append pattern as the rest of
// the daemon's logs but bounded so an idle client mode doesn't let a
// decision log grow forever.
type Writer struct {
	mu  sync.Mutex
	rot *logger.Rotator
}

// Open creates (or appends to) the file at path, rotating it once it
// passes defaultMaxSize.
func Open(path string) (*Writer, error) {
	rot := logger.NewRotator(path, defaultMaxSize, defaultMaxBackups, defaultMaxAge)
	if err := rot.Touch(); err != nil {
		return nil, err
	}
	return &Writer{rot: rot}, nil
}

// WriteLine appends line verbatim (callers pass an already-terminated,
// already-sanitized line from this package's builders).
func (w *Writer) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.rot.Write([]byte(line))
	return err
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rot.Close()
}
