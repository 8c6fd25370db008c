package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/lomehong/santad/pkg/apperrors"
	"github.com/lomehong/santad/pkg/logger"
)

// Store is an append-only JSON-lines event log. Reads are the
// responsibility of the external uploader; this package only ever appends
// and enumerates, never rewrites a line (spec §4.7 "destroyed only by
// external upload/acknowledgement").
type Store struct {
	path string
	log  logger.Logger

	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// Open opens (creating if absent) the append-only backing file. A failure
// to open at all is fatal at startup (spec §7).
func Open(path string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.ErrStoreInit.Code, "create event store directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.ErrStoreInit.Code, "open event store")
	}
	return &Store{path: path, log: log, f: f, w: bufio.NewWriter(f)}, nil
}

// Append assigns an ID (if unset) and durably appends ev. A write failure
// is recoverable: the caller has already posted the kernel verdict and
// must not block on this (spec §7 "event persistence failed").
func (s *Store) Append(ev StoredEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "marshal stored event")
	}
	if _, err := s.w.Write(data); err != nil {
		return apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "write stored event")
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "write stored event")
	}
	if err := s.w.Flush(); err != nil {
		return apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "flush stored event")
	}
	return nil
}

// All replays every event currently in the log, skipping (and logging) any
// line that fails to parse rather than aborting the whole read — a log
// corrupted by a partial write must not take down the uploader (spec §4.4
// "open-or-rebuild" applied here to reads).
func (s *Store) All() ([]StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "flush before read")
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "reopen event store for read")
	}
	defer f.Close()

	var out []StoredEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var ev StoredEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			s.log.Warn("skipping unparseable event store line", "error", err)
			continue
		}
		out = append(out, ev)
	}
	return out, scanner.Err()
}

// Count returns the number of events currently in the log.
func (s *Store) Count() (int, error) {
	all, err := s.All()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Close flushes and closes the backing file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}
