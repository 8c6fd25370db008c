// Package apperrors defines the daemon's error taxonomy and the policy for
// each kind, per the error handling design: which failures are fatal at
// startup, which are recovered locally on the decision path, and which are
// only logged and swallowed.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error by the handling policy it requires.
type Kind int

const (
	// KindFatal means the process must exit non-zero after logging.
	KindFatal Kind = iota
	// KindRecoverable means the caller logs and continues with the last
	// known good state.
	KindRecoverable
	// KindLocal means the decision path recovers in place (e.g. posts
	// allow on inspection failure) without surfacing further.
	KindLocal
	// KindRejected means the error is returned to an external caller
	// with no state change on this side.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRecoverable:
		return "recoverable"
	case KindLocal:
		return "local"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// DaemonError wraps an underlying cause with the kind of handling it
// requires and a stable code for log correlation.
type DaemonError struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
	Time    time.Time
}

func (e *DaemonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DaemonError) Unwrap() error {
	return e.Cause
}

// New creates a DaemonError with no underlying cause.
func New(kind Kind, code, message string) *DaemonError {
	return &DaemonError{Kind: kind, Code: code, Message: message, Time: time.Now()}
}

// Wrap attaches kind/code/message to an existing error.
func Wrap(err error, kind Kind, code, message string) *DaemonError {
	if err == nil {
		return nil
	}
	return &DaemonError{Kind: kind, Code: code, Message: message, Cause: err, Time: time.Now()}
}

// Is reports whether err (or anything it wraps) has the given kind.
func Is(err error, kind Kind) bool {
	var de *DaemonError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// Predefined codes named directly in the error handling design (spec §7).
var (
	ErrKernelAbsent    = New(KindFatal, "KERNEL_ABSENT", "kernel authorization endpoint is not present")
	ErrStoreInit       = New(KindFatal, "STORE_INIT", "durable store failed to initialize")
	ErrStoreCorrupt    = New(KindRecoverable, "STORE_CORRUPT", "durable store backing file is corrupt, continuing with last known good snapshot")
	ErrInspection      = New(KindLocal, "INSPECTION_FAILED", "executable inspection failed")
	ErrProtocolDesync  = New(KindFatal, "PROTOCOL_DESYNC", "unknown action received on decisions channel")
	ErrRuleRejected    = New(KindRejected, "RULE_REJECTED", "rule add rejected")
	ErrNotificationTx  = New(KindRecoverable, "NOTIFICATION_FAILED", "notification send failed, decision already posted")
	ErrEventPersist    = New(KindRecoverable, "EVENT_PERSIST_FAILED", "event persistence failed, decision already posted")
)
