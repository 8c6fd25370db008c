// Package events implements the Event Store: a durable, append-only log of
// Stored Events for later upload by the external sync agent (spec §4.7).
package events

import "time"

// DecisionTag identifies why a Stored Event was produced.
type DecisionTag string

const (
	TagBlockBinary      DecisionTag = "BLOCK_BINARY"
	TagBlockCertificate DecisionTag = "BLOCK_CERTIFICATE"
	TagBlockScope       DecisionTag = "BLOCK_SCOPE"
	TagBlockHardening   DecisionTag = "BLOCK_HARDENING"
	TagAllowUnknown     DecisionTag = "ALLOW_UNKNOWN"
	TagAllowScope       DecisionTag = "ALLOW_SCOPE"
	TagAllowBinary      DecisionTag = "ALLOW_BINARY"
	TagAllowCertificate DecisionTag = "ALLOW_CERTIFICATE"
	TagAllowDefault     DecisionTag = "ALLOW_DEFAULT"
	TagDenyDefault      DecisionTag = "DENY_DEFAULT"
)

// StoredEvent is immutable once written (spec §3 "Stored Event").
type StoredEvent struct {
	ID string `json:"id"`

	FileSHA256      string   `json:"file_sha256"`
	FilePath        string   `json:"file_path"`
	BundleID        string   `json:"bundle_id,omitempty"`
	BundleName      string   `json:"bundle_name,omitempty"`
	BundleShortVer  string   `json:"bundle_short_version,omitempty"`
	BundleVersion   string   `json:"bundle_version,omitempty"`
	SigningChainSHA []string `json:"signing_chain_sha256,omitempty"`

	OccurredAt time.Time   `json:"occurred_at"`
	Decision   DecisionTag `json:"decision"`

	PID             int32  `json:"pid"`
	PPID            int32  `json:"ppid"`
	ParentProcess   string `json:"parent_process,omitempty"`
	ExecutingUser   string `json:"executing_user,omitempty"`
	LoggedInUsers   []string `json:"logged_in_users,omitempty"`
	SessionIDs      []string `json:"session_ids,omitempty"`
}
