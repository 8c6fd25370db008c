// Package kernel implements the Kernel Transport: the bidirectional channel
// with the kernel-resident authorization hook. The wire contract (spec §6)
// is a fixed-layout struct carried over a local transport; this package
// models it as a length-independent Go struct plus an encoding/binary
// codec for the implementation (the socket transport) that needs the
// exact wire bytes.
package kernel

import "fmt"

// MaxPathLen mirrors the kernel's MAXPATHLEN — the fixed capacity of the
// path/newpath fields in the wire struct.
const MaxPathLen = 1024

// Action is the wire action enumeration. Numeric values are part of the
// contract and must not be renumbered (spec §6).
type Action int32

const (
	ActionUnset Action = 0

	ActionRequestCheckBW Action = 10
	ActionRespondAllow   Action = 11
	ActionRespondDeny    Action = 12

	ActionNotifyExec     Action = 20
	ActionNotifyWrite    Action = 21
	ActionNotifyRename   Action = 22
	ActionNotifyLink     Action = 23
	ActionNotifyExchange Action = 24
	ActionNotifyDelete   Action = 25

	ActionRequestShutdown Action = 90
	ActionError           Action = 99
)

func (a Action) String() string {
	switch a {
	case ActionUnset:
		return "UNSET"
	case ActionRequestCheckBW:
		return "REQUEST_CHECKBW"
	case ActionRespondAllow:
		return "RESPOND_ALLOW"
	case ActionRespondDeny:
		return "RESPOND_DENY"
	case ActionNotifyExec:
		return "NOTIFY_EXEC"
	case ActionNotifyWrite:
		return "NOTIFY_WRITE"
	case ActionNotifyRename:
		return "NOTIFY_RENAME"
	case ActionNotifyLink:
		return "NOTIFY_LINK"
	case ActionNotifyExchange:
		return "NOTIFY_EXCHANGE"
	case ActionNotifyDelete:
		return "NOTIFY_DELETE"
	case ActionRequestShutdown:
		return "REQUEST_SHUTDOWN"
	case ActionError:
		return "ERROR"
	default:
		return fmt.Sprintf("ACTION(%d)", int32(a))
	}
}

// IsDecisionRequest reports whether this action must be routed to the HIGH
// priority decision pool (spec §4.6).
func (a Action) IsDecisionRequest() bool {
	return a == ActionRequestCheckBW
}

// IsFileMutation reports whether this action is one of the NOTIFY_WRITE /
// RENAME / LINK / EXCHANGE / DELETE family routed to the LOW pool subject
// to the file_changes_regex scope filter.
func (a Action) IsFileMutation() bool {
	switch a {
	case ActionNotifyWrite, ActionNotifyRename, ActionNotifyLink, ActionNotifyExchange, ActionNotifyDelete:
		return true
	default:
		return false
	}
}

// Message is the decoded form of the kernel wire struct
// (action, vnode_id, uid, gid, pid, ppid, path, newpath).
type Message struct {
	Action  Action
	VnodeID uint64
	UID     uint32
	GID     uint32
	PID     int32
	PPID    int32
	Path    string
	NewPath string
}

// Verdict is the response posted back to the kernel for a given vnode id.
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictDeny
)

func (v Verdict) Action() Action {
	if v == VerdictDeny {
		return ActionRespondDeny
	}
	return ActionRespondAllow
}
