package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/lomehong/santad/internal/applog"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/shirou/gopsutil/v3/process"
)

const maxMutationHashSize = 1 << 20 // 1 MiB, spec §6

var mutationActionName = map[kernel.Action]string{
	kernel.ActionNotifyWrite:    "WRITE",
	kernel.ActionNotifyRename:   "RENAME",
	kernel.ActionNotifyLink:     "LINK",
	kernel.ActionNotifyExchange: "EXCHANGE",
	kernel.ActionNotifyDelete:   "DELETE",
}

// HandleMutation processes a NOTIFY_WRITE/RENAME/LINK/EXCHANGE/DELETE
// message already filtered by the dispatcher against file_changes_regex,
// emitting the file-modification log line (spec §6).
func (e *Engine) HandleMutation(msg kernel.Message) {
	actionName := mutationActionName[msg.Action]
	if actionName == "" {
		e.Log.Warn("unexpected action on mutation path", "action", msg.Action.String())
		return
	}

	procName, procPath := mutatingProcess(msg.PID)

	fm := applog.FileModification{
		Action:      actionName,
		Path:        msg.Path,
		NewPath:     msg.NewPath,
		PID:         msg.PID,
		PPID:        msg.PPID,
		Process:     procName,
		ProcessPath: procPath,
		UID:         msg.UID,
		GID:         msg.GID,
	}
	if msg.Action == kernel.ActionNotifyWrite {
		fm.SHA256 = hashIfSmallEnough(msg.Path)
	}

	if e.MutationLog != nil {
		if err := e.MutationLog.WriteLine(applog.FileModificationLine(fm)); err != nil {
			e.Log.Warn("failed to write mutation log line", "error", err)
		}
	}
}

// hashIfSmallEnough sha256-hashes path when it is under 1 MiB, returning
// the literal "(too large)" otherwise, matching the spec's WRITE log
// field exactly. Any stat/read failure degrades to an empty field.
func hashIfSmallEnough(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if info.Size() >= maxMutationHashSize {
		return "(too large)"
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// mutatingProcess resolves the name and executable path of the process
// identified by pid (the process that performed the mutation, not its
// parent), degrading to empty strings on any lookup failure.
func mutatingProcess(pid int32) (name, path string) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", ""
	}
	if n, err := p.Name(); err == nil {
		name = n
	}
	if e, err := p.Exe(); err == nil {
		path = e
	}
	return name, path
}
