package policy

import (
	"github.com/lomehong/santad/internal/applog"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/shirou/gopsutil/v3/process"
)

var reasonWord = map[byte]string{
	byte(reasonBinary):      "BINARY",
	byte(reasonCertificate): "CERTIFICATE",
	byte(reasonScope):       "SCOPE",
	byte(reasonUnknown):     "UNKNOWN",
}

// HandleExec processes a NOTIFY_EXEC message: the kernel only emits this
// after an allow verdict, so the execution log line always reports
// decision=ALLOW. The Decision Cache read is "at most once" (spec §4.8);
// a miss means the entry already expired or was evicted and is reported
// as NOTRUNNING rather than treated as an error.
func (e *Engine) HandleExec(msg kernel.Message) {
	d, ok := e.Cache.Take(msg.VnodeID)

	reason := "NOTRUNNING"
	sha256 := ""
	certSHA := ""
	certCN := ""
	explain := ""
	if ok {
		if word, known := reasonWord[d.Tag[0]]; known {
			reason = word
		}
		sha256 = d.SHA256
		certSHA = d.CertSHA256
		certCN = d.CertCN
		explain = d.Explanation
	}

	var args []string
	if p, err := process.NewProcess(msg.PID); err == nil {
		if a, err := p.CmdlineSlice(); err == nil {
			args = a
		}
	}

	line := applog.ExecutionLine(applog.Execution{
		Decision:   "ALLOW",
		Reason:     reason,
		Explain:    explain,
		SHA256:     sha256,
		Path:       msg.Path,
		Args:       args,
		CertSHA256: certSHA,
		CertCN:     certCN,
		PID:        msg.PID,
		PPID:       msg.PPID,
		UID:        msg.UID,
		GID:        msg.GID,
	})

	if e.ExecLog != nil {
		if err := e.ExecLog.WriteLine(line); err != nil {
			e.Log.Warn("failed to write execution log line", "error", err)
		}
	}
}
