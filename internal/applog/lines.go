// Package applog builds and writes the daemon's three plain-text log line
// formats (spec §6): the per-decision pipe-delimited line, the
// file-modification key=value line, and the execution key=value line.
package applog

import (
	"fmt"
	"strconv"
	"strings"
)

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "|", "<pipe>")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// DecisionLine builds the per-decision line: `D|R|SHA256|PATH` or
// `D|R|SHA256|PATH|CERT_SHA256|CERT_CN` when a certificate was involved.
// decision is one of A, D, ?; reason is one of B, C, S, ? (Binary,
// Certificate, Scope, Unknown).
func DecisionLine(decision, reason byte, sha256, path, certSHA256, certCN string) string {
	fields := []string{
		string(decision),
		string(reason),
		sanitize(sha256),
		sanitize(path),
	}
	if certSHA256 != "" || certCN != "" {
		fields = append(fields, sanitize(certSHA256), sanitize(certCN))
	}
	return strings.Join(fields, "|") + "\n"
}

// FileModification is the set of fields backing the file-modification log
// line (spec §6).
type FileModification struct {
	Action      string // DELETE, EXCHANGE, LINK, RENAME, WRITE
	Path        string
	NewPath     string
	PID         int32
	PPID        int32
	Process     string
	ProcessPath string
	UID         uint32
	GID         uint32
	SHA256      string // only for WRITE under 1 MiB; "(too large)" otherwise
}

// FileModificationLine builds `action=<ACTION>|path=<p>[|newpath=<n>]|
// pid=<>|ppid=<>|process=<>|processpath=<>|uid=<>|gid=<>[|sha256=<>]`.
func FileModificationLine(m FileModification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "action=%s|path=%s", sanitize(m.Action), sanitize(m.Path))
	if m.NewPath != "" {
		fmt.Fprintf(&b, "|newpath=%s", sanitize(m.NewPath))
	}
	fmt.Fprintf(&b, "|pid=%d|ppid=%d|process=%s|processpath=%s|uid=%d|gid=%d",
		m.PID, m.PPID, sanitize(m.Process), sanitize(m.ProcessPath), m.UID, m.GID)
	if m.SHA256 != "" {
		fmt.Fprintf(&b, "|sha256=%s", sanitize(m.SHA256))
	}
	b.WriteByte('\n')
	return b.String()
}

// Execution is the set of fields backing the execution log line (spec
// §6).
type Execution struct {
	Decision   string // ALLOW, DENY
	Reason     string // BINARY, CERTIFICATE, CERT, SCOPE, UNKNOWN, NOTRUNNING
	Explain    string
	SHA256     string
	Path       string
	Args       []string
	CertSHA256 string
	CertCN     string
	PID        int32
	PPID       int32
	UID        uint32
	GID        uint32
}

// ExecutionLine builds `action=EXEC|decision=<>|reason=<>[|explain=<>]|
// sha256=<>|path=<>|args=<space-joined>[|cert_sha256=<>|cert_cn=<>]|
// pid=<>|ppid=<>|uid=<>|gid=<>`.
func ExecutionLine(e Execution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "action=EXEC|decision=%s|reason=%s", sanitize(e.Decision), sanitize(e.Reason))
	if e.Explain != "" {
		fmt.Fprintf(&b, "|explain=%s", sanitize(e.Explain))
	}
	fmt.Fprintf(&b, "|sha256=%s|path=%s|args=%s", sanitize(e.SHA256), sanitize(e.Path), sanitize(strings.Join(e.Args, " ")))
	if e.CertSHA256 != "" || e.CertCN != "" {
		fmt.Fprintf(&b, "|cert_sha256=%s|cert_cn=%s", sanitize(e.CertSHA256), sanitize(e.CertCN))
	}
	fmt.Fprintf(&b, "|pid=%s|ppid=%s|uid=%s|gid=%s",
		strconv.FormatInt(int64(e.PID), 10), strconv.FormatInt(int64(e.PPID), 10),
		strconv.FormatUint(uint64(e.UID), 10), strconv.FormatUint(uint64(e.GID), 10))
	b.WriteByte('\n')
	return b.String()
}
