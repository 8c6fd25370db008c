package applog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecisionLineWithoutCert(t *testing.T) {
	line := DecisionLine('D', 'B', "H_x", "/tmp/x", "", "")
	assert.Equal(t, "D|B|H_x|/tmp/x\n", line)
}

func TestDecisionLineWithCert(t *testing.T) {
	line := DecisionLine('A', 'C', "H_y", "/bin/y", "CERTSHA", "Acme Inc")
	assert.Equal(t, "A|C|H_y|/bin/y|CERTSHA|Acme Inc\n", line)
}

func TestDecisionLineSanitizesPipesAndNewlines(t *testing.T) {
	line := DecisionLine('D', 'S', "H", "/tmp/a|b\nc", "", "")
	assert.Equal(t, "D|S|H|/tmp/a<pipe>b c\n", line)
}

func TestFileModificationLineWrite(t *testing.T) {
	line := FileModificationLine(FileModification{
		Action: "WRITE", Path: "/tmp/f", PID: 1, PPID: 0,
		Process: "sh", ProcessPath: "/bin/sh", UID: 501, GID: 20, SHA256: "abc",
	})
	assert.Equal(t, "action=WRITE|path=/tmp/f|pid=1|ppid=0|process=sh|processpath=/bin/sh|uid=501|gid=20|sha256=abc\n", line)
}

func TestFileModificationLineRenameIncludesNewPath(t *testing.T) {
	line := FileModificationLine(FileModification{
		Action: "RENAME", Path: "/tmp/a", NewPath: "/tmp/b", PID: 1, PPID: 0,
		Process: "mv", ProcessPath: "/bin/mv", UID: 0, GID: 0,
	})
	assert.Equal(t, "action=RENAME|path=/tmp/a|newpath=/tmp/b|pid=1|ppid=0|process=mv|processpath=/bin/mv|uid=0|gid=0\n", line)
}

func TestExecutionLineMinimal(t *testing.T) {
	line := ExecutionLine(Execution{
		Decision: "ALLOW", Reason: "SCOPE", SHA256: "abc", Path: "/usr/bin/true",
		Args: []string{"true"}, PID: 10, PPID: 1, UID: 0, GID: 0,
	})
	assert.Equal(t, "action=EXEC|decision=ALLOW|reason=SCOPE|sha256=abc|path=/usr/bin/true|args=true|pid=10|ppid=1|uid=0|gid=0\n", line)
}

func TestExecutionLineWithCertAndExplain(t *testing.T) {
	line := ExecutionLine(Execution{
		Decision: "DENY", Reason: "CERTIFICATE", Explain: "blacklisted",
		SHA256: "abc", Path: "/tmp/x", Args: []string{"x", "--flag"},
		CertSHA256: "certhash", CertCN: "Acme", PID: 5, PPID: 1, UID: 501, GID: 20,
	})
	assert.Equal(t,
		"action=EXEC|decision=DENY|reason=CERTIFICATE|explain=blacklisted|sha256=abc|path=/tmp/x|args=x --flag|cert_sha256=certhash|cert_cn=Acme|pid=5|ppid=1|uid=501|gid=20\n",
		line)
}
