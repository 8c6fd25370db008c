package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lomehong/santad/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	return logger.NewLogger("rules-test", logger.GetLogLevel("error"))
}

func hash(b byte) string {
	s := ""
	for i := 0; i < 64; i++ {
		s += string(rune('a' + int(b)%6))
	}
	return s
}

func selfProtection() SelfProtection {
	return SelfProtection{DaemonCertSHA256: hash(1), InitCertSHA256: hash(2)}
}

func TestOpenStartsEmptyWhenMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "rules.json"), selfProtection(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, s.RuleCount())
}

func TestCleanSlateRejectedWithoutSelfProtection(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "rules.json"), selfProtection(), testLogger())
	require.NoError(t, err)

	err = s.Add([]Rule{{Hash: hash(3), Kind: KindBinary, State: StateWhitelist}}, true)
	require.Error(t, err)
	assert.Equal(t, 0, s.RuleCount())
}

func TestCleanSlateAcceptedWithSelfProtection(t *testing.T) {
	dir := t.TempDir()
	sp := selfProtection()
	s, err := Open(filepath.Join(dir, "rules.json"), sp, testLogger())
	require.NoError(t, err)

	incoming := []Rule{
		{Hash: sp.DaemonCertSHA256, Kind: KindCertificate, State: StateWhitelist},
		{Hash: sp.InitCertSHA256, Kind: KindCertificate, State: StateWhitelist},
		{Hash: hash(3), Kind: KindBinary, State: StateBlacklist},
	}
	require.NoError(t, s.Add(incoming, true))
	assert.Equal(t, 3, s.RuleCount())
	assert.Equal(t, 1, s.BinaryRuleCount())
	assert.Equal(t, 2, s.CertificateRuleCount())

	r, ok := s.BinaryRule(hash(3))
	require.True(t, ok)
	deny, ok := r.Verdict()
	require.True(t, ok)
	assert.True(t, deny)
}

func TestCleanSlateReplacesPriorRules(t *testing.T) {
	dir := t.TempDir()
	sp := selfProtection()
	s, err := Open(filepath.Join(dir, "rules.json"), sp, testLogger())
	require.NoError(t, err)

	base := []Rule{
		{Hash: sp.DaemonCertSHA256, Kind: KindCertificate, State: StateWhitelist},
		{Hash: sp.InitCertSHA256, Kind: KindCertificate, State: StateWhitelist},
		{Hash: hash(3), Kind: KindBinary, State: StateWhitelist},
	}
	require.NoError(t, s.Add(base, true))

	replacement := []Rule{
		{Hash: sp.DaemonCertSHA256, Kind: KindCertificate, State: StateWhitelist},
		{Hash: sp.InitCertSHA256, Kind: KindCertificate, State: StateWhitelist},
	}
	require.NoError(t, s.Add(replacement, true))

	_, ok := s.BinaryRule(hash(3))
	assert.False(t, ok)
	assert.Equal(t, 2, s.RuleCount())
}

func TestUpsertAddsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "rules.json"), selfProtection(), testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Add([]Rule{{Hash: hash(3), Kind: KindBinary, State: StateWhitelist}}, false))
	assert.Equal(t, 1, s.RuleCount())

	require.NoError(t, s.Add([]Rule{{Hash: hash(3), Kind: KindBinary, State: StateRemove}}, false))
	assert.Equal(t, 0, s.RuleCount())
}

func TestSelfProtectionRuleIsImmutable(t *testing.T) {
	dir := t.TempDir()
	sp := selfProtection()
	s, err := Open(filepath.Join(dir, "rules.json"), sp, testLogger())
	require.NoError(t, err)

	base := []Rule{
		{Hash: sp.DaemonCertSHA256, Kind: KindCertificate, State: StateWhitelist},
		{Hash: sp.InitCertSHA256, Kind: KindCertificate, State: StateWhitelist},
	}
	require.NoError(t, s.Add(base, true))

	err = s.Add([]Rule{{Hash: sp.DaemonCertSHA256, Kind: KindCertificate, State: StateRemove}}, false)
	require.Error(t, err)

	r, ok := s.CertificateRule(sp.DaemonCertSHA256)
	require.True(t, ok)
	assert.Equal(t, StateWhitelist, r.State)
}

func TestOpenRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s, err := Open(path, selfProtection(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, s.RuleCount())
}

func TestPersistedRulesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	sp := selfProtection()

	s, err := Open(path, sp, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Add([]Rule{{Hash: hash(3), Kind: KindBinary, State: StateWhitelist}}, false))

	reopened, err := Open(path, sp, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.RuleCount())
	_, ok := reopened.BinaryRule(hash(3))
	assert.True(t, ok)
}

func TestAddRejectsInvalidRule(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "rules.json"), selfProtection(), testLogger())
	require.NoError(t, err)

	err = s.Add([]Rule{{Hash: "tooshort", Kind: KindBinary, State: StateWhitelist}}, false)
	require.Error(t, err)
	assert.Equal(t, 0, s.RuleCount())
}
