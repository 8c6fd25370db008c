package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lomehong/santad/internal/cache"
	"github.com/lomehong/santad/internal/codesign"
	"github.com/lomehong/santad/internal/config"
	"github.com/lomehong/santad/internal/events"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/lomehong/santad/internal/notify"
	"github.com/lomehong/santad/internal/rules"
	"github.com/lomehong/santad/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	return logger.NewLogger("policy-test", logger.GetLogLevel("error"))
}

func hash(fill byte) string {
	s := ""
	for i := 0; i < 64; i++ {
		s += string(rune('a' + int(fill)%6))
	}
	return s
}

func selfProtection() rules.SelfProtection {
	return rules.SelfProtection{DaemonCertSHA256: hash(1), InitCertSHA256: hash(2)}
}

func newConfigProvider(t *testing.T, yamlBody string) *config.Provider {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))
	p, err := config.NewProvider(path, testLogger())
	require.NoError(t, err)
	return p
}

type harness struct {
	engine     *Engine
	transport  *kernel.FakeTransport
	ruleStore  *rules.Store
	eventStore *events.Store
	cache      *cache.Cache
	notifyCh   *notify.FakeChannel
	decLog     *fakeLineWriter
	execLog    *fakeLineWriter
	mutLog     *fakeLineWriter
	probe      *codesign.FakeProbe
	spawner    *fakeSpawner
}

func newHarness(t *testing.T, cfg *config.Provider, img fakeImage) *harness {
	t.Helper()
	dir := t.TempDir()

	ruleStore, err := rules.Open(filepath.Join(dir, "rules.json"), selfProtection(), testLogger())
	require.NoError(t, err)
	eventStore, err := events.Open(filepath.Join(dir, "events.jsonl"), testLogger())
	require.NoError(t, err)

	h := &harness{
		transport:  kernel.NewFakeTransport(),
		ruleStore:  ruleStore,
		eventStore: eventStore,
		cache:      cache.New(10),
		notifyCh:   notify.NewFakeChannel(),
		decLog:     &fakeLineWriter{},
		execLog:    &fakeLineWriter{},
		mutLog:     &fakeLineWriter{},
		probe:      codesign.NewFakeProbe(),
		spawner:    &fakeSpawner{},
	}

	h.engine = &Engine{
		Kernel:      h.transport,
		Rules:       h.ruleStore,
		Events:      h.eventStore,
		Cache:       h.cache,
		Config:      cfg,
		Signing:     h.probe,
		Notify:      h.notifyCh,
		DecisionLog: h.decLog,
		ExecLog:     h.execLog,
		MutationLog: h.mutLog,
		ParentName:  fakeParentName{name: "bash"},
		AdminSpawn:  h.spawner,
		OpenImage:   func(path string) (Image, error) { return img, nil },
		Log:         testLogger(),
	}
	return h
}

func TestScenario1_BinaryBlacklistDenies(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: monitor\n")
	h := newHarness(t, cfg, fakeImage{path: "/tmp/x", sha256: hash(3), isMachO: true})

	require.NoError(t, h.ruleStore.Add([]rules.Rule{
		{Hash: hash(3), Kind: rules.KindBinary, State: rules.StateBlacklist, CustomMessage: "Nope"},
	}, false))

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 1, Path: "/tmp/x"})

	verdicts := h.transport.VerdictsFor(1)
	require.Len(t, verdicts, 1)
	assert.Equal(t, kernel.VerdictDeny, verdicts[0])

	sent := h.notifyCh.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Nope", sent[0].CustomMessage)

	require.Len(t, h.decLog.lines, 1)
	assert.Equal(t, "D|B|"+hash(3)+"|/tmp/x\n", h.decLog.lines[0])

	all, err := h.eventStore.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, events.TagBlockBinary, all[0].Decision)
}

func TestScenario2_CertificateWhitelistAllows(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: monitor\n")
	h := newHarness(t, cfg, fakeImage{path: "/bin/y", sha256: hash(4), isMachO: true})
	h.probe.Chains["/bin/y"] = []codesign.Certificate{{SHA256: hash(5), CommonName: "Acme"}}

	require.NoError(t, h.ruleStore.Add([]rules.Rule{
		{Hash: hash(5), Kind: rules.KindCertificate, State: rules.StateWhitelist},
	}, false))

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 2, Path: "/bin/y"})

	verdicts := h.transport.VerdictsFor(2)
	require.Len(t, verdicts, 1)
	assert.Equal(t, kernel.VerdictAllow, verdicts[0])

	require.Len(t, h.decLog.lines, 1)
	assert.Equal(t, "A|C|"+hash(4)+"|/bin/y|"+hash(5)+"|Acme\n", h.decLog.lines[0])
}

func TestScenario3_MonitorModeNoRuleStoresEvent(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: monitor\n")
	h := newHarness(t, cfg, fakeImage{path: "/usr/bin/true", sha256: hash(6), isMachO: true})

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 3, Path: "/usr/bin/true"})

	verdicts := h.transport.VerdictsFor(3)
	require.Len(t, verdicts, 1)
	assert.Equal(t, kernel.VerdictAllow, verdicts[0])

	require.Len(t, h.decLog.lines, 1)
	assert.Equal(t, "A|?|"+hash(6)+"|/usr/bin/true\n", h.decLog.lines[0])

	all, err := h.eventStore.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestScenario4_LockdownWhitelistPathNoEvent(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: lockdown\nwhitelist_path_regex: \"^/opt/ok/.*\"\n")
	h := newHarness(t, cfg, fakeImage{path: "/opt/ok/app", sha256: hash(7), isMachO: true})

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 4, Path: "/opt/ok/app"})

	verdicts := h.transport.VerdictsFor(4)
	require.Len(t, verdicts, 1)
	assert.Equal(t, kernel.VerdictAllow, verdicts[0])

	require.Len(t, h.decLog.lines, 1)
	assert.Equal(t, "A|S|"+hash(7)+"|/opt/ok/app\n", h.decLog.lines[0])

	all, err := h.eventStore.All()
	require.NoError(t, err)
	assert.Len(t, all, 0)
}

func TestScenario5_NonMachOScriptOutOfScope(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: lockdown\n")
	h := newHarness(t, cfg, fakeImage{path: "/var/tmp/s.sh", sha256: hash(8), isMachO: false})

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 5, Path: "/var/tmp/s.sh"})

	verdicts := h.transport.VerdictsFor(5)
	require.Len(t, verdicts, 1)
	assert.Equal(t, kernel.VerdictAllow, verdicts[0])

	require.Len(t, h.decLog.lines, 1)
	assert.Equal(t, "A|S|"+hash(8)+"|/var/tmp/s.sh\n", h.decLog.lines[0])

	all, err := h.eventStore.All()
	require.NoError(t, err)
	assert.Len(t, all, 0)
}

func TestLockdownDefaultDeniesWithoutRuleOrScope(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: lockdown\n")
	h := newHarness(t, cfg, fakeImage{path: "/opt/bad/app", sha256: hash(9), isMachO: true})

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 6, Path: "/opt/bad/app"})

	assert.Equal(t, kernel.VerdictDeny, h.transport.VerdictsFor(6)[0])
}

func TestMissingPageZeroAlwaysDenies(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: monitor\n")
	h := newHarness(t, cfg, fakeImage{path: "/opt/legacy/app32", sha256: hash(10), isMachO: true, missingPZ: true})

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 7, Path: "/opt/legacy/app32"})

	assert.Equal(t, kernel.VerdictDeny, h.transport.VerdictsFor(7)[0])
}

func TestSilentBlacklistSuppressesNotification(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: monitor\n")
	h := newHarness(t, cfg, fakeImage{path: "/tmp/silent", sha256: hash(11), isMachO: true})
	require.NoError(t, h.ruleStore.Add([]rules.Rule{
		{Hash: hash(11), Kind: rules.KindBinary, State: rules.StateSilentBlacklist},
	}, false))

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 8, Path: "/tmp/silent"})

	assert.Equal(t, kernel.VerdictDeny, h.transport.VerdictsFor(8)[0])
	assert.Empty(t, h.notifyCh.Sent())
}

func TestInspectionFailureAllowsAndLogsUnknown(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: lockdown\n")
	h := newHarness(t, cfg, fakeImage{})
	h.engine.OpenImage = func(path string) (Image, error) { return nil, os.ErrNotExist }

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 9, Path: "/tmp/gone"})

	assert.Equal(t, kernel.VerdictAllow, h.transport.VerdictsFor(9)[0])
	require.Len(t, h.decLog.lines, 1)
	assert.Equal(t, "A|?||/tmp/gone\n", h.decLog.lines[0])
}

func TestScenario6_FileModificationLogsSHA256(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "passwd")
	require.NoError(t, os.WriteFile(target, []byte("root:x:0:0"), 0o644))

	cfg := newConfigProvider(t, "client_mode: monitor\nfile_changes_regex: \".*\"\n")
	h := newHarness(t, cfg, fakeImage{})

	h.engine.HandleMutation(kernel.Message{Action: kernel.ActionNotifyWrite, Path: target, PID: 1, PPID: 0})

	require.Len(t, h.mutLog.lines, 1)
	assert.Contains(t, h.mutLog.lines[0], "action=WRITE|path="+target)
	assert.Contains(t, h.mutLog.lines[0], "sha256=")
}

func TestDenyTriggersSyncSpawnWhenConfigured(t *testing.T) {
	cfg := newConfigProvider(t, "client_mode: monitor\nsync_base_url: https://sync.example\n")
	h := newHarness(t, cfg, fakeImage{path: "/tmp/bad", sha256: hash(12), isMachO: true})
	h.engine.AdminToolPath = "/usr/local/bin/santactl"
	require.NoError(t, h.ruleStore.Add([]rules.Rule{
		{Hash: hash(12), Kind: rules.KindBinary, State: rules.StateBlacklist},
	}, false))

	h.engine.Decide(kernel.Message{Action: kernel.ActionRequestCheckBW, VnodeID: 10, Path: "/tmp/bad"})

	require.Len(t, h.spawner.calls, 1)
	assert.Equal(t, hash(12), h.spawner.calls[0])
}
