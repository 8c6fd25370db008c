package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomehong/santad/pkg/logger"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("test", hclog.Off)
}

func TestNewProviderDefaultsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProvider(filepath.Join(dir, "missing.yaml"), newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, ModeMonitor, p.Snapshot().ClientMode)
}

func TestNewProviderLoadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "santad.yaml")
	writeConfig(t, path, "client_mode: lockdown\nwhitelist_path_regex: \"^/opt/ok/\"\nlog_all_events: true\n")

	p, err := NewProvider(path, newTestLogger())
	require.NoError(t, err)

	snap := p.Snapshot()
	assert.Equal(t, ModeLockdown, snap.ClientMode)
	assert.True(t, snap.LogAllEvents)
	assert.True(t, snap.MatchesWhitelistPath("/opt/ok/app"))
	assert.False(t, snap.MatchesWhitelistPath("/opt/bad/app"))
}

func TestRejectsInvalidClientMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "santad.yaml")
	writeConfig(t, path, "client_mode: chaos\n")

	_, err := NewProvider(path, newTestLogger())
	require.Error(t, err)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "santad.yaml")
	writeConfig(t, path, "client_mode: monitor\n")

	p, err := NewProvider(path, newTestLogger())
	require.NoError(t, err)

	stop, err := p.Watch(context.Background())
	require.NoError(t, err)
	defer stop()

	writeConfig(t, path, "client_mode: lockdown\n")

	require.Eventually(t, func() bool {
		return p.Snapshot().ClientMode == ModeLockdown
	}, 2*time.Second, 20*time.Millisecond)
}
