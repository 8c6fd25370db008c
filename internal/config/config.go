// Package config implements the Config Provider: a live-reloadable,
// process-wide configuration snapshot. Readers take an immutable snapshot
// under a read lock; the watcher goroutine is the single writer.
package config

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/spf13/viper"

	"github.com/lomehong/santad/pkg/logger"
)

// ClientMode controls the default verdict when no rule or scope exemption
// applies (spec §4.5 step 7).
type ClientMode string

const (
	ModeMonitor  ClientMode = "monitor"
	ModeLockdown ClientMode = "lockdown"
)

// Config is the set of fields read by the core (spec §3 "Configuration").
type Config struct {
	ClientMode        ClientMode
	FileChangesRegex  string
	WhitelistPathRegex string
	LogAllEvents      bool
	SyncBaseURL       string
	SyncBackOff       bool

	fileChangesRe  *regexp.Regexp
	whitelistRe    *regexp.Regexp
}

// compile parses the two regex fields once so decision-path lookups never
// pay re-compilation cost. A config with an invalid regex is rejected by
// the loader rather than silently treated as non-matching.
func (c *Config) compile() error {
	if c.FileChangesRegex != "" {
		re, err := regexp.Compile(c.FileChangesRegex)
		if err != nil {
			return fmt.Errorf("file_changes_regex: %w", err)
		}
		c.fileChangesRe = re
	}
	if c.WhitelistPathRegex != "" {
		re, err := regexp.Compile(c.WhitelistPathRegex)
		if err != nil {
			return fmt.Errorf("whitelist_path_regex: %w", err)
		}
		c.whitelistRe = re
	}
	return nil
}

// MatchesFileChanges reports whether path is in scope for mutation logging.
func (c *Config) MatchesFileChanges(path string) bool {
	return c.fileChangesRe != nil && c.fileChangesRe.MatchString(path)
}

// MatchesWhitelistPath reports whether path is scope-exempt (spec §4.5 step 5).
func (c *Config) MatchesWhitelistPath(path string) bool {
	return c.whitelistRe != nil && c.whitelistRe.MatchString(path)
}

func defaultConfig() *Config {
	return &Config{
		ClientMode:   ModeMonitor,
		LogAllEvents: false,
	}
}

func loadFromViper(v *viper.Viper) (*Config, error) {
	cfg := defaultConfig()
	if mode := v.GetString("client_mode"); mode != "" {
		cfg.ClientMode = ClientMode(mode)
	}
	cfg.FileChangesRegex = v.GetString("file_changes_regex")
	cfg.WhitelistPathRegex = v.GetString("whitelist_path_regex")
	cfg.LogAllEvents = v.GetBool("log_all_events")
	cfg.SyncBaseURL = v.GetString("sync_base_url")
	cfg.SyncBackOff = v.GetBool("sync_back_off")

	if cfg.ClientMode != ModeMonitor && cfg.ClientMode != ModeLockdown {
		return nil, fmt.Errorf("invalid client_mode %q", cfg.ClientMode)
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Provider holds the current configuration snapshot behind a read lock and
// reloads it whenever the backing file changes (see watcher.go).
type Provider struct {
	path string
	log  logger.Logger

	mu  sync.RWMutex
	cur *Config
}

// NewProvider loads path once synchronously; path may not exist yet, in
// which case the built-in defaults are used until it appears.
func NewProvider(path string, log logger.Logger) (*Provider, error) {
	p := &Provider{path: path, log: log, cur: defaultConfig()}
	if err := p.reload(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Warn("config file absent, using defaults", "path", path)
	}
	return p, nil
}

// Snapshot returns the current, immutable configuration. Callers must not
// mutate the returned value.
func (p *Provider) Snapshot() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cur
}

func (p *Provider) reload() error {
	v := viper.New()
	v.SetConfigFile(p.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	cfg, err := loadFromViper(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.cur = cfg
	p.mu.Unlock()

	// Regardless of how the file got here, re-apply root:wheel 0644 so a
	// careless writer never leaves the config world-writable (spec §6).
	reapplyOwnershipAndMode(p.path, p.log)

	p.log.Info("configuration reloaded", "path", p.path, "client_mode", cfg.ClientMode)
	return nil
}
