// Package policy implements the Policy Engine: the authorization decision
// pipeline described in spec §4.5. It consults the Rule Store, Executable
// Inspector, Code-Signature Probe, and Config Provider, posts the verdict
// through the Kernel Transport, and fans out to the Event Store, Decision
// Cache, Notification Channel, and decision log.
package policy

import (
	"strings"
	"time"

	"github.com/lomehong/santad/internal/applog"
	"github.com/lomehong/santad/internal/cache"
	"github.com/lomehong/santad/internal/codesign"
	"github.com/lomehong/santad/internal/config"
	"github.com/lomehong/santad/internal/events"
	"github.com/lomehong/santad/internal/inspector"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/lomehong/santad/internal/notify"
	"github.com/lomehong/santad/internal/rules"
	"github.com/lomehong/santad/pkg/apperrors"
	"github.com/lomehong/santad/pkg/logger"
)

// installerScratchPrefix is the scope filter's hard-coded exemption
// boundary (spec §4.5 step 5).
const installerScratchPrefix = "/private/tmp/PKInstallSandbox."

// reason is the short code used in the decision log line's R field and,
// internally, to decide whether to persist a Stored Event.
type reason byte

const (
	reasonBinary      reason = 'B'
	reasonCertificate reason = 'C'
	reasonScope       reason = 'S'
	reasonUnknown     reason = '?'
)

// Engine wires the capability contracts the decision pipeline depends on.
// Every dependency is an interface or a small concrete handle with its own
// test double, per the "explicit contracts" design (spec §9).
type Engine struct {
	Kernel  kernel.Transport
	Rules   *rules.Store
	Events  *events.Store
	Cache   *cache.Cache
	Config  *config.Provider
	Signing codesign.Probe
	Notify  notify.Channel

	DecisionLog LineWriter
	ExecLog     LineWriter
	MutationLog LineWriter

	ParentName  ParentNameResolver
	AdminSpawn  AdminSpawner
	OpenImage   func(path string) (Image, error)

	Log logger.Logger

	// AdminToolPath is compared against the blocked path so the admin
	// tool is never spawned to upload a block event about itself (spec
	// §4.5 step 8).
	AdminToolPath string
}

// LineWriter is satisfied by *applog.Writer; kept as an interface here so
// tests can substitute an in-memory recorder.
type LineWriter interface {
	WriteLine(string) error
}

// ParentNameResolver captures the parent process's name by pid, best
// effort (spec §4.5 step 2).
type ParentNameResolver interface {
	Name(pid int32) (string, error)
}

// AdminSpawner launches the admin tool as an unprivileged child (spec
// §4.5 step 8).
type AdminSpawner interface {
	SpawnSyncSingleEvent(adminToolPath, sha256 string) error
}

// Image is the subset of *inspector.Image the engine needs, narrowed to an
// interface so tests can substitute a fake without touching a real file.
type Image interface {
	Path() string
	SHA256() (string, error)
	IsMachO() bool
	HasMissingPageZero() bool

	// Bundle metadata, best-effort: callers never fail on these, an
	// empty string just means the embedded/enclosing Info.plist had
	// nothing for that key (spec §4.2).
	BundleIdentifier() string
	BundleName() string
	BundleVersion() string
	BundleShortVersion() string
}

// decision captures everything the tail of the pipeline (persistence,
// notification, logging) needs regardless of which step produced it.
type decision struct {
	verdict       kernel.Verdict
	reason        reason
	sha256        string
	path          string
	certSHA256    string
	certCN        string
	customMessage string
	silent        bool

	bundleID           string
	bundleName         string
	bundleVersion      string
	bundleShortVersion string
}

// Decide runs the full pipeline for one REQUEST_CHECKBW message and posts
// the verdict. A pipeline error is never returned to the kernel as a
// failure to respond — every branch posts something (spec §5 "a decision
// task must always complete").
func (e *Engine) Decide(msg kernel.Message) {
	img, err := e.openImage(msg.Path)
	if err != nil {
		e.postAndLog(msg, decision{verdict: kernel.VerdictAllow, reason: reasonUnknown, path: msg.Path})
		e.Log.Warn("executable inspection failed, allowing", "path", msg.Path, "error", err)
		return
	}

	parentName, _ := e.ParentName.Name(msg.PPID)

	sha256, err := img.SHA256()
	if err != nil {
		e.postAndLog(msg, decision{verdict: kernel.VerdictAllow, reason: reasonUnknown, path: msg.Path})
		e.Log.Warn("hashing failed, allowing", "path", msg.Path, "error", err)
		return
	}

	d := decision{
		path:               msg.Path,
		sha256:             sha256,
		bundleID:           img.BundleIdentifier(),
		bundleName:         img.BundleName(),
		bundleVersion:      img.BundleVersion(),
		bundleShortVersion: rules.NormalizeVersion(img.BundleShortVersion()),
	}

	if r, ok := e.Rules.BinaryRule(sha256); ok {
		d.reason = reasonBinary
		e.applyRuleVerdict(&d, r)
		e.finish(msg, d, parentName, nil)
		return
	}

	var chain []codesign.Certificate
	if e.Signing != nil {
		chain, _ = e.Signing.Chain(msg.Path)
	}
	certSHA, haveCert := codesign.LeafSHA256(chain)
	if haveCert {
		d.certSHA256 = certSHA
		if len(chain) > 0 {
			d.certCN = chain[0].CommonName
		}
		if r, ok := e.Rules.CertificateRule(certSHA); ok {
			d.reason = reasonCertificate
			e.applyRuleVerdict(&d, r)
			e.finish(msg, d, parentName, chain)
			return
		}
	}

	cfg := e.Config.Snapshot()

	if cfg.MatchesWhitelistPath(msg.Path) || (!img.IsMachO() && !strings.HasPrefix(msg.Path, installerScratchPrefix)) {
		d.reason = reasonScope
		d.verdict = kernel.VerdictAllow
		e.finish(msg, d, parentName, chain)
		return
	}

	if img.HasMissingPageZero() {
		d.reason = reasonUnknown
		d.verdict = kernel.VerdictDeny
		e.finish(msg, d, parentName, chain)
		return
	}

	d.reason = reasonUnknown
	if cfg.ClientMode == config.ModeLockdown {
		d.verdict = kernel.VerdictDeny
	} else {
		d.verdict = kernel.VerdictAllow
	}
	e.finish(msg, d, parentName, chain)
}

func (e *Engine) applyRuleVerdict(d *decision, r rules.Rule) {
	switch r.State {
	case rules.StateBlacklist:
		d.verdict = kernel.VerdictDeny
	case rules.StateSilentBlacklist:
		d.verdict = kernel.VerdictDeny
		d.silent = true
	default: // whitelist
		d.verdict = kernel.VerdictAllow
	}
	d.customMessage = r.CustomMessage
}

func (e *Engine) openImage(path string) (Image, error) {
	if e.OpenImage != nil {
		return e.OpenImage(path)
	}
	return inspector.New(path)
}

// postAndLog handles the degenerate "inspection/hash failed" paths: post
// allow, emit the ALLOW_UNKNOWN line, stop (spec §4.5 step 1).
func (e *Engine) postAndLog(msg kernel.Message, d decision) {
	e.postVerdict(msg.VnodeID, d.verdict)
	line := decisionLogLine(d)
	if e.DecisionLog != nil {
		if err := e.DecisionLog.WriteLine(line); err != nil {
			e.Log.Warn("failed to write decision log line", "error", err)
		}
	}
}

func (e *Engine) postVerdict(vnodeID uint64, v kernel.Verdict) {
	if err := e.Kernel.PostVerdict(vnodeID, v); err != nil {
		e.Log.Error("failed to post verdict", "vnode_id", vnodeID, "error", err)
	}
}

func decisionLogLine(d decision) string {
	dByte := byte('A')
	if d.verdict == kernel.VerdictDeny {
		dByte = 'D'
	}
	return applog.DecisionLine(dByte, byte(d.reason), d.sha256, d.path, d.certSHA256, d.certCN)
}

// finish runs the shared tail of the pipeline: post verdict, cache the
// decision, persist an event if warranted, notify, log (spec §4.5 steps
// 2, 8, 9 combined with precedence's "later steps still run").
func (e *Engine) finish(msg kernel.Message, d decision, parentName string, chain []codesign.Certificate) {
	e.postVerdict(msg.VnodeID, d.verdict)

	e.Cache.Put(cache.Decision{
		VnodeID:     msg.VnodeID,
		Tag:         string(d.reason),
		SHA256:      d.sha256,
		CertSHA256:  d.certSHA256,
		CertCN:      d.certCN,
		Explanation: d.customMessage,
	})

	cfg := e.Config.Snapshot()
	deny := d.verdict == kernel.VerdictDeny
	shouldPersist := deny || d.reason == reasonUnknown || cfg.LogAllEvents
	if shouldPersist && e.Events != nil {
		e.persistEvent(msg, d, parentName, chain)
	}

	if deny {
		e.maybeSpawnSync(cfg, d, msg)
		if !d.silent {
			e.Notify.Notify(notify.Notification{Path: d.path, SHA256: d.sha256, CustomMessage: d.customMessage})
		}
	}

	if e.DecisionLog != nil {
		if err := e.DecisionLog.WriteLine(decisionLogLine(d)); err != nil {
			e.Log.Warn("failed to write decision log line", "error", err)
		}
	}
}

func (e *Engine) persistEvent(msg kernel.Message, d decision, parentName string, chain []codesign.Certificate) {
	ev := events.StoredEvent{
		FileSHA256:     d.sha256,
		FilePath:       d.path,
		BundleID:       d.bundleID,
		BundleName:     d.bundleName,
		BundleShortVer: d.bundleShortVersion,
		BundleVersion:  d.bundleVersion,
		OccurredAt:     time.Now(),
		Decision:       tagFor(d),
		PID:            msg.PID,
		PPID:           msg.PPID,
		ParentProcess:  parentName,
	}
	for _, c := range chain {
		ev.SigningChainSHA = append(ev.SigningChainSHA, c.SHA256)
	}
	if err := e.Events.Append(ev); err != nil {
		e.Log.Warn("failed to persist stored event", "error", apperrors.Wrap(err, apperrors.KindRecoverable, apperrors.ErrEventPersist.Code, "persist event"))
	}
}

func tagFor(d decision) events.DecisionTag {
	deny := d.verdict == kernel.VerdictDeny
	switch d.reason {
	case reasonBinary:
		if deny {
			return events.TagBlockBinary
		}
		return events.TagAllowBinary
	case reasonCertificate:
		if deny {
			return events.TagBlockCertificate
		}
		return events.TagAllowCertificate
	case reasonScope:
		return events.TagAllowScope
	default:
		if deny {
			return events.TagDenyDefault
		}
		return events.TagAllowDefault
	}
}

func (e *Engine) maybeSpawnSync(cfg *config.Config, d decision, msg kernel.Message) {
	if cfg.SyncBaseURL == "" || cfg.SyncBackOff {
		return
	}
	if e.AdminSpawn == nil || e.AdminToolPath == "" {
		return
	}
	if d.path == e.AdminToolPath {
		return
	}
	if err := e.AdminSpawn.SpawnSyncSingleEvent(e.AdminToolPath, d.sha256); err != nil {
		e.Log.Warn("failed to spawn admin tool for event upload", "error", err)
	}
}
