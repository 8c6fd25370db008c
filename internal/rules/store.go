package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lomehong/santad/pkg/apperrors"
	"github.com/lomehong/santad/pkg/logger"
)

// SelfProtection names the two certificate hashes that a clean-slate
// replacement must always whitelist: the daemon's own signing certificate
// and the init process's (spec §4.4).
type SelfProtection struct {
	DaemonCertSHA256 string
	InitCertSHA256   string
}

func (sp SelfProtection) satisfiedBy(rules []Rule) bool {
	haveDaemon, haveInit := sp.DaemonCertSHA256 == "", sp.InitCertSHA256 == ""
	for _, r := range rules {
		if r.Kind != KindCertificate || r.State != StateWhitelist {
			continue
		}
		if r.Hash == sp.DaemonCertSHA256 {
			haveDaemon = true
		}
		if r.Hash == sp.InitCertSHA256 {
			haveInit = true
		}
	}
	return haveDaemon && haveInit
}

// protected reports whether (kind, hash) is one of the two mandatory
// self-protection certificate rules, which can never be removed or
// downgraded from whitelist while the daemon runs (spec §4.4 invariant).
func (sp SelfProtection) protected(k Kind, hash string) bool {
	if k != KindCertificate {
		return false
	}
	return hash == sp.DaemonCertSHA256 || hash == sp.InitCertSHA256
}

// Store is a durable, in-memory-indexed rule table backed by a single
// snapshot file rewritten atomically (temp file + rename) on every
// mutation. Rule lookups are the single hottest read in the decision path,
// so they are served from memory; only mutations touch disk.
type Store struct {
	path string
	self SelfProtection
	log  logger.Logger

	mu    sync.RWMutex
	rules map[ruleKey]Rule
}

// Open loads path if it exists (rebuilding from scratch if it is corrupt,
// per the "open-or-rebuild" invariant) or starts empty. A failure to even
// create the backing directory is fatal (spec §7 "store init failure").
func Open(path string, self SelfProtection, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.ErrStoreInit.Code, "create rule store directory")
	}

	s := &Store{path: path, self: self, log: log, rules: map[ruleKey]Rule{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.ErrStoreInit.Code, "read rule store")
	}

	var snapshot []Rule
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Error("rule store backing file is corrupt, rebuilding empty store", "path", path, "error", err)
		return s, nil
	}
	for _, r := range snapshot {
		s.rules[r.key()] = r
	}
	return s, nil
}

func (s *Store) snapshotLocked() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	return out
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.snapshotLocked(), "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// BinaryRule looks up a binary-kind rule by hash.
func (s *Store) BinaryRule(hash string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleKey{Kind: KindBinary, Hash: hash}]
	return r, ok
}

// CertificateRule looks up a certificate-kind rule by leaf hash.
func (s *Store) CertificateRule(hash string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleKey{Kind: KindCertificate, Hash: hash}]
	return r, ok
}

// Add upserts rules, or — when cleanSlate is true — atomically replaces
// the entire store with them. A clean-slate input lacking either
// self-protection certificate whitelist rule is rejected with no state
// change (spec §4.4).
func (s *Store) Add(incoming []Rule, cleanSlate bool) error {
	if len(incoming) == 0 {
		return apperrors.Wrap(fmt.Errorf("no rules supplied"), apperrors.KindRejected, apperrors.ErrRuleRejected.Code, "empty rule set")
	}
	for _, r := range incoming {
		if err := validateRule(r); err != nil {
			return apperrors.Wrap(err, apperrors.KindRejected, apperrors.ErrRuleRejected.Code, "invalid rule")
		}
	}

	if cleanSlate {
		if !s.self.satisfiedBy(incoming) {
			return apperrors.Wrap(
				fmt.Errorf("clean-slate input missing required self-protection certificate rules"),
				apperrors.KindRejected, apperrors.ErrRuleRejected.Code, "clean slate rejected",
			)
		}
		return s.replaceAll(incoming)
	}

	return s.upsert(incoming)
}

func (s *Store) replaceAll(incoming []Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[ruleKey]Rule, len(incoming))
	for _, r := range incoming {
		if r.State == StateRemove {
			continue
		}
		next[r.key()] = r
	}

	prev := s.rules
	s.rules = next
	if err := s.persistLocked(); err != nil {
		s.rules = prev
		return apperrors.Wrap(err, apperrors.KindRejected, apperrors.ErrRuleRejected.Code, "persist clean slate")
	}
	return nil
}

func (s *Store) upsert(incoming []Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range incoming {
		k := r.key()
		if s.self.protected(k.Kind, k.Hash) {
			cur, exists := s.rules[k]
			downgrading := r.State == StateRemove || (r.State != StateWhitelist)
			if exists && cur.State == StateWhitelist && downgrading {
				return apperrors.Wrap(
					fmt.Errorf("cannot remove or downgrade self-protection certificate rule %s", k.Hash),
					apperrors.KindRejected, apperrors.ErrRuleRejected.Code, "self-protection rule is immutable",
				)
			}
		}
	}

	for _, r := range incoming {
		k := r.key()
		if r.State == StateRemove {
			delete(s.rules, k)
			continue
		}
		s.rules[k] = r
	}

	if err := s.persistLocked(); err != nil {
		return apperrors.Wrap(err, apperrors.KindRejected, apperrors.ErrRuleRejected.Code, "persist rules")
	}
	return nil
}

// RuleCount, BinaryRuleCount, CertificateRuleCount are the store's
// counters (spec §4.4).
func (s *Store) RuleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

func (s *Store) BinaryRuleCount() int { return s.countKind(KindBinary) }

func (s *Store) CertificateRuleCount() int { return s.countKind(KindCertificate) }

func (s *Store) countKind(k Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.rules {
		if key.Kind == k {
			n++
		}
	}
	return n
}
