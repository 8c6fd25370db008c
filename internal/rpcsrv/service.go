package rpcsrv

import (
	"context"

	"github.com/lomehong/santad/internal/cache"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/lomehong/santad/internal/rules"
	"github.com/lomehong/santad/pkg/logger"
)

// Service implements the rule-management channel (spec §6) against the
// same concrete store/cache handles the policy engine holds, plus the
// kernel transport for the two operations that must also reach the
// kernel-resident cache (spec §4.1c).
type Service struct {
	Rules  *rules.Store
	Cache  *cache.Cache
	Kernel kernel.Transport
	Log    logger.Logger
}

func (s *Service) AddRules(ctx context.Context, req *AddRulesRequest) (*AddRulesResponse, error) {
	if err := s.Rules.Add(req.Rules, req.CleanSlate); err != nil {
		return nil, err
	}
	return &AddRulesResponse{}, nil
}

func (s *Service) ClearCache(ctx context.Context, req *ClearCacheRequest) (*ClearCacheResponse, error) {
	s.Cache.Clear()
	if s.Kernel != nil {
		if err := s.Kernel.ClearCache(); err != nil {
			s.Log.Warn("kernel cache clear failed", "error", err)
		}
	}
	return &ClearCacheResponse{Generation: s.Cache.Generation()}, nil
}

func (s *Service) CacheCount(ctx context.Context, req *CacheCountRequest) (*CacheCountResponse, error) {
	count := s.Cache.Count()
	if s.Kernel != nil {
		if n, err := s.Kernel.CacheCount(); err == nil {
			count = int(n)
		} else {
			s.Log.Warn("kernel cache count failed, reporting decision cache count", "error", err)
		}
	}
	return &CacheCountResponse{Count: count, Generation: s.Cache.Generation()}, nil
}

func (s *Service) FetchBinaryRule(ctx context.Context, req *FetchBinaryRuleRequest) (*FetchRuleResponse, error) {
	r, ok := s.Rules.BinaryRule(req.SHA256)
	return &FetchRuleResponse{Found: ok, Rule: r}, nil
}

func (s *Service) FetchCertificateRule(ctx context.Context, req *FetchCertificateRuleRequest) (*FetchRuleResponse, error) {
	r, ok := s.Rules.CertificateRule(req.SHA256)
	return &FetchRuleResponse{Found: ok, Rule: r}, nil
}
