package rpcsrv

import "github.com/lomehong/santad/internal/rules"

// Request/response pairs for the rule-management channel (spec §6):
// add_rules, clear_cache, cache_count, fetch_binary_rule,
// fetch_certificate_rule.

type AddRulesRequest struct {
	Rules      []rules.Rule `json:"rules"`
	CleanSlate bool         `json:"clean_slate"`
}

type AddRulesResponse struct{}

type ClearCacheRequest struct{}

type ClearCacheResponse struct {
	Generation uint64 `json:"generation"`
}

type CacheCountRequest struct{}

type CacheCountResponse struct {
	Count      int    `json:"count"`
	Generation uint64 `json:"generation"`
}

type FetchBinaryRuleRequest struct {
	SHA256 string `json:"sha256"`
}

type FetchCertificateRuleRequest struct {
	SHA256 string `json:"sha256"`
}

type FetchRuleResponse struct {
	Found bool       `json:"found"`
	Rule  rules.Rule `json:"rule"`
}
