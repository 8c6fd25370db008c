package rpcsrv

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lomehong/santad/internal/rules"
)

// Client is a thin typed wrapper over a connection to Server, used by
// cmd/santactl (spec §6's one named caller).
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon's rule-management socket. Callers should
// pass a ctx with a deadline; Dial blocks until connected or ctx expires.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	conn, err := grpc.DialContext(ctx, "unix",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		}),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("dial rule-management socket %s: %w", socketPath, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) AddRules(ctx context.Context, rs []rules.Rule, cleanSlate bool) error {
	var resp AddRulesResponse
	return c.conn.Invoke(ctx, "/"+serviceName+"/AddRules", &AddRulesRequest{Rules: rs, CleanSlate: cleanSlate}, &resp)
}

func (c *Client) ClearCache(ctx context.Context) (uint64, error) {
	var resp ClearCacheResponse
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/ClearCache", &ClearCacheRequest{}, &resp); err != nil {
		return 0, err
	}
	return resp.Generation, nil
}

func (c *Client) CacheCount(ctx context.Context) (int, error) {
	var resp CacheCountResponse
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/CacheCount", &CacheCountRequest{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) FetchBinaryRule(ctx context.Context, sha256 string) (rules.Rule, bool, error) {
	var resp FetchRuleResponse
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/FetchBinaryRule", &FetchBinaryRuleRequest{SHA256: sha256}, &resp); err != nil {
		return rules.Rule{}, false, err
	}
	return resp.Rule, resp.Found, nil
}

func (c *Client) FetchCertificateRule(ctx context.Context, sha256 string) (rules.Rule, bool, error) {
	var resp FetchRuleResponse
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/FetchCertificateRule", &FetchCertificateRuleRequest{SHA256: sha256}, &resp); err != nil {
		return rules.Rule{}, false, err
	}
	return resp.Rule, resp.Found, nil
}

func (c *Client) Close() error { return c.conn.Close() }
