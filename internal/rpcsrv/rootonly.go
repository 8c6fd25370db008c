package rpcsrv

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/lomehong/santad/pkg/logger"
)

// requireRoot enforces spec §6's "callers must be root" on every
// rule-management RPC, reading the uid newUnixPeerCredCredentials
// attached to the connection.
func requireRoot(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		p, ok := peer.FromContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "no peer credentials")
		}
		cred, ok := p.AuthInfo.(PeerCredAuthInfo)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "no peer credentials")
		}
		if cred.UID != 0 {
			log.Warn("rejected non-root rule-management caller", "method", info.FullMethod, "uid", cred.UID)
			return nil, status.Error(codes.PermissionDenied, "caller must be root")
		}
		return handler(ctx, req)
	}
}
