package rpcsrv

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/stretchr/testify/require"
)

func TestRequireRootRejectsNonRootCaller(t *testing.T) {
	interceptor := requireRoot(testLogger())
	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr:     &net.UnixAddr{Name: "/tmp/santad.sock"},
		AuthInfo: PeerCredAuthInfo{UID: 501},
	})

	called := false
	_, err := interceptor(ctx, &ClearCacheRequest{}, &grpc.UnaryServerInfo{FullMethod: "/x/ClearCache"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return &ClearCacheResponse{}, nil
	})

	require.Error(t, err)
	require.Equal(t, codes.PermissionDenied, status.Code(err))
	require.False(t, called)
}

func TestRequireRootAllowsRootCaller(t *testing.T) {
	interceptor := requireRoot(testLogger())
	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr:     &net.UnixAddr{Name: "/tmp/santad.sock"},
		AuthInfo: PeerCredAuthInfo{UID: 0},
	})

	called := false
	_, err := interceptor(ctx, &ClearCacheRequest{}, &grpc.UnaryServerInfo{FullMethod: "/x/ClearCache"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return &ClearCacheResponse{}, nil
	})

	require.NoError(t, err)
	require.True(t, called)
}

func TestRequireRootRejectsMissingPeerInfo(t *testing.T) {
	interceptor := requireRoot(testLogger())
	_, err := interceptor(context.Background(), &ClearCacheRequest{}, &grpc.UnaryServerInfo{FullMethod: "/x/ClearCache"}, func(ctx context.Context, req interface{}) (interface{}, error) {
		return &ClearCacheResponse{}, nil
	})

	require.Error(t, err)
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}
