package rpcsrv

import (
	"fmt"
	"net"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/lomehong/santad/pkg/logger"
)

// Server hosts the rule-management gRPC surface over a local Unix socket,
// keepalive-tuned the way the teacher's plugin gRPC communication layer
// tunes its TCP listener.
type Server struct {
	SocketPath string
	Service    *Service
	Log        logger.Logger

	server *grpc.Server
}

// Start removes any stale socket file, listens, and serves in the
// background.
func (s *Server) Start() error {
	if err := os.RemoveAll(s.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	lis, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.SocketPath, err)
	}
	if err := os.Chmod(s.SocketPath, 0o600); err != nil {
		lis.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.server = grpc.NewServer(
		grpc.Creds(newUnixPeerCredCredentials()),
		grpc.UnaryInterceptor(requireRoot(s.Log)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
		}),
	)
	RegisterRuleManagementServer(s.server, s.Service)
	reflection.Register(s.server)

	s.Log.Info("rule-management RPC surface listening", "socket", s.SocketPath)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			s.Log.Error("rule-management RPC server stopped", "error", err)
		}
	}()
	return nil
}

// Stop gracefully drains in-flight calls before returning.
func (s *Server) Stop() {
	if s.server != nil {
		s.server.GracefulStop()
	}
}
