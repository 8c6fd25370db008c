package rpcsrv

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc/credentials"
)

// unixPeerCredCredentials stands in for TLS: instead of certificates, it
// reads SO_PEERCRED (Linux) / LOCAL_PEERCRED (Darwin) off the accepted
// socket, giving the root-only interceptor something to check without any
// certificate infrastructure on a connection that never leaves the host.
type unixPeerCredCredentials struct{}

func newUnixPeerCredCredentials() credentials.TransportCredentials {
	return unixPeerCredCredentials{}
}

func (unixPeerCredCredentials) ClientHandshake(_ context.Context, _ string, conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	return conn, PeerCredAuthInfo{}, nil
}

func (unixPeerCredCredentials) ServerHandshake(conn net.Conn) (net.Conn, credentials.AuthInfo, error) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, nil, fmt.Errorf("rpcsrv: expected a unix socket connection, got %T", conn)
	}
	uid, gid, pid, err := peerCredentials(uc)
	if err != nil {
		return nil, nil, fmt.Errorf("rpcsrv: read peer credentials: %w", err)
	}
	return conn, PeerCredAuthInfo{UID: uid, GID: gid, PID: pid}, nil
}

func (unixPeerCredCredentials) Info() credentials.ProtocolInfo {
	return credentials.ProtocolInfo{SecurityProtocol: "unixpeercred"}
}

func (c unixPeerCredCredentials) Clone() credentials.TransportCredentials { return c }

func (unixPeerCredCredentials) OverrideServerName(string) error { return nil }
