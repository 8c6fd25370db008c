//go:build linux

package rpcsrv

import (
	"net"

	"golang.org/x/sys/unix"
)

func peerCredentials(conn *net.UnixConn) (uid, gid uint32, pid int32, err error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, 0, 0, err
	}

	var ucred *unix.Ucred
	var sockErr error
	if ctrlErr := raw.Control(func(fd uintptr) {
		ucred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); ctrlErr != nil {
		return 0, 0, 0, ctrlErr
	}
	if sockErr != nil {
		return 0, 0, 0, sockErr
	}
	return ucred.Uid, ucred.Gid, ucred.Pid, nil
}
