//go:build darwin

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

	var xucred *unix.Xucred
	var sockErr error
	if ctrlErr := raw.Control(func(fd uintptr) {
		xucred, sockErr = unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	}); ctrlErr != nil {
		return 0, 0, 0, ctrlErr
	}
	if sockErr != nil {
		return 0, 0, 0, sockErr
	}

	gid = uint32(0)
	if xucred.Ngroups > 0 {
		gid = xucred.Groups[0]
	}
	// LOCAL_PEERCRED carries no pid; the admin tool's uid alone is
	// sufficient for the root check (spec §6).
	return xucred.Uid, gid, 0, nil
}
