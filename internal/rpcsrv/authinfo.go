package rpcsrv

// PeerCredAuthInfo carries the connecting process's credentials, read off
// the Unix domain socket at accept time (spec §6: "callers must be root").
type PeerCredAuthInfo struct {
	UID uint32
	GID uint32
	PID int32
}

func (PeerCredAuthInfo) AuthType() string { return "unixpeercred" }
