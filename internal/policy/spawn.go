package policy

import (
	"context"
	"time"
)

const spawnTimeout = 10 * time.Second

// UnprivilegedSpawner runs the admin tool as a child process dropped to an
// unprivileged uid/gid (spec §4.5 step 8: "spawn the admin tool as an
// unprivileged child"). The actual credential drop is platform-specific;
// see spawn_unix.go / spawn_other.go.
type UnprivilegedSpawner struct {
	UID uint32
	GID uint32
}

// NewUnprivilegedSpawner defaults the uid and the gid each to the
// traditional "nobody" id 65534 when it is passed as 0.
func NewUnprivilegedSpawner(uid, gid uint32) *UnprivilegedSpawner {
	if uid == 0 {
		uid = 65534
	}
	if gid == 0 {
		gid = 65534
	}
	return &UnprivilegedSpawner{UID: uid, GID: gid}
}

func (s *UnprivilegedSpawner) SpawnSyncSingleEvent(adminToolPath, sha256 string) error {
	ctx, cancel := context.WithTimeout(context.Background(), spawnTimeout)
	if err := s.run(ctx, adminToolPath, "sync", "singleevent", sha256); err != nil {
		cancel()
		return err
	}
	// The child outlives this call; cancelling ctx kills it, so that
	// happens only once spawnTimeout has passed.
	time.AfterFunc(spawnTimeout, cancel)
	return nil
}
