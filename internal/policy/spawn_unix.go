//go:build !windows

package policy

import (
	"context"
	"os/exec"
	"syscall"
)

func (s *UnprivilegedSpawner) run(ctx context.Context, path string, args ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: s.UID, Gid: s.GID},
	}
	return cmd.Start()
}
