//go:build windows

package policy

import (
	"context"
	"os/exec"
)

// Windows has no uid/gid credential model matching this spec's intent;
// the child simply inherits the daemon's own privilege level.
func (s *UnprivilegedSpawner) run(ctx context.Context, path string, args ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	return cmd.Start()
}
