package config

import (
	"os"
	"os/user"
	"strconv"

	"github.com/lomehong/santad/pkg/logger"
)

// reapplyOwnershipAndMode pins the config file to root:wheel 0644 after
// every reload, independent of how the file got there (spec §6). Both
// chown and chmod are best-effort: a daemon running unprivileged in a
// test or dev environment must not fail a reload because it cannot chown.
func reapplyOwnershipAndMode(path string, log logger.Logger) {
	if err := os.Chmod(path, 0o644); err != nil {
		log.Warn("failed to reset config file mode", "path", path, "error", err)
	}

	gid := 0
	if grp, err := user.LookupGroup("wheel"); err == nil {
		if n, err := strconv.Atoi(grp.Gid); err == nil {
			gid = n
		}
	}
	if err := os.Chown(path, 0, gid); err != nil {
		log.Debug("failed to reset config file ownership (requires root)", "path", path, "error", err)
	}
}
