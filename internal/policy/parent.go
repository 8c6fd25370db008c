package policy

import "github.com/shirou/gopsutil/v3/process"

// GopsutilParentName resolves a pid's process name via gopsutil, the
// production ParentNameResolver (spec §4.5 step 2: capture before the
// parent can exit).
type GopsutilParentName struct{}

func (GopsutilParentName) Name(pid int32) (string, error) {
	if pid <= 0 {
		return "", nil
	}
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}
