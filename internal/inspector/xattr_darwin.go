//go:build darwin

package inspector

import "golang.org/x/sys/unix"

func getQuarantineXattr(path string) (string, bool) {
	size, err := unix.Getxattr(path, "com.apple.quarantine", nil)
	if err != nil || size <= 0 {
		return "", false
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, "com.apple.quarantine", buf)
	if err != nil {
		return "", false
	}
	return string(buf[:n]), true
}
