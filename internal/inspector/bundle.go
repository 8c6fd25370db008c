package inspector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveBundleMainExecutable rewrites a path that resolves to a bundle
// directory (a .app/.bundle/.framework/.kext directory with a
// Contents/Info.plist) to that bundle's main
// executable, discovered via the CFBundleExecutable key and then looked up
// under Contents/MacOS/<name> (spec §4.2).
func resolveBundleMainExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	bundleRoot := findBundleRoot(path)
	if bundleRoot == "" {
		return "", fmt.Errorf("%s is a directory and not a recognizable bundle", path)
	}

	plistPath := filepath.Join(bundleRoot, "Contents", "Info.plist")
	data, err := os.ReadFile(plistPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", plistPath, err)
	}
	plist, err := parsePlist(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", plistPath, err)
	}
	execName, _ := plist["CFBundleExecutable"].(string)
	if execName == "" {
		return "", fmt.Errorf("%s has no CFBundleExecutable", plistPath)
	}

	execPath := filepath.Join(bundleRoot, "Contents", "MacOS", execName)
	if _, err := os.Stat(execPath); err != nil {
		return "", fmt.Errorf("bundle main executable %s: %w", execPath, err)
	}
	return execPath, nil
}

// findBundleRoot walks up from path looking for a directory whose name
// ends in a known bundle suffix and that contains Contents/Info.plist. If
// path itself is a bundle root, it is returned unchanged.
func findBundleRoot(path string) string {
	candidate := path
	for i := 0; i < 8; i++ {
		if looksLikeBundle(candidate) {
			return candidate
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			break
		}
		candidate = parent
	}
	return ""
}

func looksLikeBundle(path string) bool {
	base := filepath.Base(path)
	suffixed := strings.HasSuffix(base, ".app") || strings.HasSuffix(base, ".bundle") ||
		strings.HasSuffix(base, ".framework") || strings.HasSuffix(base, ".kext")
	if !suffixed {
		return false
	}
	_, err := os.Stat(filepath.Join(path, "Contents", "Info.plist"))
	return err == nil
}

// enclosingBundleInfoPlist returns the Info.plist bytes of the bundle that
// contains img.path, if any — the fallback path for embedded-plist lookup
// (spec §4.2).
func (img *Image) enclosingBundleInfoPlist() ([]byte, bool) {
	root := findBundleRoot(filepath.Dir(filepath.Dir(img.path))) // .../Contents/MacOS/bin -> bundle root
	if root == "" {
		root = findBundleRoot(filepath.Dir(img.path))
	}
	if root == "" {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(root, "Contents", "Info.plist"))
	if err != nil {
		return nil, false
	}
	return data, true
}
