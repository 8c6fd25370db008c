package rules

import "github.com/Masterminds/semver/v3"

// NormalizeVersion canonicalizes a CFBundleShortVersionString-style value
// to strict semver form for diagnostic display in stored-event metadata.
// It never affects rule matching, which is keyed on hash
// alone; a value that isn't valid semver is returned unchanged rather than
// dropped.
func NormalizeVersion(raw string) string {
	if raw == "" {
		return raw
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return raw
	}
	return v.String()
}
