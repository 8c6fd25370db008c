//go:build !darwin

package inspector

// getQuarantineXattr has no equivalent outside Darwin; quarantine metadata
// is always absent there, which is within the "best-effort" contract.
func getQuarantineXattr(path string) (string, bool) {
	return "", false
}
