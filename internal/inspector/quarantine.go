package inspector

import (
	"strconv"
	"strings"
)

// Quarantine holds the best-effort macOS quarantine extended-attribute
// fields (spec §4.2). Any field may be empty/zero when unavailable.
type Quarantine struct {
	DataURL      string
	RefererURL   string
	AgentBundleID string
	Timestamp    int64
}

// QuarantineMetadata reads com.apple.quarantine off the resolved file.
// Every failure mode (no xattr support on this platform, attribute absent,
// malformed value) degrades to a zero Quarantine rather than an error —
// the field is explicitly best-effort.
func (img *Image) QuarantineMetadata() Quarantine {
	raw, ok := getQuarantineXattr(img.path)
	if !ok {
		return Quarantine{}
	}
	return parseQuarantineAttr(raw)
}

// parseQuarantineAttr decodes the com.apple.quarantine value, which is
// semicolon-separated: "<flags>;<timestamp-hex>;<agent>;<event-id>" with the
// event UUID optionally resolving to a LaunchServices record carrying the
// data/referer URLs. Only the fields directly present in the attribute
// itself are extracted here; the LaunchServices lookup is a platform
// integration point out of scope for this daemon (spec §1).
func parseQuarantineAttr(raw string) Quarantine {
	parts := strings.Split(raw, ";")
	q := Quarantine{}
	if len(parts) > 1 {
		if ts, err := strconv.ParseInt(parts[1], 16, 64); err == nil {
			q.Timestamp = ts
		}
	}
	if len(parts) > 2 {
		q.AgentBundleID = parts[2]
	}
	return q
}
