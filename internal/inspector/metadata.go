package inspector

import "debug/macho"

// infoPlist returns the decoded Info.plist for this image: first tries the
// embedded __info_plist section of the first slice (size-capped per spec
// §4.2), then falls back to the enclosing bundle's Info.plist on disk.
func (img *Image) infoPlist() map[string]any {
	if img.plistDone {
		return img.plist
	}
	img.plistDone = true

	if data, ok := img.embeddedInfoPlist(); ok {
		if p, err := parsePlist(data); err == nil {
			img.plist = p
			return img.plist
		}
	}
	if data, ok := img.enclosingBundleInfoPlist(); ok {
		if p, err := parsePlist(data); err == nil {
			img.plist = p
			return img.plist
		}
	}
	return nil
}

func (img *Image) embeddedInfoPlist() ([]byte, bool) {
	header := img.firstSliceHeader()
	if header == nil {
		return nil, false
	}

	sect := header.Section("__info_plist")
	if sect == nil {
		return nil, false
	}
	if sect.Size >= maxInfoPlist {
		return nil, false
	}
	data, err := sect.Data()
	if err != nil {
		return nil, false
	}
	return data, true
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// BundleIdentifier returns Info.plist's CFBundleIdentifier, if available.
func (img *Image) BundleIdentifier() string { return stringField(img.infoPlist(), "CFBundleIdentifier") }

// BundleName returns Info.plist's CFBundleName, if available.
func (img *Image) BundleName() string { return stringField(img.infoPlist(), "CFBundleName") }

// BundleVersion returns Info.plist's CFBundleVersion, if available.
func (img *Image) BundleVersion() string { return stringField(img.infoPlist(), "CFBundleVersion") }

// BundleShortVersion returns Info.plist's CFBundleShortVersionString, if
// available.
func (img *Image) BundleShortVersion() string {
	return stringField(img.infoPlist(), "CFBundleShortVersionString")
}

// firstSliceHeader is a small helper for callers (embeddedInfoPlist) that
// need the Mach-O header without pulling in the whole Slices() map.
func (img *Image) firstSliceHeader() *macho.File {
	slices := img.loadSlices()
	var first Slice
	found := false
	for _, s := range slices {
		if !found || s.Offset < first.Offset {
			first = s
			found = true
		}
	}
	if !found {
		return nil
	}
	return first.Header
}
