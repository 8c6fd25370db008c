package inspector

import (
	"bytes"
	"debug/macho"
	"os"
)

var arMagic = []byte("!<arch>\n")

// cpuName maps a Mach-O CPU type to the names the rule/scope logic keys
// its per-arch map by (spec §4.2: "i386", "x86-64", "ppc", "ppc64", or
// "unknown").
func cpuName(c macho.Cpu) string {
	switch c {
	case macho.Cpu386:
		return "i386"
	case macho.CpuAmd64:
		return "x86-64"
	case macho.CpuPpc:
		return "ppc"
	case macho.CpuPpc64:
		return "ppc64"
	default:
		return "unknown"
	}
}

// loadSlices parses every Mach-O architecture slice in the image: a single
// slice at offset 0 for a thin binary, or one per fat_arch entry for a fat
// binary (spec §4.2).
func (img *Image) loadSlices() map[string]Slice {
	if img.slicesDone {
		return img.slices
	}
	img.slicesDone = true
	img.slices = map[string]Slice{}

	header := img.loadHeader()
	if len(header) < 4 {
		img.probeNonMachoKind(header)
		return img.slices
	}

	f, err := os.Open(img.path)
	if err != nil {
		return img.slices
	}
	defer f.Close()

	if fat, err := macho.NewFatFile(f); err == nil {
		img.isFat = true
		for _, arch := range fat.Arches {
			name := cpuName(arch.Cpu)
			img.slices[name] = Slice{
				CPUName: name,
				Offset:  int64(arch.Offset),
				Header:  arch.File,
			}
		}
		return img.slices
	}

	if _, serr := f.Seek(0, 0); serr == nil {
		if mf, err := macho.NewFile(f); err == nil {
			name := cpuName(mf.Cpu)
			img.slices[name] = Slice{CPUName: name, Offset: 0, Header: mf}
			return img.slices
		}
	}

	img.probeNonMachoKind(header)
	return img.slices
}

func (img *Image) probeNonMachoKind(header []byte) {
	img.kindProbed = true
	switch {
	case bytes.HasPrefix(header, arMagic):
		img.isArchive = true
	case bytes.HasPrefix(header, []byte("#!")):
		img.isScript = true
	}
}

// Slices returns the per-architecture Mach-O slices in this image, keyed
// by CPU name. Empty for a non-Mach-O file.
func (img *Image) Slices() map[string]Slice {
	return img.loadSlices()
}

// IsExecutable reports whether any slice is a Mach-O executable.
func (img *Image) IsExecutable() bool {
	for _, s := range img.loadSlices() {
		if s.Header != nil && s.Header.Type == macho.TypeExec {
			return true
		}
	}
	return false
}

// IsDylib reports whether any slice is a dynamic library.
func (img *Image) IsDylib() bool {
	for _, s := range img.loadSlices() {
		if s.Header != nil && s.Header.Type == macho.TypeDylib {
			return true
		}
	}
	return false
}

// IsMachO reports whether this image is Mach-O at all (thin or fat).
func (img *Image) IsMachO() bool {
	return len(img.loadSlices()) > 0
}

// IsFat reports whether the image is a fat (universal) binary.
func (img *Image) IsFat() bool {
	img.loadSlices()
	return img.isFat
}

// IsScript reports a shebang-prefixed interpreted script.
func (img *Image) IsScript() bool {
	img.loadSlices()
	return img.isScript
}

// IsArchive reports a static-library "ar" archive.
func (img *Image) IsArchive() bool {
	img.loadSlices()
	return img.isArchive
}

// HasMissingPageZero implements spec §4.2's is_missing_pagezero: true iff
// the file is Mach-O, contains an i386 EXECUTE slice, and that slice's
// first load command is not a valid __PAGEZERO segment. The 64-bit ABI
// enforces PAGEZERO in the kernel, so only the i386 case is checked here.
func (img *Image) HasMissingPageZero() bool {
	slices := img.loadSlices()
	i386, ok := slices["i386"]
	if !ok || i386.Header == nil || i386.Header.Type != macho.TypeExec {
		return false
	}
	if len(i386.Header.Loads) == 0 {
		return true
	}
	seg, ok := i386.Header.Loads[0].(*macho.Segment)
	if !ok {
		return true
	}
	if seg.Name != "__PAGEZERO" {
		return true
	}
	if seg.Addr != 0 || seg.Memsz == 0 || seg.Prot != 0 || seg.Maxprot != 0 {
		return true
	}
	return false
}
