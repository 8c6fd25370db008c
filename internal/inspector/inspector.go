// Package inspector implements the Executable Inspector: hashing,
// executable-header parsing, and embedded metadata extraction for a single
// file (spec §4.2). All parsing is read-only and lazy — nothing is computed
// until the corresponding accessor is called, and everything computed is
// cached on the Image for the lifetime of the request.
package inspector

import (
	"bufio"
	"crypto/sha1" //nolint:gosec // sha1 is part of the wire contract (legacy leaf hash comparisons), not used for security decisions here
	"crypto/sha256"
	"debug/macho"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	headerPeekSize = 4096
	chunkSize      = 4096
	maxInfoPlist   = 2 * 1024 * 1024 // 2 MiB, spec §4.2
)

// Slice describes one Mach-O architecture slice within the image.
type Slice struct {
	CPUName string
	Offset  int64
	Header  *macho.File
}

// Image is a lazy, read-only view over a single resolved file path.
type Image struct {
	path string
	size int64

	header       []byte
	headerLoaded bool

	slices     map[string]Slice
	slicesDone bool

	isFat      bool
	isArchive  bool
	isScript   bool
	kindProbed bool

	sha256 string
	sha1   string

	plist     map[string]any
	plistDone bool
}

// New resolves path to its final file: symlinks are followed, relative
// paths are made absolute, and a bundle directory is rewritten to its main
// executable (spec §4.2). It fails if resolution yields nothing or the
// resolved file is empty.
func New(path string) (*Image, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve symlinks: %w", err)
	}

	resolved, err = resolveBundleMainExecutable(resolved)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s resolved to a directory", resolved)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s has zero size", resolved)
	}

	return &Image{path: resolved, size: info.Size()}, nil
}

// Path returns the fully resolved path this image was built from.
func (img *Image) Path() string { return img.path }

// Size returns the total file size in bytes.
func (img *Image) Size() int64 { return img.size }

// boundedRead never reads past end-of-file and never panics; it is the
// single chokepoint all byte-range access in this package goes through
// (spec §4.2 "a single bounded-range reader").
func (img *Image) boundedRead(offset int64, n int) ([]byte, error) {
	f, err := os.Open(img.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if offset >= img.size {
		return nil, nil
	}
	if offset+int64(n) > img.size {
		n = int(img.size - offset)
	}
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func (img *Image) loadHeader() []byte {
	if img.headerLoaded {
		return img.header
	}
	img.headerLoaded = true
	buf, err := img.boundedRead(0, headerPeekSize)
	if err != nil {
		img.header = nil
		return nil
	}
	img.header = buf
	return buf
}

// SHA256 streams the file in 4 KiB chunks. A truncated file during the read
// surfaces as an error rather than a fault (spec §4.2).
func (img *Image) SHA256() (string, error) {
	if img.sha256 != "" {
		return img.sha256, nil
	}
	h := sha256.New()
	if err := img.stream(h); err != nil {
		return "", err
	}
	img.sha256 = hex.EncodeToString(h.Sum(nil))
	return img.sha256, nil
}

// SHA1 streams the file the same way, for certificate/leaf comparisons
// that still carry a legacy sha1 identifier.
func (img *Image) SHA1() (string, error) {
	if img.sha1 != "" {
		return img.sha1, nil
	}
	h := sha1.New() //nolint:gosec
	if err := img.stream(h); err != nil {
		return "", err
	}
	img.sha1 = hex.EncodeToString(h.Sum(nil))
	return img.sha1, nil
}

func (img *Image) stream(w io.Writer) error {
	f, err := os.Open(img.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", img.path, err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	r := bufio.NewReaderSize(f, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", img.path, err)
		}
	}
}
