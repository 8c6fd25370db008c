package kernel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// wireMessage is the exact on-the-wire layout: six fixed-width scalar
// fields (with 4 bytes of padding after Action) followed by two
// fixed-capacity, NUL-padded byte arrays. This
// mirrors the kernel struct byte-for-byte so the real transport (a
// character device opened by the platform glue, out of scope here per
// spec §1) can decode it with a single binary.Read.
type wireMessage struct {
	Action  int32
	_       int32 // alignment padding to keep VnodeID 8-byte aligned
	VnodeID uint64
	UID     uint32
	GID     uint32
	PID     int32
	PPID    int32
	Path    [MaxPathLen]byte
	NewPath [MaxPathLen]byte
}

const wireMessageSize = 4 + 4 + 8 + 4 + 4 + 4 + 4 + MaxPathLen + MaxPathLen

// DecodeMessage reads exactly one fixed-layout record from r.
func DecodeMessage(r io.Reader) (Message, error) {
	var w wireMessage
	if err := binary.Read(r, binary.LittleEndian, &w); err != nil {
		return Message{}, fmt.Errorf("decode kernel message: %w", err)
	}
	return Message{
		Action:  Action(w.Action),
		VnodeID: w.VnodeID,
		UID:     w.UID,
		GID:     w.GID,
		PID:     w.PID,
		PPID:    w.PPID,
		Path:    cStringFrom(w.Path[:]),
		NewPath: cStringFrom(w.NewPath[:]),
	}, nil
}

// EncodeMessage writes m in the fixed wire layout. Used by the socket
// transport to post verdicts and by the wire codec tests.
func EncodeMessage(w io.Writer, m Message) error {
	var wm wireMessage
	wm.Action = int32(m.Action)
	wm.VnodeID = m.VnodeID
	wm.UID = m.UID
	wm.GID = m.GID
	wm.PID = m.PID
	wm.PPID = m.PPID
	if err := cStringInto(wm.Path[:], m.Path); err != nil {
		return err
	}
	if err := cStringInto(wm.NewPath[:], m.NewPath); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, &wm)
}

func cStringFrom(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func cStringInto(dst []byte, s string) error {
	if len(s) >= len(dst) {
		return fmt.Errorf("path %q exceeds MAXPATHLEN", s)
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
	return nil
}
