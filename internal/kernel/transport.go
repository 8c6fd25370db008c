package kernel

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/lomehong/santad/pkg/apperrors"
	"github.com/lomehong/santad/pkg/logger"
)

// Transport is the capability contract for the kernel authorization
// endpoint (spec §4.1, §9 "from dynamic dispatch to explicit contracts").
type Transport interface {
	// Messages returns a channel of decoded kernel messages. The channel
	// is closed when the transport is closed or the connection drops.
	Messages() <-chan Message
	// PostVerdict posts a verdict for vnodeID. May be called concurrently
	// and out of order relative to Messages().
	PostVerdict(vnodeID uint64, v Verdict) error
	// ClearCache asks the kernel to drop its own authorization cache.
	ClearCache() error
	// CacheCount returns the kernel-side cache entry count.
	CacheCount() (uint64, error)
	Close() error
}

// socketTransport implements Transport over a Unix domain socket to the
// platform glue that bridges the real kernel endpoint (out of scope per
// spec §1 — "the kernel authorization hook itself ... external"). The
// wire framing is the fixed-layout record from wire.go.
type socketTransport struct {
	conn net.Conn
	log  logger.Logger

	msgs chan Message

	writeMu sync.Mutex
}

// Dial opens the user-client connection. Per spec §4.1 / §7, the absence
// of the endpoint is fatal at startup.
func Dial(ctx context.Context, socketPath string, log logger.Logger) (Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.ErrKernelAbsent.Code, fmt.Sprintf("dial %s", socketPath))
	}

	t := &socketTransport{
		conn: conn,
		log:  log,
		msgs: make(chan Message, 64),
	}
	go t.receiveLoop()
	return t, nil
}

func (t *socketTransport) receiveLoop() {
	defer close(t.msgs)
	for {
		msg, err := DecodeMessage(t.conn)
		if err != nil {
			if err != io.EOF {
				t.log.Error("kernel transport read failed", "error", err)
			}
			return
		}
		t.msgs <- msg
	}
}

func (t *socketTransport) Messages() <-chan Message {
	return t.msgs
}

func (t *socketTransport) PostVerdict(vnodeID uint64, v Verdict) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return EncodeMessage(t.conn, Message{Action: v.Action(), VnodeID: vnodeID})
}

// Cache-management control bytes. These ride the same connection as the
// message stream but are out-of-band (single byte, ack-only), since the
// kernel's cache-management methods (spec §4.1c) are separate user-client
// calls on the real platform, not queue messages.
const (
	ctrlClearCache byte = 1
	ctrlCacheCount byte = 2
)

func (t *socketTransport) ClearCache() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.conn.Write([]byte{ctrlClearCache}); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	var ack [1]byte
	_, err := io.ReadFull(t.conn, ack[:])
	return err
}

func (t *socketTransport) CacheCount() (uint64, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.conn.Write([]byte{ctrlCacheCount}); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	var buf [8]byte
	if _, err := io.ReadFull(t.conn, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (t *socketTransport) Close() error {
	return t.conn.Close()
}
