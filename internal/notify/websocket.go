package notify

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lomehong/santad/pkg/logger"
)

const (
	defaultQueueSize  = 256
	dialRetryInterval = 5 * time.Second
	writeTimeout      = 2 * time.Second
)

// WebSocketChannel pushes notifications to a local GUI agent over a
// websocket connection, reconnecting in the background. Notify never
// blocks: the queue is a buffered channel drained by a single writer
// goroutine, and a full queue drops the incoming notification rather than stall
// the decision path that called Notify.
type WebSocketChannel struct {
	url    string
	log    logger.Logger
	queue  chan Notification
	done   chan struct{}
}

// NewWebSocketChannel starts the background writer and returns
// immediately; the GUI agent need not be up yet.
func NewWebSocketChannel(url string, log logger.Logger) *WebSocketChannel {
	c := &WebSocketChannel{
		url:   url,
		log:   log,
		queue: make(chan Notification, defaultQueueSize),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *WebSocketChannel) Notify(n Notification) {
	select {
	case c.queue <- n:
	default:
		c.log.Warn("notification queue full, dropping block notification", "path", n.Path)
	}
}

func (c *WebSocketChannel) Close() {
	close(c.done)
}

func (c *WebSocketChannel) run() {
	var conn *websocket.Conn
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-c.done:
			return
		case n := <-c.queue:
			var err error
			conn, err = c.ensureConn(conn)
			if err != nil {
				c.log.Warn("GUI notification channel unreachable, dropping notification", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			data, _ := json.Marshal(n)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warn("failed to send GUI notification", "error", err)
				conn.Close()
				conn = nil
			}
		}
	}
}

func (c *WebSocketChannel) ensureConn(conn *websocket.Conn) (*websocket.Conn, error) {
	if conn != nil {
		return conn, nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: dialRetryInterval}
	conn, _, err := dialer.Dial(c.url, http.Header{})
	return conn, err
}
