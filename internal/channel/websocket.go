package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worship-presenter/internal/models"
)

// Socket timing defaults shared with the server side.
const (
	DefaultWriteWait       = 10 * time.Second
	DefaultPongWait        = 60 * time.Second
	DefaultMaxMessageBytes = 1 << 20
	DefaultSendBuffer      = 256
)

// DialOptions tunes a socket channel. Zero values take the defaults above.
type DialOptions struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	Header          http.Header
	Logger          *slog.Logger
}

func (o DialOptions) withDefaults() DialOptions {
	if o.WriteWait <= 0 {
		o.WriteWait = DefaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = DefaultPongWait
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// SocketURL builds the websocket address of channel name on an http(s) or
// ws(s) base URL.
func SocketURL(baseURL, name string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(name)
	return u.String(), nil
}

// Socket is a Channel carried over a websocket connection to the relay
// server. The server fans messages out to the other members of the channel.
type Socket struct {
	conn *websocket.Conn
	opts DialOptions
	log  *slog.Logger

	send chan models.SyncMessage
	done chan struct{}

	mu     sync.Mutex
	closed bool
	subs   subscribers

	closeOnce sync.Once
}

// Dial connects to channel name on the server at baseURL.
func Dial(ctx context.Context, baseURL, name string, opts DialOptions) (*Socket, error) {
	opts = opts.withDefaults()
	target, err := SocketURL(baseURL, name)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}

	s := &Socket{
		conn: conn,
		opts: opts,
		log:  opts.Logger.With("channel", name),
		send: make(chan models.SyncMessage, opts.SendBuffer),
		done: make(chan struct{}),
	}
	go s.writePump()
	go s.readPump()
	return s, nil
}

// Send queues msg for the server. A full buffer or a lost connection drops
// the message.
func (s *Socket) Send(msg models.SyncMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- msg:
	default:
		s.log.Debug("send buffer full, dropping message", "type", msg.Type)
	}
}

func (s *Socket) Subscribe(fn func(models.SyncMessage)) func() {
	s.mu.Lock()
	id := s.subs.add(fn)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.subs.remove(id)
			s.mu.Unlock()
		})
	}
}

// Done is closed once the connection is gone, by Close or by the peer.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) Close() error {
	s.shutdown()
	return nil
}

func (s *Socket) shutdown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(s.opts.WriteWait))
		_ = s.conn.Close()
	})
}

func (s *Socket) readPump() {
	defer s.shutdown()

	s.conn.SetReadLimit(s.opts.MaxMessageBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("connection lost", "error", err)
			}
			return
		}

		var msg models.SyncMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			s.log.Debug("ignoring malformed message", "bytes", len(data))
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		fns := s.subs.snapshot()
		s.mu.Unlock()

		for _, fn := range fns {
			fn(msg)
		}
	}
}

func (s *Socket) writePump() {
	ticker := time.NewTicker(s.opts.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Debug("write failed", "error", err)
				s.shutdown()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.shutdown()
				return
			}
		}
	}
}
