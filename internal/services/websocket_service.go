package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/models"
)

// SocketOptions tunes client connections.
type SocketOptions struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
	SendBuffer      int
}

func (o SocketOptions) withDefaults() SocketOptions {
	if o.WriteWait <= 0 {
		o.WriteWait = channel.DefaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = channel.DefaultPongWait
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = channel.DefaultMaxMessageBytes
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = channel.DefaultSendBuffer
	}
	return o
}

// Client is one websocket connection joined to a named channel.
type Client struct {
	ID      string
	Channel string

	conn    *websocket.Conn
	handle  channel.Channel
	service *WebSocketService

	mu     sync.Mutex
	closed bool
	send   chan models.SyncMessage
}

// enqueue hands msg to the write pump; a slow client loses messages rather
// than stalling the channel.
func (c *Client) enqueue(msg models.SyncMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.service.log.Warn("client send buffer full, dropping message",
			"client", c.ID, "channel", c.Channel, "type", msg.Type)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ChannelStats describes one active channel.
type ChannelStats struct {
	Name    string `json:"name"`
	Clients int    `json:"clients"`
	Members int    `json:"members"`
}

// WebSocketService relays websocket clients onto the channel bus. Each
// client gets its own bus handle, so fan-out and ordering follow the bus.
type WebSocketService struct {
	bus  *channel.Bus
	log  *slog.Logger
	opts SocketOptions

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}
	counts  map[string]int
}

// NewWebSocketService creates a relay over bus
func NewWebSocketService(bus *channel.Bus, opts SocketOptions, logger *slog.Logger) *WebSocketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketService{
		bus:        bus,
		log:        logger,
		opts:       opts.withDefaults(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		counts:     make(map[string]int),
	}
}

// Run processes client registration until ctx is cancelled, then
// disconnects every client.
func (s *WebSocketService) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case c := <-s.register:
			s.mu.Lock()
			s.clients[c] = struct{}{}
			s.counts[c.Channel]++
			s.mu.Unlock()
			s.log.Info("client connected", "client", c.ID, "channel", c.Channel)

		case c := <-s.unregister:
			s.remove(c)
			s.log.Info("client disconnected", "client", c.ID, "channel", c.Channel)

		case <-ctx.Done():
			s.mu.RLock()
			all := make([]*Client, 0, len(s.clients))
			for c := range s.clients {
				all = append(all, c)
			}
			s.mu.RUnlock()
			for _, c := range all {
				s.remove(c)
			}
			return
		}
	}
}

func (s *WebSocketService) remove(c *Client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		s.counts[c.Channel]--
		if s.counts[c.Channel] <= 0 {
			delete(s.counts, c.Channel)
		}
	}
	s.mu.Unlock()
	_ = c.handle.Close()
	c.closeSend()
}

// ServeClient joins conn to channel name and blocks until the connection
// ends.
func (s *WebSocketService) ServeClient(conn *websocket.Conn, name string) {
	c := &Client{
		ID:      uuid.NewString(),
		Channel: name,
		conn:    conn,
		handle:  s.bus.Open(name),
		service: s,
		send:    make(chan models.SyncMessage, s.opts.SendBuffer),
	}
	c.handle.Subscribe(c.enqueue)

	select {
	case s.register <- c:
	case <-s.done:
		_ = c.handle.Close()
		_ = conn.Close()
		return
	}

	go s.writePump(c)
	s.readPump(c)
}

func (s *WebSocketService) readPump(c *Client) {
	defer func() {
		select {
		case s.unregister <- c:
		case <-s.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(s.opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read error", "client", c.ID, "error", err)
			}
			return
		}

		var msg models.SyncMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			s.log.Debug("ignoring malformed message", "client", c.ID, "bytes", len(data))
			continue
		}
		c.handle.Send(msg)
	}
}

func (s *WebSocketService) writePump(c *Client) {
	ticker := time.NewTicker(s.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				s.log.Debug("websocket write error", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount returns the number of websocket clients on a channel.
func (s *WebSocketService) ClientCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[name]
}

// Channels lists every channel with open bus handles, websocket or
// in-process.
func (s *WebSocketService) Channels() []ChannelStats {
	names := s.bus.Names()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ChannelStats, 0, len(names))
	for _, name := range names {
		out = append(out, ChannelStats{Name: name, Clients: s.counts[name], Members: s.bus.Members(name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
