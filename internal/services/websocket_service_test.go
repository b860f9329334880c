package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/logging"
	"worship-presenter/internal/models"
	"worship-presenter/internal/syncproto"
)

func startRelay(t *testing.T, bus *channel.Bus) (*WebSocketService, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewWebSocketService(bus, SocketOptions{}, logging.Discard())
	go svc.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		svc.ServeClient(conn, strings.TrimPrefix(r.URL.Path, "/ws/"))
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return svc, srv
}

func dial(t *testing.T, srv *httptest.Server, name string) *channel.Socket {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sock, err := channel.Dial(ctx, srv.URL, name, channel.DialOptions{Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = sock.Close() })
	return sock
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type inbox struct {
	mu   sync.Mutex
	msgs []models.SyncMessage
}

func (b *inbox) add(m models.SyncMessage) {
	b.mu.Lock()
	b.msgs = append(b.msgs, m)
	b.mu.Unlock()
}

func (b *inbox) types() []models.MessageType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.MessageType, len(b.msgs))
	for i, m := range b.msgs {
		out[i] = m.Type
	}
	return out
}

func TestRelayFansOutBetweenSockets(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	svc, srv := startRelay(t, bus)

	a := dial(t, srv, "principal")
	b := dial(t, srv, "principal")
	other := dial(t, srv, "auditorio")
	eventually(t, "clients registered", func() bool {
		return svc.ClientCount("principal") == 2 && svc.ClientCount("auditorio") == 1
	})

	var gotA, gotB, gotOther inbox
	a.Subscribe(gotA.add)
	b.Subscribe(gotB.add)
	other.Subscribe(gotOther.add)

	a.Send(models.SyncMessage{Type: models.MsgSetLive, Payload: []byte(`{"value":true}`)})
	eventually(t, "delivery to b", func() bool { return len(gotB.types()) == 1 })

	time.Sleep(50 * time.Millisecond)
	if n := len(gotA.types()); n != 0 {
		t.Fatalf("sender received its own message %d times", n)
	}
	if n := len(gotOther.types()); n != 0 {
		t.Fatalf("other channel received %d messages", n)
	}

	stats := svc.Channels()
	if len(stats) != 2 || stats[0].Name != "auditorio" || stats[1].Clients != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRelayIgnoresMalformedMessages(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	svc, srv := startRelay(t, bus)

	local := bus.Open("principal")
	defer local.Close()
	var got inbox
	local.Subscribe(got.add)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/principal", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	eventually(t, "client registered", func() bool { return svc.ClientCount("principal") == 1 })

	for _, raw := range []string{"not json", `{"payload":{}}`, `{"type":"NAVIGATE","payload":{"slideIndex":2}}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	eventually(t, "valid message relayed", func() bool { return len(got.types()) == 1 })
	if got.types()[0] != models.MsgNavigate {
		t.Fatalf("relayed %v", got.types())
	}
}

func TestRemoteOutputSyncsWithServerPresenter(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	_, srv := startRelay(t, bus)

	presenters := NewPresenterService(bus, syncproto.PresenterOptions{}, logging.Discard())
	defer presenters.Close()
	p := presenters.Get("principal")
	if err := p.LoadSlides(context.Background(), []models.SlideRef{{ID: "s0"}, {ID: "s1"}}); err != nil {
		t.Fatalf("load slides: %v", err)
	}

	out := syncproto.NewOutput(dial(t, srv, "principal"), logging.Discard())
	defer out.Close()
	out.Start()
	select {
	case <-out.Synced():
	case <-time.After(2 * time.Second):
		t.Fatal("remote output never synced")
	}

	if err := p.Navigate(context.Background(), 1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	eventually(t, "navigation relayed", func() bool { return out.Frame().SlideIndex == 1 })
	if f := out.Frame(); f.Slide == nil || f.Slide.ID != "s1" {
		t.Fatalf("frame slide = %+v", f.Slide)
	}
}

func TestRelayForgetsDisconnectedClients(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	svc, srv := startRelay(t, bus)

	sock := dial(t, srv, "principal")
	eventually(t, "client registered", func() bool { return svc.ClientCount("principal") == 1 })

	_ = sock.Close()
	eventually(t, "client removed", func() bool {
		return svc.ClientCount("principal") == 0 && bus.Members("principal") == 0
	})
}
