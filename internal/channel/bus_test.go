package channel

import (
	"sync"
	"testing"
	"time"

	"worship-presenter/internal/models"
)

type recorder struct {
	mu   sync.Mutex
	msgs []models.SyncMessage
	ch   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 1024)}
}

func (r *recorder) handle(msg models.SyncMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) waitFor(t *testing.T, n int) []models.SyncMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		r.mu.Lock()
		if len(r.msgs) >= n {
			out := append([]models.SyncMessage(nil), r.msgs...)
			r.mu.Unlock()
			return out
		}
		r.mu.Unlock()
		select {
		case <-r.ch:
		case <-deadline:
			t.Fatalf("timed out waiting for %d messages", n)
		}
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func msg(t models.MessageType) models.SyncMessage {
	return models.SyncMessage{Type: t}
}

func TestBusFanOutExcludesSender(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Open("culto")
	b := bus.Open("culto")
	c := bus.Open("culto")
	other := bus.Open("otro")

	ra, rb, rc, ro := newRecorder(), newRecorder(), newRecorder(), newRecorder()
	a.Subscribe(ra.handle)
	b.Subscribe(rb.handle)
	c.Subscribe(rc.handle)
	other.Subscribe(ro.handle)

	a.Send(msg(models.MsgSetBlack))

	rb.waitFor(t, 1)
	rc.waitFor(t, 1)
	time.Sleep(50 * time.Millisecond)
	if ra.count() != 0 {
		t.Fatalf("sender received its own message")
	}
	if ro.count() != 0 {
		t.Fatalf("message leaked to another channel")
	}
}

func TestBusPreservesSenderOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sender := bus.Open("culto")
	receiver := bus.Open("culto")
	rec := newRecorder()
	receiver.Subscribe(rec.handle)

	types := []models.MessageType{
		models.MsgNavigate, models.MsgSetBlack, models.MsgSetLive,
		models.MsgApplyStyles, models.MsgSceneEnter, models.MsgShowArmedProp,
	}
	for i := 0; i < 50; i++ {
		for _, typ := range types {
			sender.Send(msg(typ))
		}
	}

	got := rec.waitFor(t, 50*len(types))
	for i, m := range got {
		if want := types[i%len(types)]; m.Type != want {
			t.Fatalf("message %d: got %s, want %s", i, m.Type, want)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Open("culto")
	b := bus.Open("culto")
	first, second := newRecorder(), newRecorder()
	unsubscribe := b.Subscribe(first.handle)
	b.Subscribe(second.handle)

	unsubscribe()
	unsubscribe()
	a.Send(msg(models.MsgNavigate))

	second.waitFor(t, 1)
	if first.count() != 0 {
		t.Fatalf("unsubscribed handler still called")
	}
}

func TestClosedHandleIsSilent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Open("culto")
	b := bus.Open("culto")
	rec := newRecorder()
	a.Subscribe(rec.handle)

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	b.Send(msg(models.MsgSetBlack))

	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("closed handle delivered a message")
	}
	if n := bus.Members("culto"); n != 1 {
		t.Fatalf("members = %d, want 1", n)
	}
}

func TestBusCloseClosesHandles(t *testing.T) {
	bus := NewBus()
	a := bus.Open("culto")
	bus.Open("culto")

	if err := bus.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	a.Send(msg(models.MsgSetBlack))
	if names := bus.Names(); len(names) != 0 {
		t.Fatalf("names after close = %v", names)
	}

	late := bus.Open("culto")
	late.Send(msg(models.MsgSetBlack))
	if err := late.Close(); err != nil {
		t.Fatalf("close late handle: %v", err)
	}
}

func TestBusNames(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.Open("zeta")
	bus.Open("alfa")
	bus.Open("alfa")

	names := bus.Names()
	if len(names) != 2 || names[0] != "alfa" || names[1] != "zeta" {
		t.Fatalf("names = %v", names)
	}
	if n := bus.Members("alfa"); n != 2 {
		t.Fatalf("alfa members = %d", n)
	}
}

func TestCloseFromHandler(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Open("culto")
	b := bus.Open("culto")
	done := make(chan struct{})
	b.Subscribe(func(models.SyncMessage) {
		_ = b.Close()
		close(done)
	})

	a.Send(msg(models.MsgSetBlack))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run")
	}
}
