package channel

import (
	"sort"
	"sync"

	"worship-presenter/internal/models"
)

// Bus is an in-process registry of named channels.
type Bus struct {
	mu      sync.Mutex
	closed  bool
	members map[string]map[*handle]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{members: make(map[string]map[*handle]struct{})}
}

// Open joins the channel called name. Opening on a closed bus returns a
// handle that is already closed.
func (b *Bus) Open(name string) Channel {
	h := &handle{
		bus:    b,
		name:   name,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		h.closed = true
		close(h.done)
		return h
	}
	set, ok := b.members[name]
	if !ok {
		set = make(map[*handle]struct{})
		b.members[name] = set
	}
	set[h] = struct{}{}
	b.mu.Unlock()

	go h.dispatch()
	return h
}

// Members reports how many handles are open on name.
func (b *Bus) Members(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.members[name])
}

// Names lists channels with at least one open handle, sorted.
func (b *Bus) Names() []string {
	b.mu.Lock()
	names := make([]string, 0, len(b.members))
	for name := range b.members {
		names = append(names, name)
	}
	b.mu.Unlock()
	sort.Strings(names)
	return names
}

// Close closes every open handle. Later sends are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*handle
	for _, set := range b.members {
		for h := range set {
			all = append(all, h)
		}
	}
	b.mu.Unlock()

	for _, h := range all {
		_ = h.Close()
	}
	return nil
}

// publish enqueues msg on every member of from's channel except from. The
// bus lock is held across the enqueue so two sends from one handle reach
// each receiver in order.
func (b *Bus) publish(from *handle, msg models.SyncMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for h := range b.members[from.name] {
		if h != from {
			h.enqueue(msg)
		}
	}
}

func (b *Bus) leave(h *handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.members[h.name]
	delete(set, h)
	if len(set) == 0 {
		delete(b.members, h.name)
	}
}

type handle struct {
	bus  *Bus
	name string

	mu     sync.Mutex
	closed bool
	queue  []models.SyncMessage
	subs   subscribers

	notify chan struct{}
	done   chan struct{}
}

func (h *handle) Send(msg models.SyncMessage) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return
	}
	h.bus.publish(h, msg)
}

func (h *handle) Subscribe(fn func(models.SyncMessage)) func() {
	h.mu.Lock()
	id := h.subs.add(fn)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.subs.remove(id)
			h.mu.Unlock()
		})
	}
}

func (h *handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.queue = nil
	close(h.done)
	h.mu.Unlock()

	h.bus.leave(h)
	return nil
}

func (h *handle) enqueue(msg models.SyncMessage) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.queue = append(h.queue, msg)
	h.mu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// dispatch delivers queued messages to subscribers until the handle closes.
// Messages still queued at close are dropped.
func (h *handle) dispatch() {
	for {
		select {
		case <-h.done:
			return
		case <-h.notify:
		}

		for {
			h.mu.Lock()
			if h.closed || len(h.queue) == 0 {
				h.mu.Unlock()
				break
			}
			msg := h.queue[0]
			h.queue = h.queue[1:]
			fns := h.subs.snapshot()
			h.mu.Unlock()

			for _, fn := range fns {
				fn(msg)
			}
		}
	}
}
