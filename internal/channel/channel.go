// Package channel provides the named fan-out bus that presenter and output
// contexts use to exchange sync messages.
//
// Delivery goes to every other handle opened under the same name and never
// back to the sender. Messages from one sender arrive in the order they were
// sent. There is no acknowledgement and no retry: sending on a closed handle,
// or over a lost connection, silently does nothing.
package channel

import (
	"errors"
	"sort"

	"worship-presenter/internal/models"
)

// ErrChannelClosed is returned by operations that need an open handle.
var ErrChannelClosed = errors.New("channel closed")

// Channel is one context's handle on a named channel.
type Channel interface {
	// Send fans msg out to the other members. It never blocks on receivers.
	Send(msg models.SyncMessage)
	// Subscribe registers fn for incoming messages and returns a func that
	// removes it. Handlers run on a single goroutine per handle.
	Subscribe(fn func(models.SyncMessage)) (unsubscribe func())
	// Close releases the handle. It is safe to call more than once.
	Close() error
}

// subscribers is the handler set shared by Bus handles and socket clients.
type subscribers struct {
	nextID int
	fns    map[int]func(models.SyncMessage)
}

func (s *subscribers) add(fn func(models.SyncMessage)) int {
	if s.fns == nil {
		s.fns = make(map[int]func(models.SyncMessage))
	}
	s.nextID++
	s.fns[s.nextID] = fn
	return s.nextID
}

func (s *subscribers) remove(id int) {
	delete(s.fns, id)
}

// snapshot returns handlers in registration order.
func (s *subscribers) snapshot() []func(models.SyncMessage) {
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(models.SyncMessage), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.fns[id])
	}
	return out
}
