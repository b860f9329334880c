package syncproto

import (
	"log/slog"
	"sync"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/models"
)

// Phase is an output's position in the sync handshake.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseAwaitingState Phase = "awaiting_state"
	PhaseSynced        Phase = "synced"
)

// Output follows a presenter. Its state is rebuilt only from received
// messages and is never written any other way.
type Output struct {
	ch  channel.Channel
	log *slog.Logger

	mu          sync.Mutex
	phase       Phase
	state       models.PresentationState
	closed      bool
	unsubscribe func()
	onFrame     func(Frame)
	synced      chan struct{}
}

// NewOutput builds an output on ch. Call Start to request the state.
func NewOutput(ch channel.Channel, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.Default()
	}
	return &Output{
		ch:     ch,
		log:    logger,
		phase:  PhaseUninitialized,
		state:  models.NewPresentationState(),
		synced: make(chan struct{}),
	}
}

// OnFrame registers fn to receive a frame after every applied message.
func (o *Output) OnFrame(fn func(Frame)) {
	o.mu.Lock()
	o.onFrame = fn
	o.mu.Unlock()
}

// Start subscribes and asks for the full state. Only the first call has an
// effect. If no presenter ever answers the output stays in
// PhaseAwaitingState, which is not an error.
func (o *Output) Start() {
	o.mu.Lock()
	if o.closed || o.phase != PhaseUninitialized {
		o.mu.Unlock()
		return
	}
	o.unsubscribe = o.ch.Subscribe(o.handle)
	o.phase = PhaseAwaitingState
	o.mu.Unlock()

	o.ch.Send(models.SyncMessage{Type: models.MsgRequestState})
}

// RequestState asks again for the full state, e.g. after a reconnect.
func (o *Output) RequestState() {
	o.mu.Lock()
	closed := o.closed || o.phase == PhaseUninitialized
	o.mu.Unlock()
	if closed {
		return
	}
	o.ch.Send(models.SyncMessage{Type: models.MsgRequestState})
}

func (o *Output) handle(msg models.SyncMessage) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if msg.Type != models.MsgStateSync && o.phase != PhaseSynced {
		o.mu.Unlock()
		return
	}
	next, ok := Apply(o.state, msg)
	if !ok {
		o.mu.Unlock()
		if msg.Type != models.MsgRequestState {
			o.log.Debug("ignoring message", "type", msg.Type)
		}
		return
	}
	o.state = next
	if o.phase != PhaseSynced {
		o.phase = PhaseSynced
		close(o.synced)
	}
	fn := o.onFrame
	frame := Compose(o.state)
	o.mu.Unlock()

	if fn != nil {
		fn(frame)
	}
}

// Phase reports the handshake phase.
func (o *Output) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Synced is closed when the first STATE_SYNC arrives.
func (o *Output) Synced() <-chan struct{} {
	return o.synced
}

// State returns a copy of the local state and whether it has been synced.
func (o *Output) State() (models.PresentationState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone(), o.phase == PhaseSynced
}

// Frame returns the current render frame, or the waiting frame until synced.
func (o *Output) Frame() Frame {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseSynced {
		return WaitingFrame()
	}
	return Compose(o.state)
}

// Close unsubscribes and closes the channel handle without sending anything.
// It is safe to call more than once.
func (o *Output) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	unsubscribe := o.unsubscribe
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return o.ch.Close()
}
