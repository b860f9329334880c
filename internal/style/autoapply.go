package style

import (
	"errors"
	"sync"
	"time"
)

// ErrConfirmRequired is returned when a change is held until Confirm because
// it would unify the colours of a multi-colour slide.
var ErrConfirmRequired = errors.New("change held: slide uses several text colours, confirm to apply")

// CommitFunc receives coalesced style changes.
type CommitFunc func(styles SlideStyles, scope Scope)

type change struct {
	styles SlideStyles
	scope  Scope
}

// AutoApplier coalesces bursts of slider input into one commit after a
// quiet period. Font changes aimed at a multi-colour slide are parked until
// Confirm is called. It is safe for concurrent use.
type AutoApplier struct {
	mu      sync.Mutex
	delay   time.Duration
	policy  ColorPolicy
	commit  CommitFunc
	timer   *time.Timer
	pending *change
	held    *change
	stopped bool
}

// NewAutoApplier builds an applier. A nil policy never holds changes.
func NewAutoApplier(delay time.Duration, policy ColorPolicy, commit CommitFunc) *AutoApplier {
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}
	if policy == nil {
		policy = ColorPolicyFunc(func([]string) bool { return false })
	}
	return &AutoApplier{delay: delay, policy: policy, commit: commit}
}

// Submit queues a change. slideColors are the text colours currently used on
// the slide the change targets.
func (a *AutoApplier) Submit(styles SlideStyles, scope Scope, slideColors []string) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return nil
	}

	if styles.Font != nil && a.policy.IsMultiColor(slideColors) {
		if a.held != nil && a.held.scope == scope {
			a.held.styles = a.held.styles.merge(styles)
		} else {
			a.held = &change{styles: styles.Clone(), scope: scope}
		}
		return ErrConfirmRequired
	}

	if a.pending != nil && a.pending.scope != scope {
		a.flushLocked()
	}
	if a.pending == nil {
		a.pending = &change{styles: styles.Clone(), scope: scope}
	} else {
		a.pending.styles = a.pending.styles.merge(styles)
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
	return nil
}

func (a *AutoApplier) fire() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.flushLocked()
}

// Flush commits the debounced change now, if any.
func (a *AutoApplier) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushLocked()
}

func (a *AutoApplier) flushLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.pending == nil {
		return
	}
	c := *a.pending
	a.pending = nil
	a.commit(c.styles, c.scope)
}

// Pending reports whether a held change awaits confirmation.
func (a *AutoApplier) Pending() (SlideStyles, Scope, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == nil {
		return SlideStyles{}, Scope{}, false
	}
	return a.held.styles.Clone(), a.held.scope, true
}

// Confirm commits the held change. It reports false when nothing was held.
func (a *AutoApplier) Confirm() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == nil || a.stopped {
		return false
	}
	a.flushLocked()
	c := *a.held
	a.held = nil
	a.commit(c.styles, c.scope)
	return true
}

// Discard drops the held change.
func (a *AutoApplier) Discard() {
	a.mu.Lock()
	a.held = nil
	a.mu.Unlock()
}

// Stop cancels the timer and drops everything not yet committed.
func (a *AutoApplier) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
	a.held = nil
}
