// Package drag turns pointer gestures on a scaled preview into positions in
// the canonical base coordinate system of the output canvas.
package drag

import (
	"math"
	"sync"
)

// DefaultThresholdPx is the DOM distance a pointer must travel before a
// press counts as a drag.
const DefaultThresholdPx = 3.0

// EventKind distinguishes pointer events delivered to global listeners.
type EventKind int

const (
	EventMove EventKind = iota
	EventUp
	EventCancel
)

// PointerEvent is a window-level pointer event in DOM pixels.
type PointerEvent struct {
	Kind      EventKind
	PointerID int
	X, Y      float64
}

// EventSource is where a drag attaches its global move/up listener and
// captures the pointer for the duration of the gesture.
type EventSource interface {
	Listen(fn func(PointerEvent)) (remove func())
	Capture(pointerID int)
	Release(pointerID int)
}

// BaseDeltaFunc converts a DOM-pixel delta into a base-coordinate delta for
// the current render scale.
type BaseDeltaFunc func(domDX, domDY float64) (baseDX, baseDY float64)

// Scale returns a BaseDeltaFunc for a preview rendered at scale (rendered
// pixels per base unit).
func Scale(scale float64) BaseDeltaFunc {
	if scale <= 0 {
		scale = 1
	}
	return func(dx, dy float64) (float64, float64) { return dx / scale, dy / scale }
}

// Options configures a Dragger.
type Options struct {
	Disabled    bool
	ThresholdPx float64
	SnapToGrid  bool
	GridSize    int
	ToBaseDelta BaseDeltaFunc
	// OnMove receives every new base position once the threshold is passed.
	OnMove func(x, y int)
	// OnEnd is called when the gesture finishes; moved is false for clicks.
	OnEnd func(x, y int, moved bool)
}

type gesture struct {
	pointerID int
	startDOMX float64
	startDOMY float64
	baseX     float64
	baseY     float64
	moved     bool
	lastX     int
	lastY     int
	remove    func()
}

// Dragger tracks one drag gesture at a time.
type Dragger struct {
	mu     sync.Mutex
	src    EventSource
	opts   Options
	active *gesture
	closed bool
}

// New builds a Dragger bound to src.
func New(src EventSource, opts Options) *Dragger {
	if opts.ThresholdPx <= 0 {
		opts.ThresholdPx = DefaultThresholdPx
	}
	if opts.ToBaseDelta == nil {
		opts.ToBaseDelta = Scale(1)
	}
	return &Dragger{src: src, opts: opts}
}

// PointerDown starts a gesture at DOM point (domX, domY) for an element whose
// current base position is (baseX, baseY). It reports whether a gesture
// started. A disabled or closed Dragger does nothing at all.
func (d *Dragger) PointerDown(pointerID int, domX, domY, baseX, baseY float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Disabled || d.closed || d.active != nil {
		return false
	}
	g := &gesture{
		pointerID: pointerID,
		startDOMX: domX,
		startDOMY: domY,
		baseX:     baseX,
		baseY:     baseY,
		lastX:     int(math.Round(baseX)),
		lastY:     int(math.Round(baseY)),
	}
	d.active = g
	d.src.Capture(pointerID)
	g.remove = d.src.Listen(d.handle)
	return true
}

// Dragging reports whether a gesture is in progress.
func (d *Dragger) Dragging() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

func (d *Dragger) handle(ev PointerEvent) {
	switch ev.Kind {
	case EventMove:
		d.move(ev)
	case EventUp, EventCancel:
		d.end(ev.PointerID)
	}
}

func (d *Dragger) move(ev PointerEvent) {
	d.mu.Lock()
	g := d.active
	if g == nil || g.pointerID != ev.PointerID {
		d.mu.Unlock()
		return
	}
	dx, dy := ev.X-g.startDOMX, ev.Y-g.startDOMY
	if !g.moved && math.Hypot(dx, dy) <= d.opts.ThresholdPx {
		d.mu.Unlock()
		return
	}
	g.moved = true
	bdx, bdy := d.opts.ToBaseDelta(dx, dy)
	x := d.place(g.baseX + bdx)
	y := d.place(g.baseY + bdy)
	if x == g.lastX && y == g.lastY {
		d.mu.Unlock()
		return
	}
	g.lastX, g.lastY = x, y
	onMove := d.opts.OnMove
	d.mu.Unlock()

	if onMove != nil {
		onMove(x, y)
	}
}

func (d *Dragger) place(v float64) int {
	p := int(math.Round(v))
	if d.opts.SnapToGrid {
		p = Snap(p, d.opts.GridSize)
	}
	return p
}

func (d *Dragger) end(pointerID int) {
	d.mu.Lock()
	g := d.active
	if g == nil || g.pointerID != pointerID {
		d.mu.Unlock()
		return
	}
	d.detachLocked()
	onEnd := d.opts.OnEnd
	d.mu.Unlock()

	if onEnd != nil {
		onEnd(g.lastX, g.lastY, g.moved)
	}
}

// detachLocked releases capture and removes the global listener. It runs at
// most once per gesture.
func (d *Dragger) detachLocked() {
	g := d.active
	if g == nil {
		return
	}
	d.active = nil
	if g.remove != nil {
		g.remove()
		g.remove = nil
	}
	d.src.Release(g.pointerID)
}

// Close tears the Dragger down, ending any gesture without calling OnEnd.
// Safe to call more than once.
func (d *Dragger) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.detachLocked()
}

// Snap rounds v to the nearest multiple of grid. A grid below 2 leaves v
// unchanged.
func Snap(v, grid int) int {
	if grid < 2 {
		return v
	}
	return int(math.Round(float64(v)/float64(grid))) * grid
}
