package syncproto

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/drag"
	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

// DragOptions configures overlay drags started by the presenter.
type DragOptions struct {
	Disabled    bool
	ThresholdPx float64
	SnapToGrid  bool
	GridSize    int
}

// PresenterOptions configures a Presenter. Zero values are usable.
type PresenterOptions struct {
	Registry *scene.Registry
	Logger   *slog.Logger
	// Policy decides which slides hold font changes for confirmation.
	Policy   style.ColorPolicy
	Debounce time.Duration
	Canvas   drag.Canvas
	Drag     DragOptions
}

// Presenter is the single writer of a presentation's state.
type Presenter struct {
	ch       channel.Channel
	registry *scene.Registry
	log      *slog.Logger
	canvas   drag.Canvas
	dragOpts DragOptions
	auto     *style.AutoApplier

	mu          sync.Mutex
	state       models.PresentationState
	started     bool
	closed      bool
	unsubscribe func()
	draggers    map[*drag.Dragger]struct{}
}

// NewPresenter builds a presenter that broadcasts on ch. Call Start to begin
// answering state requests.
func NewPresenter(ch channel.Channel, opts PresenterOptions) *Presenter {
	if opts.Registry == nil {
		opts.Registry = scene.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Canvas.Width <= 0 || opts.Canvas.Height <= 0 {
		opts.Canvas = drag.DefaultCanvas
	}
	p := &Presenter{
		ch:       ch,
		registry: opts.Registry,
		log:      opts.Logger,
		canvas:   opts.Canvas,
		dragOpts: opts.Drag,
		state:    models.NewPresentationState(),
		draggers: make(map[*drag.Dragger]struct{}),
	}
	p.auto = style.NewAutoApplier(opts.Debounce, opts.Policy, p.commitStyles)
	return p
}

// Start subscribes to the channel and pushes the current state so outputs
// already waiting get synced.
func (p *Presenter) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	p.unsubscribe = p.ch.Subscribe(p.handle)
	p.sendStateLocked()
}

func (p *Presenter) handle(msg models.SyncMessage) {
	switch msg.Type {
	case models.MsgRequestState:
		p.BroadcastState()
	default:
		// Outputs only ever ask for state; anything else is not ours to apply.
		p.log.Debug("ignoring message", "type", msg.Type)
	}
}

// BroadcastState sends the complete state.
func (p *Presenter) BroadcastState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sendStateLocked()
}

func (p *Presenter) sendStateLocked() {
	msg, err := models.NewMessage(models.MsgStateSync, models.StateSyncPayload{State: p.state.Clone()})
	if err != nil {
		p.log.Error("failed to encode state", "error", err)
		return
	}
	p.ch.Send(msg)
}

// Snapshot returns a copy of the current state.
func (p *Presenter) Snapshot() models.PresentationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// Frame composes the current state for rendering.
func (p *Presenter) Frame() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Compose(p.state)
}

// publish applies a message to the owned state and broadcasts it. The lock
// is held across Send so receivers observe messages in application order.
func (p *Presenter) publish(t models.MessageType, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publishLocked(t, payload)
}

func (p *Presenter) publishLocked(t models.MessageType, payload any) error {
	msg, next, err := p.prepareLocked(t, payload)
	if err != nil {
		return err
	}
	p.commitLocked(msg, next)
	return nil
}

// prepareLocked encodes a message and reduces it without touching the owned
// state.
func (p *Presenter) prepareLocked(t models.MessageType, payload any) (models.SyncMessage, models.PresentationState, error) {
	if p.closed {
		return models.SyncMessage{}, models.PresentationState{}, ErrClosed
	}
	msg, err := models.NewMessage(t, payload)
	if err != nil {
		return models.SyncMessage{}, models.PresentationState{}, err
	}
	next, ok := Apply(p.state, msg)
	if !ok {
		return models.SyncMessage{}, models.PresentationState{}, fmt.Errorf("%s: rejected by reducer", t)
	}
	return msg, next, nil
}

func (p *Presenter) commitLocked(msg models.SyncMessage, next models.PresentationState) {
	p.state = next
	p.ch.Send(msg)
}

// LoadSlides replaces the deck and enters the element of the current slide.
func (p *Presenter) LoadSlides(ctx context.Context, slides []models.SlideRef) error {
	if slides == nil {
		slides = []models.SlideRef{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moveLocked(ctx, models.MsgSetSlides, models.SlidesPayload{Slides: slides})
}

// Navigate moves to slideIndex. Crossing into another liturgy element leaves
// the previous one and enters the new one.
func (p *Presenter) Navigate(ctx context.Context, slideIndex int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slideIndex < 0 || slideIndex >= len(p.state.Slides) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidSlide, slideIndex, len(p.state.Slides))
	}
	return p.moveLocked(ctx, models.MsgNavigate, models.NavigatePayload{SlideIndex: slideIndex})
}

// sceneChange is what a move to another slide does to the scene.
type sceneChange struct {
	leave bool
	enter bool
	slide models.SlideRef
	look  scene.Look
}

// moveLocked broadcasts a deck or navigation change together with the scene
// change it implies. The target Look is resolved first; if that fails nothing
// is sent and the state is left as it was.
func (p *Presenter) moveLocked(ctx context.Context, t models.MessageType, payload any) error {
	msg, next, err := p.prepareLocked(t, payload)
	if err != nil {
		return err
	}
	change, err := p.sceneChangeLocked(ctx, next)
	if err != nil {
		return err
	}
	p.commitLocked(msg, next)
	switch {
	case change.enter:
		return p.enterLookLocked(change.look, change.slide.ElementType, change.slide.ElementID, change.slide.Placeholders)
	case change.leave:
		return p.publishLocked(models.MsgSceneLeave, nil)
	}
	return nil
}

func (p *Presenter) sceneChangeLocked(ctx context.Context, next models.PresentationState) (sceneChange, error) {
	slide, ok := next.CurrentSlide()
	if !ok || slide.ElementID == "" {
		return sceneChange{leave: next.Scene.Phase != scene.PhaseIdle}, nil
	}
	if next.Scene.Phase == scene.PhaseInElement && next.Scene.CurrentElementID == slide.ElementID {
		return sceneChange{}, nil
	}
	look, err := p.registry.Lookup(ctx, slide.ElementType, slide.ElementID)
	if err != nil {
		return sceneChange{}, fmt.Errorf("failed to look up scene for %s: %w", slide.ElementID, err)
	}
	return sceneChange{enter: true, slide: slide, look: look}, nil
}

// EnterElement derives the scene for an element from its Look. Entering the
// current element again re-derives its props from scratch.
func (p *Presenter) EnterElement(ctx context.Context, elementType, elementID string, placeholders scene.PlaceholderContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.enterLocked(ctx, elementType, elementID, placeholders)
}

func (p *Presenter) enterLocked(ctx context.Context, elementType, elementID string, placeholders scene.PlaceholderContext) error {
	look, err := p.registry.Lookup(ctx, elementType, elementID)
	if err != nil {
		return fmt.Errorf("failed to look up scene for %s: %w", elementID, err)
	}
	return p.enterLookLocked(look, elementType, elementID, placeholders)
}

func (p *Presenter) enterLookLocked(look scene.Look, elementType, elementID string, placeholders scene.PlaceholderContext) error {
	if p.state.Scene.Phase != scene.PhaseIdle {
		if err := p.publishLocked(models.MsgSceneLeave, nil); err != nil {
			return err
		}
	}
	next := scene.Enter(look, elementType, elementID, placeholders)
	p.log.Debug("entering element", "element_id", elementID, "element_type", elementType,
		"active", len(next.ActiveProps), "armed", len(next.ArmedProps))
	return p.publishLocked(models.MsgSceneEnter, models.SceneEnterPayload{Scene: next})
}

// LeaveElement drops every prop.
func (p *Presenter) LeaveElement() error {
	return p.publish(models.MsgSceneLeave, nil)
}

func (p *Presenter) SetBlack(v bool) error {
	return p.publish(models.MsgSetBlack, models.FlagPayload{Value: v})
}

func (p *Presenter) SetLive(v bool) error {
	return p.publish(models.MsgSetLive, models.FlagPayload{Value: v})
}

// UpdateGlobalLogo changes the fields set in patch on the global logo.
func (p *Presenter) UpdateGlobalLogo(patch models.LogoOverride) error {
	return p.publish(models.MsgUpdateGlobalLogo, models.GlobalLogoPayload{Patch: patch})
}

// SetLogoOverride merges patch into the override for slideIndex.
func (p *Presenter) SetLogoOverride(slideIndex int, patch models.LogoOverride) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slideIndex < 0 || slideIndex >= len(p.state.Slides) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidSlide, slideIndex, len(p.state.Slides))
	}
	return p.publishLocked(models.MsgSetLogoOverride, models.LogoOverridePayload{SlideIndex: slideIndex, Override: patch})
}

func (p *Presenter) RemoveLogoOverride(slideIndex int) error {
	return p.publish(models.MsgRemoveLogoOverride, models.SlideIndexPayload{SlideIndex: slideIndex})
}

// ApplyStyles merge-writes styles into the layer named by scope right away.
func (p *Presenter) ApplyStyles(styles style.SlideStyles, scope style.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return p.publish(models.MsgApplyStyles, models.ApplyStylesPayload{Styles: styles, Scope: scope})
}

func (p *Presenter) ResetStyles(scope style.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return p.publish(models.MsgResetStyles, models.ResetStylesPayload{Scope: scope})
}

// AutoApplyStyles feeds live slider input through the debouncer. It returns
// style.ErrConfirmRequired when the change is held for a multi-colour slide.
func (p *Presenter) AutoApplyStyles(styles style.SlideStyles, scope style.Scope) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	colors := p.colorsForScopeLocked(scope)
	p.mu.Unlock()

	return p.auto.Submit(styles, scope, colors)
}

// colorsForScopeLocked collects the text colours a change to scope would
// overwrite. The global scope reaches every slide in the deck.
func (p *Presenter) colorsForScopeLocked(scope style.Scope) []string {
	var colors []string
	for _, s := range p.state.Slides {
		switch {
		case scope.Kind == style.ScopeAll,
			scope.Kind == style.ScopeSlide && s.ID == scope.ID,
			scope.Kind == style.ScopeElement && s.ElementID == scope.ID:
			colors = append(colors, s.TextColors...)
		}
	}
	return colors
}

// ConfirmPendingStyles applies a held change. It reports false if none was
// held.
func (p *Presenter) ConfirmPendingStyles() bool {
	return p.auto.Confirm()
}

// DiscardPendingStyles drops a held change.
func (p *Presenter) DiscardPendingStyles() {
	p.auto.Discard()
}

// PendingStyles returns the change awaiting confirmation, if any.
func (p *Presenter) PendingStyles() (style.SlideStyles, style.Scope, bool) {
	return p.auto.Pending()
}

// FlushStyles commits debounced input immediately.
func (p *Presenter) FlushStyles() {
	p.auto.Flush()
}

func (p *Presenter) commitStyles(styles style.SlideStyles, scope style.Scope) {
	if err := p.publish(models.MsgApplyStyles, models.ApplyStylesPayload{Styles: styles, Scope: scope}); err != nil {
		p.log.Debug("dropping auto-applied styles", "scope", scope.String(), "error", err)
	}
}

// ShowArmedProp puts an armed prop on screen. Showing a prop that is already
// active does nothing.
func (p *Presenter) ShowArmedProp(propID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Scene.IsActive(propID) {
		return nil
	}
	if !p.state.Scene.IsArmed(propID) {
		return fmt.Errorf("%w: prop %s", ErrNotFound, propID)
	}
	return p.publishLocked(models.MsgShowArmedProp, models.PropPayload{PropID: propID})
}

// HideProp takes an active prop off screen; armed props can be shown again.
func (p *Presenter) HideProp(propID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.Scene.IsActive(propID) {
		return fmt.Errorf("%w: prop %s", ErrNotFound, propID)
	}
	return p.publishLocked(models.MsgHideProp, models.PropPayload{PropID: propID})
}

// UpsertTextOverlay adds or replaces a text overlay. An empty id is assigned.
func (p *Presenter) UpsertTextOverlay(o models.TextOverlay) (models.TextOverlay, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Position = o.Position.Clamp()
	return o, p.publish(models.MsgUpsertTextOverlay, models.TextOverlayPayload{Overlay: o})
}

// UpsertImageOverlay adds or replaces an image overlay. An empty id is
// assigned.
func (p *Presenter) UpsertImageOverlay(o models.ImageOverlay) (models.ImageOverlay, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Position = o.Position.Clamp()
	return o, p.publish(models.MsgUpsertImageOverlay, models.ImageOverlayPayload{Overlay: o})
}

func (p *Presenter) RemoveOverlay(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.overlayPositionLocked(id); !ok || id == models.LogoOverlayID {
		return fmt.Errorf("%w: overlay %s", ErrNotFound, id)
	}
	return p.publishLocked(models.MsgRemoveOverlay, models.OverlayIDPayload{ID: id})
}

// MoveOverlay places an overlay, or the logo when id is models.LogoOverlayID.
func (p *Presenter) MoveOverlay(id string, pos models.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.overlayPositionLocked(id); !ok {
		return fmt.Errorf("%w: overlay %s", ErrNotFound, id)
	}
	return p.publishLocked(models.MsgMoveOverlay, models.MoveOverlayPayload{ID: id, Position: pos.Clamp()})
}

func (p *Presenter) overlayPositionLocked(id string) (models.Position, bool) {
	if id == models.LogoOverlayID {
		return p.state.Logo.Global.Position, true
	}
	for _, o := range p.state.TextOverlays {
		if o.ID == id {
			return o.Position, true
		}
	}
	for _, o := range p.state.ImageOverlays {
		if o.ID == id {
			return o.Position, true
		}
	}
	return models.Position{}, false
}

// SetVideoBackground sets or, with nil, clears the looping background.
func (p *Presenter) SetVideoBackground(v *models.VideoBackground) error {
	return p.publish(models.MsgSetVideoBackground, models.VideoBackgroundPayload{Video: v})
}

// BeginOverlayDrag starts dragging overlay id on a preview rendered at scale.
// Every position update is broadcast as MOVE_OVERLAY. The returned Dragger
// must be closed by the caller when the preview goes away; the presenter
// closes any left open on Close.
func (p *Presenter) BeginOverlayDrag(src drag.EventSource, id string, pointerID int, domX, domY, scale float64) (*drag.Dragger, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	pos, ok := p.overlayPositionLocked(id)
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: overlay %s", ErrNotFound, id)
	}
	canvas := p.canvas
	p.mu.Unlock()

	var d *drag.Dragger
	d = drag.New(src, drag.Options{
		Disabled:    p.dragOpts.Disabled,
		ThresholdPx: p.dragOpts.ThresholdPx,
		SnapToGrid:  p.dragOpts.SnapToGrid,
		GridSize:    p.dragOpts.GridSize,
		ToBaseDelta: drag.Scale(scale),
		OnMove: func(x, y int) {
			px, py := canvas.ToPercent(x, y)
			if err := p.MoveOverlay(id, models.Position{X: px, Y: py}); err != nil {
				p.log.Debug("drag move dropped", "overlay", id, "error", err)
			}
		},
		OnEnd: func(int, int, bool) {
			p.mu.Lock()
			delete(p.draggers, d)
			p.mu.Unlock()
		},
	})

	bx, by := canvas.FromPercent(pos.X, pos.Y)
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		d.Close()
		return nil, ErrClosed
	}
	p.draggers[d] = struct{}{}
	p.mu.Unlock()
	if !d.PointerDown(pointerID, domX, domY, bx, by) {
		p.mu.Lock()
		delete(p.draggers, d)
		p.mu.Unlock()
	}
	return d, nil
}

// Close stops answering requests, tears down open drags and closes the
// channel handle. It emits nothing and is safe to call more than once.
func (p *Presenter) Close() error {
	p.auto.Stop()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	unsubscribe := p.unsubscribe
	draggers := make([]*drag.Dragger, 0, len(p.draggers))
	for d := range p.draggers {
		draggers = append(draggers, d)
	}
	p.draggers = nil
	p.mu.Unlock()

	for _, d := range draggers {
		d.Close()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	return p.ch.Close()
}
