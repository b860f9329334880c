package syncproto

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/drag"
	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func catalogRegistry(t *testing.T) *scene.Registry {
	t.Helper()
	cat, err := scene.DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return scene.NewRegistry(cat)
}

func newPresenter(t *testing.T, bus *channel.Bus, opts PresenterOptions) *Presenter {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	if opts.Registry == nil {
		opts.Registry = catalogRegistry(t)
	}
	p := NewPresenter(bus.Open("culto"), opts)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func newOutput(t *testing.T, bus *channel.Bus) *Output {
	t.Helper()
	o := NewOutput(bus.Open("culto"), quietLogger())
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func waitSynced(t *testing.T, o *Output) {
	t.Helper()
	select {
	case <-o.Synced():
	case <-time.After(2 * time.Second):
		t.Fatalf("output never synced, phase %s", o.Phase())
	}
}

// eventually polls cond until it holds or two seconds pass.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func frameJSON(t *testing.T, f Frame) string {
	t.Helper()
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return string(b)
}

func serviceSlides() []models.SlideRef {
	return []models.SlideRef{
		{ID: "s0", ElementID: "el-bienvenida", ElementType: "Bienvenida", Placeholders: scene.PlaceholderContext{"churchName": "Iglesia Central"}},
		{ID: "s1", ElementID: "el-invocacion", ElementType: "Canción Invocación", TextColors: []string{"#FFFFFF", "#D4A853"},
			Placeholders: scene.PlaceholderContext{"songTitle": "Cuán grande es Él", "songArtist": "Himnario"}},
		{ID: "s2", ElementID: "el-invocacion", ElementType: "Canción Invocación", TextColors: []string{"#FFFFFF"}},
		{ID: "s3", ElementID: "el-ofrenda", ElementType: "Ofrenda", Placeholders: scene.PlaceholderContext{"offeringNote": "Gracias"}},
		{ID: "s4", ElementID: "el-bendicion", ElementType: "Bendición"},
		{ID: "s5", ElementID: "el-bendicion", ElementType: "Bendición"},
	}
}

func TestOutputWithoutPresenterKeepsWaiting(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()

	out := newOutput(t, bus)
	out.Start()

	select {
	case <-out.Synced():
		t.Fatal("synced without a presenter")
	case <-time.After(200 * time.Millisecond):
	}
	if got := out.Phase(); got != PhaseAwaitingState {
		t.Fatalf("phase = %s, want %s", got, PhaseAwaitingState)
	}
	if f := out.Frame(); !f.Waiting {
		t.Fatal("frame is not the waiting placeholder")
	}
}

func TestOutputStartedBeforePresenterSyncs(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()

	out := newOutput(t, bus)
	if out.Phase() != PhaseUninitialized {
		t.Fatalf("phase = %s before start", out.Phase())
	}
	out.Start()

	p := newPresenter(t, bus, PresenterOptions{})
	p.Start()
	waitSynced(t, out)
}

func TestLateJoinerMatchesEarlyOutput(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	ctx := context.Background()

	p := newPresenter(t, bus, PresenterOptions{})
	p.Start()
	early := newOutput(t, bus)
	early.Start()
	waitSynced(t, early)

	steps := []func() error{
		func() error { return p.LoadSlides(ctx, serviceSlides()) },
		func() error { return p.SetLive(true) },
		func() error { return p.Navigate(ctx, 1) },
		func() error { return p.ShowArmedProp("cancion-invocacion-titulo") },
		func() error {
			return p.ApplyStyles(style.SlideStyles{Font: &style.FontStyles{Family: "Merriweather", SizePx: 56}}, style.AllSlides())
		},
		func() error {
			return p.ApplyStyles(style.SlideStyles{TextBackground: &style.TextBackgroundStyles{Enabled: true}}, style.ForElement("el-invocacion"))
		},
		func() error { return p.UpdateGlobalLogo(models.LogoOverride{Size: ptr(18.0)}) },
		func() error { return p.SetLogoOverride(1, models.LogoOverride{Visible: ptr(false)}) },
		func() error {
			_, err := p.UpsertTextOverlay(models.TextOverlay{ID: "aviso", Text: "Bienvenidos", Visible: true, Position: models.Position{X: 50, Y: 10}})
			return err
		},
		func() error { return p.MoveOverlay("aviso", models.Position{X: 40, Y: 12}) },
		func() error { return p.SetVideoBackground(&models.VideoBackground{URL: "/media/fondo.mp4", Loop: true, Muted: true}) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := frameJSON(t, p.Frame())
	eventually(t, "early output to converge", func() bool { return frameJSON(t, early.Frame()) == want })

	late := newOutput(t, bus)
	late.Start()
	waitSynced(t, late)
	eventually(t, "late output to converge", func() bool { return frameJSON(t, late.Frame()) == want })

	f := late.Frame()
	if len(f.Props) != 1 || f.Props[0].ID != "cancion-invocacion-titulo" || f.Props[0].Config.Content != "Cuán grande es Él" {
		t.Fatalf("props = %+v", f.Props)
	}
	if f.Logo.Visible {
		t.Fatal("slide override hiding the logo not applied")
	}
}

func TestNavigateCrossesElements(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	ctx := context.Background()

	p := newPresenter(t, bus, PresenterOptions{})
	p.Start()
	if err := p.LoadSlides(ctx, serviceSlides()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := p.Navigate(ctx, 3); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	sc := p.Snapshot().Scene
	if len(sc.ActiveProps) != 1 || sc.ActiveProps[0].ID != "ofrenda-lower-third" || len(sc.ArmedProps) != 0 {
		t.Fatalf("ofrenda scene = %+v", sc)
	}
	if sc.ActiveProps[0].Config.Subtitle != "Gracias" {
		t.Fatalf("placeholder not resolved: %q", sc.ActiveProps[0].Config.Subtitle)
	}

	if err := p.Navigate(ctx, 1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	sc = p.Snapshot().Scene
	if len(sc.ActiveProps) != 0 || len(sc.ArmedProps) != 2 {
		t.Fatalf("invocacion scene = %+v", sc)
	}
	if err := p.ShowArmedProp("cancion-invocacion-titulo"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if err := p.ShowArmedProp("cancion-invocacion-titulo"); err != nil {
		t.Fatalf("second show: %v", err)
	}
	sc = p.Snapshot().Scene
	if !sc.IsActive("cancion-invocacion-titulo") || !sc.IsArmed("cancion-invocacion-artista") {
		t.Fatalf("after show = %+v", sc)
	}

	// same element: props stay as they are
	if err := p.Navigate(ctx, 2); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if !p.Snapshot().Scene.IsActive("cancion-invocacion-titulo") {
		t.Fatal("moving within an element reset its props")
	}

	// leave and come back: props re-derived
	if err := p.Navigate(ctx, 4); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := p.Navigate(ctx, 1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	sc = p.Snapshot().Scene
	if len(sc.ActiveProps) != 0 || len(sc.ArmedProps) != 2 {
		t.Fatalf("re-entered scene = %+v", sc)
	}

	if err := p.Navigate(ctx, 99); !errors.Is(err, ErrInvalidSlide) {
		t.Fatalf("navigate out of range: %v", err)
	}
	if err := p.ShowArmedProp("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("show unknown: %v", err)
	}
}

// flakyLooks fails element lookups once fail is set.
type flakyLooks struct {
	scene.LookSource
	mu   sync.Mutex
	fail bool
}

func (f *flakyLooks) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *flakyLooks) ElementLook(ctx context.Context, elementID string) (scene.Look, bool, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return scene.Look{}, false, errors.New("database is locked")
	}
	return f.LookSource.ElementLook(ctx, elementID)
}

func TestFailedLookupLeavesSlideAndScene(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	ctx := context.Background()

	cat, err := scene.DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	looks := &flakyLooks{LookSource: cat}
	p := newPresenter(t, bus, PresenterOptions{Registry: scene.NewRegistry(looks)})
	p.Start()
	out := newOutput(t, bus)
	out.Start()
	waitSynced(t, out)

	if err := p.LoadSlides(ctx, serviceSlides()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.Navigate(ctx, 3); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	onOfrenda := func(f Frame) bool {
		return f.SlideIndex == 3 && len(f.Props) == 1 && f.Props[0].ID == "ofrenda-lower-third"
	}
	eventually(t, "output on the ofrenda", func() bool { return onOfrenda(out.Frame()) })

	looks.setFail(true)
	if err := p.Navigate(ctx, 4); err == nil {
		t.Fatal("navigate succeeded with a failing look source")
	}
	st := p.Snapshot()
	if st.CurrentSlideIndex != 3 {
		t.Fatalf("slide index = %d after failed navigate", st.CurrentSlideIndex)
	}
	if st.Scene.CurrentElementID != "el-ofrenda" || len(st.Scene.ActiveProps) != 1 || st.Scene.ActiveProps[0].ID != "ofrenda-lower-third" {
		t.Fatalf("scene = %+v after failed navigate", st.Scene)
	}
	if f := p.Frame(); !onOfrenda(f) {
		t.Fatalf("presenter frame = %s", frameJSON(t, f))
	}

	// a new deck is not installed either
	moved := serviceSlides()[1:]
	if err := p.LoadSlides(ctx, moved); err == nil {
		t.Fatal("load succeeded with a failing look source")
	}
	if got := len(p.Snapshot().Slides); got != len(serviceSlides()) {
		t.Fatalf("deck has %d slides after failed load", got)
	}

	time.Sleep(50 * time.Millisecond)
	if f := out.Frame(); !onOfrenda(f) {
		t.Fatalf("output frame = %s", frameJSON(t, f))
	}

	looks.setFail(false)
	if err := p.Navigate(ctx, 4); err != nil {
		t.Fatalf("navigate after recovery: %v", err)
	}
	if st := p.Snapshot(); st.CurrentSlideIndex != 4 || st.Scene.CurrentElementID != "el-bendicion" {
		t.Fatalf("after recovery: index %d scene %+v", st.CurrentSlideIndex, st.Scene)
	}
}

func TestLogoOverrideScenario(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	ctx := context.Background()

	p := newPresenter(t, bus, PresenterOptions{})
	p.Start()
	if err := p.LoadSlides(ctx, serviceSlides()); err != nil {
		t.Fatalf("load: %v", err)
	}
	global := models.LogoSettings{Visible: true, Position: models.Position{X: 85, Y: 85}, Size: 15}

	if err := p.Navigate(ctx, 4); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if got := p.Frame().Logo; got != global {
		t.Fatalf("slide 4 before override = %+v", got)
	}
	if err := p.SetLogoOverride(4, models.LogoOverride{Size: ptr(20.0)}); err != nil {
		t.Fatalf("override: %v", err)
	}
	want := global
	want.Size = 20
	if got := p.Frame().Logo; got != want {
		t.Fatalf("slide 4 = %+v, want %+v", got, want)
	}
	if err := p.Navigate(ctx, 5); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if got := p.Frame().Logo; got != global {
		t.Fatalf("slide 5 = %+v", got)
	}
	if err := p.SetLogoOverride(40, models.LogoOverride{}); !errors.Is(err, ErrInvalidSlide) {
		t.Fatalf("override past the deck: %v", err)
	}
}

func TestAutoApplyHoldsMultiColorSlides(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()
	ctx := context.Background()

	p := newPresenter(t, bus, PresenterOptions{
		Policy:   style.DistinctColorPolicy{MinDistinct: 2},
		Debounce: 20 * time.Millisecond,
	})
	p.Start()
	if err := p.LoadSlides(ctx, serviceSlides()); err != nil {
		t.Fatalf("load: %v", err)
	}

	colorChange := style.SlideStyles{Font: &style.FontStyles{Color: "#000000"}}
	if err := p.AutoApplyStyles(colorChange, style.ForSlide("s1")); !errors.Is(err, style.ErrConfirmRequired) {
		t.Fatalf("multi-colour slide: err = %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := p.Snapshot().Styles.BySlide["s1"]; ok {
		t.Fatal("held change was applied without confirmation")
	}
	if !p.ConfirmPendingStyles() {
		t.Fatal("nothing pending")
	}
	if got := style.Resolve(p.Snapshot().Styles, "s1", "").Font.Color; got != "#000000" {
		t.Fatalf("confirmed colour = %s", got)
	}

	if err := p.AutoApplyStyles(colorChange, style.ForSlide("s2")); err != nil {
		t.Fatalf("single-colour slide: %v", err)
	}
	eventually(t, "debounced apply", func() bool {
		_, ok := p.Snapshot().Styles.BySlide["s2"]
		return ok
	})

	// s0 is on screen, but a deck-wide change also rewrites s1
	if err := p.AutoApplyStyles(colorChange, style.AllSlides()); !errors.Is(err, style.ErrConfirmRequired) {
		t.Fatalf("deck-wide change: err = %v", err)
	}
	p.DiscardPendingStyles()
	time.Sleep(60 * time.Millisecond)
	if got := style.Resolve(p.Snapshot().Styles, "s4", "el-bendicion").Font.Color; got == "#000000" {
		t.Fatal("discarded deck-wide change was applied")
	}
}

func TestPresenterIgnoresForeignStateChanges(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()

	p := newPresenter(t, bus, PresenterOptions{})
	p.Start()
	rogue := bus.Open("culto")
	defer rogue.Close()

	rogue.Send(mustMessage(t, models.MsgSetBlack, models.FlagPayload{Value: true}))
	rogue.Send(models.SyncMessage{Type: "FUTURE_FEATURE"})
	time.Sleep(50 * time.Millisecond)
	if p.Snapshot().IsBlack {
		t.Fatal("presenter applied a message it did not originate")
	}
}

type fakeWindow struct {
	mu        sync.Mutex
	listeners map[int]func(drag.PointerEvent)
	next      int
}

func (w *fakeWindow) Listen(fn func(drag.PointerEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listeners == nil {
		w.listeners = make(map[int]func(drag.PointerEvent))
	}
	w.next++
	id := w.next
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

func (w *fakeWindow) Capture(int) {}
func (w *fakeWindow) Release(int) {}

func (w *fakeWindow) fire(ev drag.PointerEvent) {
	w.mu.Lock()
	fns := make([]func(drag.PointerEvent), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (w *fakeWindow) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

func TestOverlayDragBroadcastsMoves(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()

	p := newPresenter(t, bus, PresenterOptions{Drag: DragOptions{SnapToGrid: true, GridSize: 8}})
	p.Start()
	out := newOutput(t, bus)
	out.Start()
	waitSynced(t, out)

	if _, err := p.UpsertTextOverlay(models.TextOverlay{ID: "aviso", Visible: true, Position: models.Position{X: 50, Y: 50}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	win := &fakeWindow{}
	// preview at half size: 1 DOM px = 2 base units
	d, err := p.BeginOverlayDrag(win, "aviso", 1, 100, 100, 0.5)
	if err != nil {
		t.Fatalf("begin drag: %v", err)
	}
	defer d.Close()

	win.fire(drag.PointerEvent{Kind: drag.EventMove, PointerID: 1, X: 101, Y: 101})
	if got := p.Snapshot().TextOverlays[0].Position; got != (models.Position{X: 50, Y: 50}) {
		t.Fatalf("moved under threshold: %+v", got)
	}

	win.fire(drag.PointerEvent{Kind: drag.EventMove, PointerID: 1, X: 151.2, Y: 100})
	win.fire(drag.PointerEvent{Kind: drag.EventUp, PointerID: 1, X: 151.2, Y: 100})
	if win.count() != 0 {
		t.Fatal("listener left attached after pointer up")
	}

	// 512 + 102.4 = 614.4 -> 614 -> snapped to 616
	wantX := 616.0 / 1024 * 100
	got := p.Snapshot().TextOverlays[0].Position
	if got.X != wantX || got.Y != 50 {
		t.Fatalf("position = %+v, want x=%v", got, wantX)
	}
	eventually(t, "output to see the move", func() bool {
		st, _ := out.State()
		return len(st.TextOverlays) == 1 && st.TextOverlays[0].Position.X == wantX
	})

	if _, err := p.BeginOverlayDrag(win, "missing", 1, 0, 0, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("drag unknown overlay: %v", err)
	}
}

func TestDragRacingCloseLeavesNoListener(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()

	for round := 0; round < 20; round++ {
		p := NewPresenter(bus.Open("culto"), PresenterOptions{Logger: quietLogger()})
		p.Start()
		win := &fakeWindow{}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				_, err := p.BeginOverlayDrag(win, models.LogoOverlayID, id, 10, 10, 1)
				if err != nil && !errors.Is(err, ErrClosed) {
					t.Errorf("begin drag: %v", err)
				}
			}(i)
		}
		if err := p.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		wg.Wait()
		if n := win.count(); n != 0 {
			t.Fatalf("round %d: %d drag listeners outlived close", round, n)
		}
	}

	p := NewPresenter(bus.Open("culto"), PresenterOptions{Logger: quietLogger()})
	_ = p.Close()
	if _, err := p.BeginOverlayDrag(&fakeWindow{}, models.LogoOverlayID, 1, 0, 0, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("drag after close: %v", err)
	}
}

func TestTeardownIsSilentAndRepeatable(t *testing.T) {
	bus := channel.NewBus()
	defer bus.Close()

	watcher := bus.Open("culto")
	defer watcher.Close()
	var mu sync.Mutex
	var seen []models.MessageType
	watcher.Subscribe(func(m models.SyncMessage) {
		mu.Lock()
		seen = append(seen, m.Type)
		mu.Unlock()
	})

	p := NewPresenter(bus.Open("culto"), PresenterOptions{Logger: quietLogger()})
	p.Start()
	out := NewOutput(bus.Open("culto"), quietLogger())
	out.Start()
	waitSynced(t, out)

	win := &fakeWindow{}
	if _, err := p.BeginOverlayDrag(win, models.LogoOverlayID, 7, 10, 10, 1); err != nil {
		t.Fatalf("begin drag: %v", err)
	}

	eventually(t, "handshake traffic", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 3
	})
	mu.Lock()
	before := len(seen)
	mu.Unlock()

	for i := 0; i < 2; i++ {
		if err := out.Close(); err != nil {
			t.Fatalf("output close %d: %v", i, err)
		}
		if err := p.Close(); err != nil {
			t.Fatalf("presenter close %d: %v", i, err)
		}
	}
	if win.count() != 0 {
		t.Fatal("drag listener leaked past presenter close")
	}
	if err := p.SetBlack(true); !errors.Is(err, ErrClosed) {
		t.Fatalf("op after close: %v", err)
	}
	p.BroadcastState()
	out.RequestState()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	after := len(seen)
	mu.Unlock()
	if after != before {
		t.Fatalf("messages emitted after teardown: %v", seen[before:])
	}
	if out.Phase() != PhaseSynced {
		t.Fatalf("phase changed on close: %s", out.Phase())
	}
}
