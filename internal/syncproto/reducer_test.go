package syncproto

import (
	"encoding/json"
	"reflect"
	"testing"

	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

func mustMessage(t *testing.T, typ models.MessageType, payload any) models.SyncMessage {
	t.Helper()
	msg, err := models.NewMessage(typ, payload)
	if err != nil {
		t.Fatalf("new %s: %v", typ, err)
	}
	return msg
}

func ptr[T any](v T) *T { return &v }

func baseState() models.PresentationState {
	st := models.NewPresentationState()
	st.Slides = []models.SlideRef{
		{ID: "s1", ElementID: "e1", ElementType: "bienvenida"},
		{ID: "s2", ElementID: "e2", ElementType: "ofrenda"},
		{ID: "s3", ElementID: "e2", ElementType: "ofrenda"},
	}
	st.TextOverlays = []models.TextOverlay{{ID: "t1", Text: "hola", Visible: true}}
	look := scene.Look{ID: "l", Props: []scene.Prop{
		{ID: "armed", Type: scene.PropTextOverlay, Trigger: scene.TriggerArmed, Config: scene.PropConfig{Content: "{{songTitle}}"}},
	}}
	st.Scene = scene.Enter(look, "cancion", "e9", scene.PlaceholderContext{"songTitle": "Sublime gracia"})
	return st
}

func TestApplyIsIdempotent(t *testing.T) {
	red := "#ff0000"
	msgs := []models.SyncMessage{
		mustMessage(t, models.MsgNavigate, models.NavigatePayload{SlideIndex: 2}),
		mustMessage(t, models.MsgSetBlack, models.FlagPayload{Value: true}),
		mustMessage(t, models.MsgSetLive, models.FlagPayload{Value: true}),
		mustMessage(t, models.MsgUpdateGlobalLogo, models.GlobalLogoPayload{Patch: models.LogoOverride{Visible: ptr(true)}}),
		mustMessage(t, models.MsgSetLogoOverride, models.LogoOverridePayload{SlideIndex: 1, Override: models.LogoOverride{Size: ptr(20.0)}}),
		mustMessage(t, models.MsgRemoveLogoOverride, models.SlideIndexPayload{SlideIndex: 1}),
		mustMessage(t, models.MsgApplyStyles, models.ApplyStylesPayload{
			Styles: style.SlideStyles{Font: &style.FontStyles{Color: red}},
			Scope:  style.ForSlide("s1"),
		}),
		mustMessage(t, models.MsgResetStyles, models.ResetStylesPayload{Scope: style.ForSlide("s1")}),
		mustMessage(t, models.MsgShowArmedProp, models.PropPayload{PropID: "armed"}),
		mustMessage(t, models.MsgHideProp, models.PropPayload{PropID: "armed"}),
		mustMessage(t, models.MsgSceneLeave, nil),
		mustMessage(t, models.MsgUpsertTextOverlay, models.TextOverlayPayload{Overlay: models.TextOverlay{ID: "t2", Text: "x"}}),
		mustMessage(t, models.MsgUpsertImageOverlay, models.ImageOverlayPayload{Overlay: models.ImageOverlay{ID: "i1", URL: "/logo.png"}}),
		mustMessage(t, models.MsgRemoveOverlay, models.OverlayIDPayload{ID: "t1"}),
		mustMessage(t, models.MsgMoveOverlay, models.MoveOverlayPayload{ID: "t1", Position: models.Position{X: 10, Y: 20}}),
		mustMessage(t, models.MsgMoveOverlay, models.MoveOverlayPayload{ID: models.LogoOverlayID, Position: models.Position{X: 5, Y: 5}}),
		mustMessage(t, models.MsgSetVideoBackground, models.VideoBackgroundPayload{Video: &models.VideoBackground{URL: "/bg.mp4", Loop: true}}),
		mustMessage(t, models.MsgSetSlides, models.SlidesPayload{Slides: []models.SlideRef{{ID: "only"}}}),
	}

	for _, msg := range msgs {
		t.Run(string(msg.Type), func(t *testing.T) {
			once, ok := Apply(baseState(), msg)
			if !ok {
				t.Fatalf("%s not applied", msg.Type)
			}
			twice, ok := Apply(once, msg)
			if !ok {
				t.Fatalf("%s not applied the second time", msg.Type)
			}
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("applying %s twice changed the state:\nonce:  %+v\ntwice: %+v", msg.Type, once, twice)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	st := baseState()
	before := st.Clone()

	msgs := []models.SyncMessage{
		mustMessage(t, models.MsgMoveOverlay, models.MoveOverlayPayload{ID: "t1", Position: models.Position{X: 10, Y: 20}}),
		mustMessage(t, models.MsgSetLogoOverride, models.LogoOverridePayload{SlideIndex: 0, Override: models.LogoOverride{Size: ptr(20.0)}}),
		mustMessage(t, models.MsgShowArmedProp, models.PropPayload{PropID: "armed"}),
		mustMessage(t, models.MsgApplyStyles, models.ApplyStylesPayload{Styles: style.SlideStyles{Font: &style.FontStyles{SizePx: 60}}, Scope: style.AllSlides()}),
		mustMessage(t, models.MsgRemoveOverlay, models.OverlayIDPayload{ID: "t1"}),
	}
	for _, msg := range msgs {
		Apply(st, msg)
	}
	if !reflect.DeepEqual(st, before) {
		t.Fatal("Apply modified its input")
	}
}

func TestApplyIgnoresUnknownAndMalformed(t *testing.T) {
	st := baseState()
	cases := []models.SyncMessage{
		{Type: "FUTURE_FEATURE", Payload: json.RawMessage(`{"x":1}`)},
		{Type: models.MsgRequestState},
		{Type: models.MsgNavigate, Payload: json.RawMessage(`"nope"`)},
		{Type: models.MsgNavigate},
		mustMessage(t, models.MsgNavigate, models.NavigatePayload{SlideIndex: -1}),
		mustMessage(t, models.MsgApplyStyles, models.ApplyStylesPayload{Scope: style.Scope{Kind: "page"}}),
		mustMessage(t, models.MsgUpsertTextOverlay, models.TextOverlayPayload{}),
	}
	for _, msg := range cases {
		got, ok := Apply(st, msg)
		if ok {
			t.Errorf("%s applied", msg.Type)
		}
		if !reflect.DeepEqual(got, st) {
			t.Errorf("%s changed the state", msg.Type)
		}
	}
}

func TestApplyStateSyncReplacesEverything(t *testing.T) {
	full := baseState()
	full.IsLive = true
	full.CurrentSlideIndex = 1

	got, ok := Apply(models.NewPresentationState(), mustMessage(t, models.MsgStateSync, models.StateSyncPayload{State: full}))
	if !ok {
		t.Fatal("state sync not applied")
	}
	if !got.IsLive || got.CurrentSlideIndex != 1 || len(got.Slides) != 3 || len(got.Scene.ArmedProps) != 1 {
		t.Fatalf("unexpected state after sync: %+v", got)
	}
}

func TestSetSlidesClampsIndex(t *testing.T) {
	st := baseState()
	st.CurrentSlideIndex = 2
	got, _ := Apply(st, mustMessage(t, models.MsgSetSlides, models.SlidesPayload{Slides: []models.SlideRef{{ID: "a"}}}))
	if got.CurrentSlideIndex != 0 {
		t.Fatalf("index = %d, want 0", got.CurrentSlideIndex)
	}
}

func TestStaleLogoOverrideSurvivesSlideRemoval(t *testing.T) {
	st := baseState()
	st, _ = Apply(st, mustMessage(t, models.MsgSetLogoOverride, models.LogoOverridePayload{SlideIndex: 2, Override: models.LogoOverride{Visible: ptr(false)}}))
	st, _ = Apply(st, mustMessage(t, models.MsgSetSlides, models.SlidesPayload{Slides: st.Slides[:1]}))

	if _, ok := st.Logo.Overrides[2]; !ok {
		t.Fatal("override removed by unrelated operation")
	}
	if f := Compose(st); !f.Logo.Visible {
		t.Fatal("stale override contributed to the frame")
	}
}

func TestMoveLogoOverlay(t *testing.T) {
	got, _ := Apply(baseState(), mustMessage(t, models.MsgMoveOverlay, models.MoveOverlayPayload{ID: models.LogoOverlayID, Position: models.Position{X: 120, Y: 40}}))
	if got.Logo.Global.Position != (models.Position{X: 100, Y: 40}) {
		t.Fatalf("logo position = %+v", got.Logo.Global.Position)
	}
}

func TestComposeResolvesCurrentSlide(t *testing.T) {
	st := baseState()
	st.CurrentSlideIndex = 1
	st.Styles, _ = style.Apply(st.Styles, style.SlideStyles{Font: &style.FontStyles{Color: "#D4A853"}}, style.ForElement("e2"))
	st.Styles, _ = style.Apply(st.Styles, style.SlideStyles{Font: &style.FontStyles{Color: "#FFFFFF"}}, style.ForSlide("s2"))
	st.TextOverlays = append(st.TextOverlays, models.TextOverlay{ID: "hidden"})
	st.Logo.Overrides = map[int]models.LogoOverride{1: {Size: ptr(20.0)}}

	f := Compose(st)
	if f.Slide == nil || f.Slide.ID != "s2" {
		t.Fatalf("slide = %+v", f.Slide)
	}
	if f.Styles.Font.Color != "#D4A853" {
		t.Fatalf("element layer should win, got %s", f.Styles.Font.Color)
	}
	if f.Logo.Size != 20 {
		t.Fatalf("logo size = %v", f.Logo.Size)
	}
	if len(f.TextOverlays) != 1 || f.TextOverlays[0].ID != "t1" {
		t.Fatalf("visible overlays = %+v", f.TextOverlays)
	}
	if f.Waiting {
		t.Fatal("composed frame marked waiting")
	}
}
