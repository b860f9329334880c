package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestLogoEffectivePartialOverride(t *testing.T) {
	logo := Logo{Global: LogoSettings{Visible: true, Position: Position{X: 85, Y: 85}, Size: 15}}

	if got := logo.Effective(4, 10); !reflect.DeepEqual(got, logo.Global) {
		t.Fatalf("no override: got %+v, want global", got)
	}

	logo.Overrides = map[int]LogoOverride{4: {Size: ptr(20.0)}}
	want := LogoSettings{Visible: true, Position: Position{X: 85, Y: 85}, Size: 20}
	if got := logo.Effective(4, 10); !reflect.DeepEqual(got, want) {
		t.Fatalf("slide 4: got %+v, want %+v", got, want)
	}
	if got := logo.Effective(5, 10); !reflect.DeepEqual(got, logo.Global) {
		t.Fatalf("slide 5: got %+v, want global", got)
	}
}

func TestLogoEffectiveIgnoresStaleOverride(t *testing.T) {
	logo := DefaultLogo()
	logo.Overrides = map[int]LogoOverride{7: {Visible: ptr(false)}}

	if got := logo.Effective(7, 5); !got.Visible {
		t.Fatalf("stale override applied: %+v", got)
	}
	if _, ok := logo.Overrides[7]; !ok {
		t.Fatal("stale override removed")
	}
}

func TestLogoNormalizeClamps(t *testing.T) {
	got := LogoSettings{Position: Position{X: -5, Y: 140}, Size: 40}.Normalize()
	if got.Position.X != 0 || got.Position.Y != 100 || got.Size != LogoMaxSize {
		t.Fatalf("unexpected normalize result %+v", got)
	}
	if got := (LogoSettings{Size: 1}).Normalize(); got.Size != LogoMinSize {
		t.Fatalf("size not raised to minimum: %v", got.Size)
	}
}

func TestLogoOverrideMerge(t *testing.T) {
	o := LogoOverride{Size: ptr(20.0)}
	o = o.Merge(LogoOverride{Visible: ptr(false)})
	if o.Size == nil || *o.Size != 20 || o.Visible == nil || *o.Visible {
		t.Fatalf("merge lost fields: %+v", o)
	}
}

func TestOverridesSurviveJSON(t *testing.T) {
	st := NewPresentationState()
	st.Logo.Overrides = map[int]LogoOverride{3: {Size: ptr(10.0)}}
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back PresentationState
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o, ok := back.Logo.Overrides[3]; !ok || *o.Size != 10 {
		t.Fatalf("override lost: %+v", back.Logo.Overrides)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	st := NewPresentationState()
	st.Slides = []SlideRef{{ID: "s1", TextColors: []string{"#fff"}}}
	st.TextOverlays = []TextOverlay{{ID: "t1"}}
	cp := st.Clone()
	cp.Slides[0].TextColors[0] = "#000"
	cp.TextOverlays[0].Text = "changed"
	if st.Slides[0].TextColors[0] != "#fff" || st.TextOverlays[0].Text != "" {
		t.Fatal("clone aliases the original")
	}
}
