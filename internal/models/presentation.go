package models

import (
	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

// Position is a point in canvas percentages (0..100 on both axes).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp keeps the position on the canvas.
func (p Position) Clamp() Position {
	return Position{X: clamp(p.X, 0, 100), Y: clamp(p.Y, 0, 100)}
}

// TextOverlay is free text placed over the slide
type TextOverlay struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Position   Position `json:"position"`
	Visible    bool     `json:"visible"`
	FontSize   int      `json:"fontSize,omitempty"`
	Color      string   `json:"color,omitempty"`
	Background string   `json:"background,omitempty"`
}

// ImageOverlay is an image placed over the slide
type ImageOverlay struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Position Position `json:"position"`
	Visible  bool     `json:"visible"`
	WidthPct float64  `json:"widthPct,omitempty"`
	Opacity  float64  `json:"opacity,omitempty"`
}

// VideoBackground loops behind the slide content
type VideoBackground struct {
	URL     string  `json:"url"`
	Loop    bool    `json:"loop"`
	Muted   bool    `json:"muted"`
	Opacity float64 `json:"opacity,omitempty"`
}

// SlideRef is what content providers hand over for each slide: its id, the
// liturgy element it belongs to and the values its props may reference.
type SlideRef struct {
	ID           string                   `json:"id"`
	ElementID    string                   `json:"elementId,omitempty"`
	ElementType  string                   `json:"elementType,omitempty"`
	Title        string                   `json:"title,omitempty"`
	TextColors   []string                 `json:"textColors,omitempty"`
	Placeholders scene.PlaceholderContext `json:"placeholders,omitempty"`
}

// PresentationState is everything the output shows. The presenter owns the
// only writable copy; outputs rebuild theirs from sync messages.
type PresentationState struct {
	CurrentSlideIndex int              `json:"currentSlideIndex"`
	IsLive            bool             `json:"isLive"`
	IsBlack           bool             `json:"isBlack"`
	Logo              Logo             `json:"logo"`
	TextOverlays      []TextOverlay    `json:"textOverlays"`
	ImageOverlays     []ImageOverlay   `json:"imageOverlays"`
	VideoBackground   *VideoBackground `json:"videoBackground"`
	Styles            style.State      `json:"styles"`
	Slides            []SlideRef       `json:"slides"`
	Scene             scene.State      `json:"scene"`
}

// NewPresentationState returns the state of a freshly opened presenter.
func NewPresentationState() PresentationState {
	return PresentationState{
		Logo:          DefaultLogo(),
		TextOverlays:  []TextOverlay{},
		ImageOverlays: []ImageOverlay{},
		Slides:        []SlideRef{},
		Scene:         scene.Idle(),
	}
}

// Clone deep-copies the state so snapshots never alias the owner's copy.
func (s PresentationState) Clone() PresentationState {
	out := s
	out.Logo = s.Logo.Clone()
	out.TextOverlays = append([]TextOverlay{}, s.TextOverlays...)
	out.ImageOverlays = append([]ImageOverlay{}, s.ImageOverlays...)
	if s.VideoBackground != nil {
		v := *s.VideoBackground
		out.VideoBackground = &v
	}
	out.Styles = s.Styles.Clone()
	out.Slides = make([]SlideRef, len(s.Slides))
	for i, sl := range s.Slides {
		sl.TextColors = append([]string(nil), sl.TextColors...)
		sl.Placeholders = sl.Placeholders.Clone()
		out.Slides[i] = sl
	}
	out.Scene = s.Scene.Clone()
	return out
}

// CurrentSlide returns the slide under CurrentSlideIndex, if loaded.
func (s PresentationState) CurrentSlide() (SlideRef, bool) {
	if s.CurrentSlideIndex < 0 || s.CurrentSlideIndex >= len(s.Slides) {
		return SlideRef{}, false
	}
	return s.Slides[s.CurrentSlideIndex], true
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
