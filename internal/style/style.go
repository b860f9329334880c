package style

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidScope is returned when a scope names no layer.
var ErrInvalidScope = errors.New("invalid style scope")

// FontStyles controls slide text.
type FontStyles struct {
	Family     string  `json:"family"`
	SizePx     int     `json:"sizePx"`
	Color      string  `json:"color"`
	Weight     int     `json:"weight"`
	Align      string  `json:"align"`
	LineHeight float64 `json:"lineHeight"`
	Uppercase  bool    `json:"uppercase,omitempty"`
}

// TextBackgroundStyles controls the box drawn behind slide text.
type TextBackgroundStyles struct {
	Enabled   bool    `json:"enabled"`
	Color     string  `json:"color"`
	Opacity   float64 `json:"opacity"`
	PaddingPx int     `json:"paddingPx"`
	RadiusPx  int     `json:"radiusPx"`
}

// SlideBackgroundStyles controls the full-canvas background.
type SlideBackgroundStyles struct {
	Color          string  `json:"color"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	OverlayOpacity float64 `json:"overlayOpacity"`
}

// SlideStyles is one layer of style configuration. Nil groups are unset.
type SlideStyles struct {
	Font            *FontStyles            `json:"font,omitempty"`
	TextBackground  *TextBackgroundStyles  `json:"textBackground,omitempty"`
	SlideBackground *SlideBackgroundStyles `json:"slideBackground,omitempty"`
}

// Empty reports whether no group is set.
func (s SlideStyles) Empty() bool {
	return s.Font == nil && s.TextBackground == nil && s.SlideBackground == nil
}

// Clone returns a deep copy.
func (s SlideStyles) Clone() SlideStyles {
	var out SlideStyles
	if s.Font != nil {
		f := *s.Font
		out.Font = &f
	}
	if s.TextBackground != nil {
		tb := *s.TextBackground
		out.TextBackground = &tb
	}
	if s.SlideBackground != nil {
		sb := *s.SlideBackground
		out.SlideBackground = &sb
	}
	return out
}

// merge writes the groups set in patch over s.
func (s SlideStyles) merge(patch SlideStyles) SlideStyles {
	out := s.Clone()
	p := patch.Clone()
	if p.Font != nil {
		out.Font = p.Font
	}
	if p.TextBackground != nil {
		out.TextBackground = p.TextBackground
	}
	if p.SlideBackground != nil {
		out.SlideBackground = p.SlideBackground
	}
	return out
}

// Default is the final fallback of every resolution.
func Default() SlideStyles {
	return SlideStyles{
		Font: &FontStyles{
			Family:     "Montserrat",
			SizePx:     48,
			Color:      "#FFFFFF",
			Weight:     600,
			Align:      "center",
			LineHeight: 1.3,
		},
		TextBackground: &TextBackgroundStyles{
			Enabled:   false,
			Color:     "#1A1A1A",
			Opacity:   0.6,
			PaddingPx: 24,
			RadiusPx:  8,
		},
		SlideBackground: &SlideBackgroundStyles{
			Color:          "#1A1A1A",
			OverlayOpacity: 0,
		},
	}
}

// State holds the three override layers. Maps are created on first write.
type State struct {
	All       SlideStyles            `json:"all"`
	BySlide   map[string]SlideStyles `json:"bySlide,omitempty"`
	ByElement map[string]SlideStyles `json:"byElement,omitempty"`
}

// Clone returns a deep copy of every layer.
func (s State) Clone() State {
	out := State{All: s.All.Clone()}
	if s.BySlide != nil {
		out.BySlide = make(map[string]SlideStyles, len(s.BySlide))
		for k, v := range s.BySlide {
			out.BySlide[k] = v.Clone()
		}
	}
	if s.ByElement != nil {
		out.ByElement = make(map[string]SlideStyles, len(s.ByElement))
		for k, v := range s.ByElement {
			out.ByElement[k] = v.Clone()
		}
	}
	return out
}

// ScopeKind names a style layer.
type ScopeKind string

const (
	ScopeAll     ScopeKind = "all"
	ScopeSlide   ScopeKind = "slide"
	ScopeElement ScopeKind = "element"
)

// Scope addresses exactly one layer. ID is the slide or element id and is
// ignored for ScopeAll.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// AllSlides is the global scope.
func AllSlides() Scope { return Scope{Kind: ScopeAll} }

// ForSlide scopes to one slide.
func ForSlide(id string) Scope { return Scope{Kind: ScopeSlide, ID: id} }

// ForElement scopes to one element.
func ForElement(id string) Scope { return Scope{Kind: ScopeElement, ID: id} }

// Validate checks that the scope addresses a layer.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeAll:
		return nil
	case ScopeSlide, ScopeElement:
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: %s scope requires an id", ErrInvalidScope, s.Kind)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, s.Kind)
	}
}

func (s Scope) String() string {
	if s.Kind == ScopeAll {
		return string(ScopeAll)
	}
	return string(s.Kind) + ":" + s.ID
}
