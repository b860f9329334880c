// Package scene decides which overlay props are on screen for the liturgy
// element being presented.
//
// Each element type has a default Look. Entering an element shows its auto
// props at once and queues its armed props until the presenter shows them.
// Leaving an element drops every prop; nothing carries over to the next one.
package scene

import (
	"regexp"
)

// PropType is the kind of overlay a prop draws.
type PropType string

const (
	PropTextOverlay   PropType = "text-overlay"
	PropLowerThird    PropType = "lower-third"
	PropLogoVariation PropType = "logo-variation"
)

// Valid reports whether t is a known prop type.
func (t PropType) Valid() bool {
	switch t {
	case PropTextOverlay, PropLowerThird, PropLogoVariation:
		return true
	}
	return false
}

// Trigger decides when a prop appears.
type Trigger string

const (
	// TriggerAuto props show as soon as the element is entered.
	TriggerAuto Trigger = "auto"
	// TriggerArmed props wait for an explicit show command.
	TriggerArmed Trigger = "armed"
)

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool { return t == TriggerAuto || t == TriggerArmed }

// PropConfig carries what the renderer needs to draw a prop. X and Y are
// percentages of the canvas.
type PropConfig struct {
	Content     string  `json:"content,omitempty" yaml:"content,omitempty"`
	Subtitle    string  `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Variant     string  `json:"variant,omitempty" yaml:"variant,omitempty"`
	AccentColor string  `json:"accentColor,omitempty" yaml:"accent_color,omitempty"`
}

// Prop is one overlay unit of a Look.
type Prop struct {
	ID      string     `json:"id" yaml:"id"`
	Type    PropType   `json:"type" yaml:"type"`
	Trigger Trigger    `json:"trigger" yaml:"trigger"`
	Name    string     `json:"name" yaml:"name"`
	Config  PropConfig `json:"config" yaml:"config"`
}

// Look is a named bundle of props.
type Look struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Props []Prop `json:"props" yaml:"props"`
}

// Clone returns a copy that shares no slices with l.
func (l Look) Clone() Look {
	out := l
	out.Props = append([]Prop(nil), l.Props...)
	return out
}

// Template binds a default Look to a liturgy element type.
type Template struct {
	ElementType string `json:"elementType" yaml:"element_type"`
	Look        Look   `json:"look" yaml:"look"`
}

// PlaceholderContext supplies values for {{key}} tokens.
type PlaceholderContext map[string]string

// Clone copies the context.
func (c PlaceholderContext) Clone() PlaceholderContext {
	if c == nil {
		return nil
	}
	out := make(PlaceholderContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// ResolvePlaceholders replaces every {{key}} present in ctx. Unknown keys are
// left as written.
func ResolvePlaceholders(s string, ctx PlaceholderContext) string {
	if len(ctx) == 0 {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		if v, ok := ctx[key]; ok {
			return v
		}
		return token
	})
}

// ResolveProp returns p with placeholders substituted in its text fields.
func ResolveProp(p Prop, ctx PlaceholderContext) Prop {
	p.Config.Content = ResolvePlaceholders(p.Config.Content, ctx)
	p.Config.Subtitle = ResolvePlaceholders(p.Config.Subtitle, ctx)
	return p
}
