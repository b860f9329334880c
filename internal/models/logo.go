package models

// Logo size bounds, in percent of canvas width.
const (
	LogoMinSize = 5.0
	LogoMaxSize = 25.0
)

// LogoOverlayID addresses the logo in overlay drag and move operations.
const LogoOverlayID = "logo"

// LogoSettings is the concrete logo placement for one slide.
type LogoSettings struct {
	Visible  bool     `json:"visible"`
	Position Position `json:"position"`
	Size     float64  `json:"size"`
}

// Normalize clamps position and size into their valid ranges.
func (l LogoSettings) Normalize() LogoSettings {
	l.Position = l.Position.Clamp()
	l.Size = clamp(l.Size, LogoMinSize, LogoMaxSize)
	return l
}

// LogoOverride is a partial LogoSettings. Nil fields fall through to the
// global settings.
type LogoOverride struct {
	Visible  *bool     `json:"visible,omitempty"`
	Position *Position `json:"position,omitempty"`
	Size     *float64  `json:"size,omitempty"`
}

// Empty reports whether the override sets nothing.
func (o LogoOverride) Empty() bool {
	return o.Visible == nil && o.Position == nil && o.Size == nil
}

// Clone copies the pointed-to values.
func (o LogoOverride) Clone() LogoOverride {
	var out LogoOverride
	if o.Visible != nil {
		v := *o.Visible
		out.Visible = &v
	}
	if o.Position != nil {
		p := *o.Position
		out.Position = &p
	}
	if o.Size != nil {
		s := *o.Size
		out.Size = &s
	}
	return out
}

// Merge returns o with every field set in patch replaced.
func (o LogoOverride) Merge(patch LogoOverride) LogoOverride {
	out := o.Clone()
	p := patch.Clone()
	if p.Visible != nil {
		out.Visible = p.Visible
	}
	if p.Position != nil {
		out.Position = p.Position
	}
	if p.Size != nil {
		out.Size = p.Size
	}
	return out
}

// ApplyTo layers the override over base field by field.
func (o LogoOverride) ApplyTo(base LogoSettings) LogoSettings {
	if o.Visible != nil {
		base.Visible = *o.Visible
	}
	if o.Position != nil {
		base.Position = *o.Position
	}
	if o.Size != nil {
		base.Size = *o.Size
	}
	return base.Normalize()
}

// Logo holds the global settings and per-slide overrides keyed by slide
// index.
type Logo struct {
	Global    LogoSettings         `json:"global"`
	Overrides map[int]LogoOverride `json:"overrides,omitempty"`
}

// DefaultLogo places a medium logo in the bottom-right corner.
func DefaultLogo() Logo {
	return Logo{Global: LogoSettings{Visible: true, Position: Position{X: 85, Y: 85}, Size: 15}}
}

// Clone deep-copies the overrides map.
func (l Logo) Clone() Logo {
	out := Logo{Global: l.Global}
	if l.Overrides != nil {
		out.Overrides = make(map[int]LogoOverride, len(l.Overrides))
		for k, v := range l.Overrides {
			out.Overrides[k] = v.Clone()
		}
	}
	return out
}

// Effective resolves the logo for slideIndex. Overrides keyed outside
// 0..slideCount-1 are stale and ignored; they are never removed here.
func (l Logo) Effective(slideIndex, slideCount int) LogoSettings {
	global := l.Global.Normalize()
	if slideIndex < 0 || slideIndex >= slideCount {
		return global
	}
	o, ok := l.Overrides[slideIndex]
	if !ok {
		return global
	}
	return o.ApplyTo(global)
}
