package scene

// Phase is the scene lifecycle position.
type Phase string

const (
	// PhaseIdle means no element is entered and no prop is shown.
	PhaseIdle Phase = "idle"
	// PhaseInElement means an element's Look is in effect.
	PhaseInElement Phase = "in_element"
)

// State is the prop set of the current element. It is recomputed from the
// element's Look on every Enter, including repeat visits.
type State struct {
	Phase              Phase              `json:"phase"`
	CurrentElementID   string             `json:"currentElementId,omitempty"`
	CurrentElementType string             `json:"currentElementType,omitempty"`
	CurrentLook        Look               `json:"currentLook"`
	ActiveProps        []Prop             `json:"activeProps"`
	ArmedProps         []Prop             `json:"armedProps"`
	PlaceholderContext PlaceholderContext `json:"placeholderContext,omitempty"`
}

// Idle is the state before any element is entered.
func Idle() State {
	return State{Phase: PhaseIdle, ActiveProps: []Prop{}, ArmedProps: []Prop{}}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := s
	out.CurrentLook = s.CurrentLook.Clone()
	out.ActiveProps = append([]Prop{}, s.ActiveProps...)
	out.ArmedProps = append([]Prop{}, s.ArmedProps...)
	out.PlaceholderContext = s.PlaceholderContext.Clone()
	return out
}

// Enter derives the state for an element from its Look. Auto props are
// resolved and active immediately; armed props wait in ArmedProps.
func Enter(look Look, elementType, elementID string, ctx PlaceholderContext) State {
	st := State{
		Phase:              PhaseInElement,
		CurrentElementID:   elementID,
		CurrentElementType: elementType,
		CurrentLook:        look.Clone(),
		ActiveProps:        []Prop{},
		ArmedProps:         []Prop{},
		PlaceholderContext: ctx.Clone(),
	}
	for _, p := range look.Props {
		switch p.Trigger {
		case TriggerAuto:
			st.ActiveProps = append(st.ActiveProps, ResolveProp(p, ctx))
		case TriggerArmed:
			st.ArmedProps = append(st.ArmedProps, p)
		}
	}
	return st
}

// Leave clears every prop unconditionally.
func Leave() State { return Idle() }

// ShowArmed moves propID from ArmedProps to ActiveProps. Showing a prop that
// is already active, or unknown, returns the state unchanged and false.
func ShowArmed(s State, propID string) (State, bool) {
	idx := indexOf(s.ArmedProps, propID)
	if idx < 0 {
		return s, false
	}
	out := s.Clone()
	p := out.ArmedProps[idx]
	out.ArmedProps = append(out.ArmedProps[:idx], out.ArmedProps[idx+1:]...)
	if indexOf(out.ActiveProps, propID) < 0 {
		out.ActiveProps = append(out.ActiveProps, ResolveProp(p, out.PlaceholderContext))
	}
	return out, true
}

// Hide takes an active prop off screen. Armed props go back to ArmedProps so
// they can be shown again; auto props are simply dropped until the element is
// re-entered.
func Hide(s State, propID string) (State, bool) {
	idx := indexOf(s.ActiveProps, propID)
	if idx < 0 {
		return s, false
	}
	out := s.Clone()
	shown := out.ActiveProps[idx]
	out.ActiveProps = append(out.ActiveProps[:idx], out.ActiveProps[idx+1:]...)
	if shown.Trigger == TriggerArmed {
		for _, p := range out.CurrentLook.Props {
			if p.ID == propID {
				out.ArmedProps = append(out.ArmedProps, p)
				break
			}
		}
	}
	return out, true
}

// IsActive reports whether propID is on screen.
func (s State) IsActive(propID string) bool { return indexOf(s.ActiveProps, propID) >= 0 }

// IsArmed reports whether propID is waiting for a show command.
func (s State) IsArmed(propID string) bool { return indexOf(s.ArmedProps, propID) >= 0 }

func indexOf(props []Prop, id string) int {
	for i, p := range props {
		if p.ID == id {
			return i
		}
	}
	return -1
}
