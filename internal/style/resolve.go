package style

// Resolve returns the fully populated style for a slide and, optionally, an
// element inside it. An empty elementID means no element layer applies.
// Inputs are never modified and the result shares no memory with them.
func Resolve(state State, slideID, elementID string) SlideStyles {
	layers := make([]SlideStyles, 0, 4)
	if elementID != "" {
		if s, ok := state.ByElement[elementID]; ok {
			layers = append(layers, s)
		}
	}
	if slideID != "" {
		if s, ok := state.BySlide[slideID]; ok {
			layers = append(layers, s)
		}
	}
	layers = append(layers, state.All, Default())

	var out SlideStyles
	for _, layer := range layers {
		if out.Font == nil {
			out.Font = layer.Font
		}
		if out.TextBackground == nil {
			out.TextBackground = layer.TextBackground
		}
		if out.SlideBackground == nil {
			out.SlideBackground = layer.SlideBackground
		}
	}
	return out.Clone()
}

// Apply merge-writes styles into the layer addressed by scope. Groups that are
// nil in styles keep their current value in that layer. The input state is
// not modified.
func Apply(state State, styles SlideStyles, scope Scope) (State, error) {
	if err := scope.Validate(); err != nil {
		return state, err
	}
	out := state.Clone()
	switch scope.Kind {
	case ScopeAll:
		out.All = out.All.merge(styles)
	case ScopeSlide:
		if out.BySlide == nil {
			out.BySlide = make(map[string]SlideStyles)
		}
		out.BySlide[scope.ID] = out.BySlide[scope.ID].merge(styles)
	case ScopeElement:
		if out.ByElement == nil {
			out.ByElement = make(map[string]SlideStyles)
		}
		out.ByElement[scope.ID] = out.ByElement[scope.ID].merge(styles)
	}
	return out, nil
}

// Reset clears the layer addressed by scope and nothing else.
func Reset(state State, scope Scope) (State, error) {
	if err := scope.Validate(); err != nil {
		return state, err
	}
	out := state.Clone()
	switch scope.Kind {
	case ScopeAll:
		out.All = SlideStyles{}
	case ScopeSlide:
		delete(out.BySlide, scope.ID)
	case ScopeElement:
		delete(out.ByElement, scope.ID)
	}
	return out, nil
}
