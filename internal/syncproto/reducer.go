package syncproto

import (
	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

// Apply returns st with msg applied. The bool is false when msg is not a
// state change this reducer knows (unknown type, REQUEST_STATE, malformed or
// invalid payload); st is then returned as is. The input is never modified.
func Apply(st models.PresentationState, msg models.SyncMessage) (models.PresentationState, bool) {
	switch msg.Type {
	case models.MsgStateSync:
		var p models.StateSyncPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		return normalize(p.State), true

	case models.MsgSetSlides:
		var p models.SlidesPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		out := st.Clone()
		out.Slides = append([]models.SlideRef{}, p.Slides...)
		if out.CurrentSlideIndex >= len(out.Slides) {
			out.CurrentSlideIndex = max(len(out.Slides)-1, 0)
		}
		return out, true

	case models.MsgNavigate:
		var p models.NavigatePayload
		if msg.Decode(&p) != nil || p.SlideIndex < 0 {
			return st, false
		}
		out := st.Clone()
		out.CurrentSlideIndex = p.SlideIndex
		return out, true

	case models.MsgSetBlack, models.MsgSetLive:
		var p models.FlagPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		out := st.Clone()
		if msg.Type == models.MsgSetBlack {
			out.IsBlack = p.Value
		} else {
			out.IsLive = p.Value
		}
		return out, true

	case models.MsgUpdateGlobalLogo:
		var p models.GlobalLogoPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		out := st.Clone()
		out.Logo.Global = p.Patch.ApplyTo(out.Logo.Global)
		return out, true

	case models.MsgSetLogoOverride:
		var p models.LogoOverridePayload
		if msg.Decode(&p) != nil || p.SlideIndex < 0 {
			return st, false
		}
		out := st.Clone()
		if out.Logo.Overrides == nil {
			out.Logo.Overrides = make(map[int]models.LogoOverride)
		}
		out.Logo.Overrides[p.SlideIndex] = out.Logo.Overrides[p.SlideIndex].Merge(p.Override)
		return out, true

	case models.MsgRemoveLogoOverride:
		var p models.SlideIndexPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		out := st.Clone()
		delete(out.Logo.Overrides, p.SlideIndex)
		return out, true

	case models.MsgApplyStyles:
		var p models.ApplyStylesPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		styles, err := style.Apply(st.Styles, p.Styles, p.Scope)
		if err != nil {
			return st, false
		}
		out := st.Clone()
		out.Styles = styles
		return out, true

	case models.MsgResetStyles:
		var p models.ResetStylesPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		styles, err := style.Reset(st.Styles, p.Scope)
		if err != nil {
			return st, false
		}
		out := st.Clone()
		out.Styles = styles
		return out, true

	case models.MsgSceneEnter:
		var p models.SceneEnterPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		out := st.Clone()
		out.Scene = p.Scene.Clone()
		return out, true

	case models.MsgSceneLeave:
		out := st.Clone()
		out.Scene = scene.Leave()
		return out, true

	case models.MsgShowArmedProp, models.MsgHideProp:
		var p models.PropPayload
		if msg.Decode(&p) != nil || p.PropID == "" {
			return st, false
		}
		out := st.Clone()
		if msg.Type == models.MsgShowArmedProp {
			out.Scene, _ = scene.ShowArmed(out.Scene, p.PropID)
		} else {
			out.Scene, _ = scene.Hide(out.Scene, p.PropID)
		}
		return out, true

	case models.MsgUpsertTextOverlay:
		var p models.TextOverlayPayload
		if msg.Decode(&p) != nil || p.Overlay.ID == "" {
			return st, false
		}
		out := st.Clone()
		o := p.Overlay
		o.Position = o.Position.Clamp()
		out.TextOverlays = upsert(out.TextOverlays, o, func(t models.TextOverlay) string { return t.ID })
		return out, true

	case models.MsgUpsertImageOverlay:
		var p models.ImageOverlayPayload
		if msg.Decode(&p) != nil || p.Overlay.ID == "" {
			return st, false
		}
		out := st.Clone()
		o := p.Overlay
		o.Position = o.Position.Clamp()
		out.ImageOverlays = upsert(out.ImageOverlays, o, func(i models.ImageOverlay) string { return i.ID })
		return out, true

	case models.MsgRemoveOverlay:
		var p models.OverlayIDPayload
		if msg.Decode(&p) != nil || p.ID == "" {
			return st, false
		}
		out := st.Clone()
		out.TextOverlays = remove(out.TextOverlays, p.ID, func(t models.TextOverlay) string { return t.ID })
		out.ImageOverlays = remove(out.ImageOverlays, p.ID, func(i models.ImageOverlay) string { return i.ID })
		return out, true

	case models.MsgMoveOverlay:
		var p models.MoveOverlayPayload
		if msg.Decode(&p) != nil || p.ID == "" {
			return st, false
		}
		out := st.Clone()
		pos := p.Position.Clamp()
		if p.ID == models.LogoOverlayID {
			out.Logo.Global.Position = pos
			return out, true
		}
		for i := range out.TextOverlays {
			if out.TextOverlays[i].ID == p.ID {
				out.TextOverlays[i].Position = pos
			}
		}
		for i := range out.ImageOverlays {
			if out.ImageOverlays[i].ID == p.ID {
				out.ImageOverlays[i].Position = pos
			}
		}
		return out, true

	case models.MsgSetVideoBackground:
		var p models.VideoBackgroundPayload
		if msg.Decode(&p) != nil {
			return st, false
		}
		out := st.Clone()
		if p.Video != nil {
			v := *p.Video
			out.VideoBackground = &v
		} else {
			out.VideoBackground = nil
		}
		return out, true
	}
	return st, false
}

// normalize fills the collections a decoded state may carry as null.
func normalize(st models.PresentationState) models.PresentationState {
	if st.TextOverlays == nil {
		st.TextOverlays = []models.TextOverlay{}
	}
	if st.ImageOverlays == nil {
		st.ImageOverlays = []models.ImageOverlay{}
	}
	if st.Slides == nil {
		st.Slides = []models.SlideRef{}
	}
	if st.Scene.Phase == "" {
		st.Scene = scene.Idle()
	}
	if st.Scene.ActiveProps == nil {
		st.Scene.ActiveProps = []scene.Prop{}
	}
	if st.Scene.ArmedProps == nil {
		st.Scene.ArmedProps = []scene.Prop{}
	}
	if st.CurrentSlideIndex < 0 {
		st.CurrentSlideIndex = 0
	}
	return st
}

func upsert[T any](list []T, item T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(item) {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func remove[T any](list []T, key string, id func(T) string) []T {
	out := list[:0]
	for _, item := range list {
		if id(item) != key {
			out = append(out, item)
		}
	}
	return out
}
