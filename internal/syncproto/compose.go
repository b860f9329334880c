package syncproto

import (
	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/style"
)

// Frame is what the renderer needs for one tick. Black takes precedence over
// live content but leaves the slide pointer alone.
type Frame struct {
	Waiting         bool                    `json:"waiting"`
	IsLive          bool                    `json:"isLive"`
	IsBlack         bool                    `json:"isBlack"`
	SlideIndex      int                     `json:"slideIndex"`
	Slide           *models.SlideRef        `json:"slide,omitempty"`
	Styles          style.SlideStyles       `json:"styles"`
	Logo            models.LogoSettings     `json:"logo"`
	TextOverlays    []models.TextOverlay    `json:"textOverlays"`
	ImageOverlays   []models.ImageOverlay   `json:"imageOverlays"`
	Props           []scene.Prop            `json:"props"`
	VideoBackground *models.VideoBackground `json:"videoBackground,omitempty"`
}

// WaitingFrame is rendered while no presenter has answered.
func WaitingFrame() Frame {
	return Frame{
		Waiting:       true,
		Styles:        style.Default(),
		TextOverlays:  []models.TextOverlay{},
		ImageOverlays: []models.ImageOverlay{},
		Props:         []scene.Prop{},
	}
}

// Compose resolves st into a render frame.
func Compose(st models.PresentationState) Frame {
	f := Frame{
		IsLive:        st.IsLive,
		IsBlack:       st.IsBlack,
		SlideIndex:    st.CurrentSlideIndex,
		TextOverlays:  []models.TextOverlay{},
		ImageOverlays: []models.ImageOverlay{},
		Props:         append([]scene.Prop{}, st.Scene.ActiveProps...),
	}

	var slideID, elementID string
	if slide, ok := st.CurrentSlide(); ok {
		slide.TextColors = append([]string(nil), slide.TextColors...)
		slide.Placeholders = slide.Placeholders.Clone()
		f.Slide = &slide
		slideID, elementID = slide.ID, slide.ElementID
	}
	f.Styles = style.Resolve(st.Styles, slideID, elementID)
	f.Logo = st.Logo.Effective(st.CurrentSlideIndex, len(st.Slides))

	for _, o := range st.TextOverlays {
		if o.Visible {
			f.TextOverlays = append(f.TextOverlays, o)
		}
	}
	for _, o := range st.ImageOverlays {
		if o.Visible {
			f.ImageOverlays = append(f.ImageOverlays, o)
		}
	}
	if st.VideoBackground != nil {
		v := *st.VideoBackground
		f.VideoBackground = &v
	}
	return f
}
