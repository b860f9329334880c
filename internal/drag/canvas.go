package drag

// Canvas is the base coordinate system of the output, in base units.
type Canvas struct {
	Width  int `json:"width" toml:"base_width"`
	Height int `json:"height" toml:"base_height"`
}

// DefaultCanvas matches the 4:3 projector layout used for service slides.
var DefaultCanvas = Canvas{Width: 1024, Height: 768}

// ToPercent converts a base point to canvas percentages, clamped to 0..100.
func (c Canvas) ToPercent(x, y int) (float64, float64) {
	return percent(x, c.Width), percent(y, c.Height)
}

// FromPercent converts canvas percentages to base units.
func (c Canvas) FromPercent(px, py float64) (float64, float64) {
	return px / 100 * float64(c.Width), py / 100 * float64(c.Height)
}

func percent(v, size int) float64 {
	if size <= 0 {
		return 0
	}
	p := float64(v) / float64(size) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
