package syncproto

import "errors"

var (
	// ErrInvalidSlide is returned for a slide index outside the loaded deck.
	ErrInvalidSlide = errors.New("invalid slide index")
	// ErrNotFound is returned when an overlay or prop id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrClosed is returned by operations on a closed presenter.
	ErrClosed = errors.New("presenter closed")
)
