// Package style resolves the three style layers of a presentation (all
// slides, one slide, one element) into the concrete style used to render a
// slide.
//
// Resolution is per style group: an element layer that only sets Font still
// inherits TextBackground and SlideBackground from the slide layer, the
// global layer or Default, in that order.
package style
