package services

import "errors"

var (
	// ErrNotFound is returned when a template, look or session is missing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLook is returned for looks with missing ids or unknown prop
	// types and triggers.
	ErrInvalidLook = errors.New("invalid look")
)
