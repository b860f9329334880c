package scene

import (
	"context"
	"fmt"

	"worship-presenter/internal/textutil"
)

// LookSource supplies Looks. Implementations return ok=false when they hold
// nothing for the key.
type LookSource interface {
	ElementLook(ctx context.Context, elementID string) (Look, bool, error)
	TemplateLook(ctx context.Context, elementType string) (Look, bool, error)
}

// Registry finds the Look for an element by consulting sources in order.
type Registry struct {
	sources []LookSource
}

// NewRegistry returns a registry over sources; earlier sources win.
func NewRegistry(sources ...LookSource) *Registry {
	return &Registry{sources: sources}
}

// Lookup returns the element's own Look if one is set, else the template for
// its type, else an empty Look.
func (r *Registry) Lookup(ctx context.Context, elementType, elementID string) (Look, error) {
	if elementID != "" {
		for _, src := range r.sources {
			look, ok, err := src.ElementLook(ctx, elementID)
			if err != nil {
				return Look{}, fmt.Errorf("element look %s: %w", elementID, err)
			}
			if ok {
				return look, nil
			}
		}
	}
	key := textutil.Slug(elementType)
	if key != "" {
		for _, src := range r.sources {
			look, ok, err := src.TemplateLook(ctx, key)
			if err != nil {
				return Look{}, fmt.Errorf("template look %s: %w", key, err)
			}
			if ok {
				return look, nil
			}
		}
	}
	return Look{Props: []Prop{}}, nil
}
