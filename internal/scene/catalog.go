package scene

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"worship-presenter/internal/textutil"
)

//go:embed catalog.yaml
var defaultCatalog []byte

//go:embed catalog.schema.json
var catalogSchema string

// ErrInvalidCatalog wraps schema violations.
var ErrInvalidCatalog = errors.New("invalid scene catalog")

// CatalogDocument is the on-disk shape of a scene catalog.
type CatalogDocument struct {
	Templates []Template `json:"templates" yaml:"templates"`
}

// Catalog is an in-memory LookSource.
type Catalog struct {
	templates map[string]Look
}

var _ LookSource = (*Catalog)(nil)

// DefaultCatalog returns the built-in templates for the usual order of
// service.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog validates a YAML (or JSON) catalog against the catalog schema
// and builds a Catalog from it.
func ParseCatalog(data []byte) (*Catalog, error) {
	doc, err := DecodeCatalog(data)
	if err != nil {
		return nil, err
	}
	c := &Catalog{templates: make(map[string]Look, len(doc.Templates))}
	for _, t := range doc.Templates {
		c.templates[textutil.Slug(t.ElementType)] = t.Look
	}
	return c, nil
}

// DecodeCatalog validates and decodes a catalog document without building a
// Catalog. Element types are normalised to slugs.
func DecodeCatalog(data []byte) (CatalogDocument, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return CatalogDocument{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewGoLoader(generic),
	)
	if err != nil {
		return CatalogDocument{}, fmt.Errorf("validate catalog: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return CatalogDocument{}, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
	}

	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return CatalogDocument{}, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range doc.Templates {
		doc.Templates[i].ElementType = textutil.Slug(doc.Templates[i].ElementType)
	}
	return doc, nil
}

// Templates lists the catalog's templates.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.templates))
	for k, look := range c.templates {
		out = append(out, Template{ElementType: k, Look: look.Clone()})
	}
	return out
}

func (c *Catalog) ElementLook(context.Context, string) (Look, bool, error) {
	return Look{}, false, nil
}

func (c *Catalog) TemplateLook(_ context.Context, elementType string) (Look, bool, error) {
	look, ok := c.templates[elementType]
	if !ok {
		return Look{}, false, nil
	}
	return look.Clone(), true, nil
}
