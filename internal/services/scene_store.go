package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"worship-presenter/internal/scene"
	"worship-presenter/internal/textutil"
)

// SceneStore keeps scene templates per element type and Look overrides per
// element in sqlite. It is a scene.LookSource.
type SceneStore struct {
	database *sql.DB
	log      *slog.Logger
}

// NewSceneStore creates a new scene store
func NewSceneStore(database *sql.DB, logger *slog.Logger) *SceneStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SceneStore{
		database: database,
		log:      logger,
	}
}

// PutTemplate creates or replaces the template for tpl.ElementType. Missing
// look and prop ids are generated.
func (s *SceneStore) PutTemplate(ctx context.Context, tpl scene.Template) (scene.Template, error) {
	tpl.ElementType = textutil.Slug(tpl.ElementType)
	if tpl.ElementType == "" {
		return scene.Template{}, fmt.Errorf("%w: element type is required", ErrInvalidLook)
	}
	look, err := prepareLook(tpl.Look, textutil.Title(tpl.ElementType))
	if err != nil {
		return scene.Template{}, err
	}
	tpl.Look = look

	if err := upsertTemplate(ctx, s.database, tpl); err != nil {
		return scene.Template{}, err
	}
	s.log.Info("scene template saved", "element_type", tpl.ElementType, "props", len(look.Props))
	return tpl, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertTemplate(ctx context.Context, ex execer, tpl scene.Template) error {
	data, err := json.Marshal(tpl.Look)
	if err != nil {
		return fmt.Errorf("failed to encode look: %w", err)
	}
	now := time.Now()
	query := `INSERT INTO scene_templates (element_type, look_id, name, look_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(element_type) DO UPDATE SET
			look_id = excluded.look_id, name = excluded.name,
			look_json = excluded.look_json, updated_at = excluded.updated_at`
	if _, err := ex.ExecContext(ctx, query, tpl.ElementType, tpl.Look.ID, tpl.Look.Name, string(data), now, now); err != nil {
		return fmt.Errorf("failed to save template %s: %w", tpl.ElementType, err)
	}
	return nil
}

// GetTemplate returns the template for an element type
func (s *SceneStore) GetTemplate(ctx context.Context, elementType string) (scene.Template, error) {
	key := textutil.Slug(elementType)
	var data string
	err := s.database.QueryRowContext(ctx,
		`SELECT look_json FROM scene_templates WHERE element_type = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return scene.Template{}, fmt.Errorf("%w: template %s", ErrNotFound, key)
	}
	if err != nil {
		return scene.Template{}, fmt.Errorf("failed to query template: %w", err)
	}
	look, err := decodeLook(data)
	if err != nil {
		return scene.Template{}, err
	}
	return scene.Template{ElementType: key, Look: look}, nil
}

// ListTemplates returns all templates ordered by element type
func (s *SceneStore) ListTemplates(ctx context.Context) ([]scene.Template, error) {
	rows, err := s.database.QueryContext(ctx,
		`SELECT element_type, look_json FROM scene_templates ORDER BY element_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	templates := []scene.Template{}
	for rows.Next() {
		var elementType, data string
		if err := rows.Scan(&elementType, &data); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		look, err := decodeLook(data)
		if err != nil {
			return nil, err
		}
		templates = append(templates, scene.Template{ElementType: elementType, Look: look})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes the template for an element type
func (s *SceneStore) DeleteTemplate(ctx context.Context, elementType string) error {
	key := textutil.Slug(elementType)
	result, err := s.database.ExecContext(ctx, `DELETE FROM scene_templates WHERE element_type = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if err := expectRow(result, "template "+key); err != nil {
		return err
	}
	s.log.Info("scene template deleted", "element_type", key)
	return nil
}

// PutElementLook sets the Look override for one element.
func (s *SceneStore) PutElementLook(ctx context.Context, elementID, elementType string, look scene.Look) (scene.Look, error) {
	elementID = strings.TrimSpace(elementID)
	if elementID == "" {
		return scene.Look{}, fmt.Errorf("%w: element id is required", ErrInvalidLook)
	}
	look, err := prepareLook(look, elementID)
	if err != nil {
		return scene.Look{}, err
	}
	data, err := json.Marshal(look)
	if err != nil {
		return scene.Look{}, fmt.Errorf("failed to encode look: %w", err)
	}

	now := time.Now()
	query := `INSERT INTO element_looks (element_id, element_type, look_id, look_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(element_id) DO UPDATE SET
			element_type = excluded.element_type, look_id = excluded.look_id,
			look_json = excluded.look_json, updated_at = excluded.updated_at`
	if _, err := s.database.ExecContext(ctx, query, elementID, textutil.Slug(elementType), look.ID, string(data), now, now); err != nil {
		return scene.Look{}, fmt.Errorf("failed to save element look: %w", err)
	}
	s.log.Info("element look saved", "element_id", elementID, "props", len(look.Props))
	return look, nil
}

// GetElementLook returns the Look override for one element
func (s *SceneStore) GetElementLook(ctx context.Context, elementID string) (scene.Look, error) {
	var data string
	err := s.database.QueryRowContext(ctx,
		`SELECT look_json FROM element_looks WHERE element_id = ?`, elementID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return scene.Look{}, fmt.Errorf("%w: look for element %s", ErrNotFound, elementID)
	}
	if err != nil {
		return scene.Look{}, fmt.Errorf("failed to query element look: %w", err)
	}
	return decodeLook(data)
}

// DeleteElementLook removes an element's override so its template applies again
func (s *SceneStore) DeleteElementLook(ctx context.Context, elementID string) error {
	result, err := s.database.ExecContext(ctx, `DELETE FROM element_looks WHERE element_id = ?`, elementID)
	if err != nil {
		return fmt.Errorf("failed to delete element look: %w", err)
	}
	if err := expectRow(result, "look for element "+elementID); err != nil {
		return err
	}
	s.log.Info("element look deleted", "element_id", elementID)
	return nil
}

// ImportCatalog validates a YAML or JSON catalog against the catalog schema
// and upserts every template in one transaction.
func (s *SceneStore) ImportCatalog(ctx context.Context, data []byte) (int, error) {
	cat, err := scene.ParseCatalog(data)
	if err != nil {
		return 0, err
	}
	templates := cat.Templates()
	for i := range templates {
		look, err := prepareLook(templates[i].Look, textutil.Title(templates[i].ElementType))
		if err != nil {
			return 0, fmt.Errorf("template %s: %w", templates[i].ElementType, err)
		}
		templates[i].Look = look
	}

	tx, err := s.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, tpl := range templates {
		if err := upsertTemplate(ctx, tx, tpl); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	s.log.Info("scene catalog imported", "templates", len(templates))
	return len(templates), nil
}

// SeedDefaults imports the embedded catalog for element types that have no
// template yet.
func (s *SceneStore) SeedDefaults(ctx context.Context) (int, error) {
	cat, err := scene.DefaultCatalog()
	if err != nil {
		return 0, err
	}
	seeded := 0
	for _, tpl := range cat.Templates() {
		_, err := s.GetTemplate(ctx, tpl.ElementType)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return seeded, err
		}
		if _, err := s.PutTemplate(ctx, tpl); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

// ElementLook implements scene.LookSource.
func (s *SceneStore) ElementLook(ctx context.Context, elementID string) (scene.Look, bool, error) {
	look, err := s.GetElementLook(ctx, elementID)
	if errors.Is(err, ErrNotFound) {
		return scene.Look{}, false, nil
	}
	if err != nil {
		return scene.Look{}, false, err
	}
	return look, true, nil
}

// TemplateLook implements scene.LookSource.
func (s *SceneStore) TemplateLook(ctx context.Context, elementType string) (scene.Look, bool, error) {
	tpl, err := s.GetTemplate(ctx, elementType)
	if errors.Is(err, ErrNotFound) {
		return scene.Look{}, false, nil
	}
	if err != nil {
		return scene.Look{}, false, err
	}
	return tpl.Look, true, nil
}

// prepareLook fills generated ids and checks prop kinds.
func prepareLook(look scene.Look, defaultName string) (scene.Look, error) {
	look = look.Clone()
	if look.ID == "" {
		look.ID = uuid.NewString()
	}
	if strings.TrimSpace(look.Name) == "" {
		look.Name = defaultName
	}
	if look.Props == nil {
		look.Props = []scene.Prop{}
	}
	seen := make(map[string]bool, len(look.Props))
	for i := range look.Props {
		p := &look.Props[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if seen[p.ID] {
			return scene.Look{}, fmt.Errorf("%w: duplicate prop id %s", ErrInvalidLook, p.ID)
		}
		seen[p.ID] = true
		if !p.Type.Valid() {
			return scene.Look{}, fmt.Errorf("%w: prop %s has unknown type %q", ErrInvalidLook, p.ID, p.Type)
		}
		if !p.Trigger.Valid() {
			return scene.Look{}, fmt.Errorf("%w: prop %s has unknown trigger %q", ErrInvalidLook, p.ID, p.Trigger)
		}
	}
	return look, nil
}

func decodeLook(data string) (scene.Look, error) {
	var look scene.Look
	if err := json.Unmarshal([]byte(data), &look); err != nil {
		return scene.Look{}, fmt.Errorf("failed to decode look: %w", err)
	}
	if look.Props == nil {
		look.Props = []scene.Prop{}
	}
	return look, nil
}

func expectRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}
