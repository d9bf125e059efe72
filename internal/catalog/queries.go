package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dataset is the read model for one catalog entry.
type Dataset struct {
	ID                 int64   `json:"id"`
	Slug               string  `json:"slug"`
	Title              string  `json:"title"`
	Summary            *string `json:"summary,omitempty"`
	ServiceDescription *string `json:"service_description,omitempty"`
	ServiceURL         *string `json:"service_url,omitempty"`
	ServiceType        *string `json:"service_type,omitempty"`
	MapServerPath      *string `json:"mapserver_path,omitempty"`
	GeographicScope    *string `json:"geographic_scope,omitempty"`
	UpdateFrequency    *string `json:"update_frequency,omitempty"`
	DocumentKeywords   *string `json:"document_keywords,omitempty"`
	LineageStatus      *string `json:"lineage_status,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// Layer is the read model for one layer row.
type Layer struct {
	ID           int64    `json:"id"`
	DatasetID    int64    `json:"dataset_id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	GeometryType *string  `json:"geometry_type,omitempty"`
	Visible      bool     `json:"default_visibility"`
	MinScale     *float64 `json:"min_scale,omitempty"`
	MaxScale     *float64 `json:"max_scale,omitempty"`
	Keywords     *string  `json:"keywords,omitempty"`
}

// UseCase is the read model for a dashboard scenario.
type UseCase struct {
	ID          int64   `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

const datasetColumns = `id, slug, title, summary, service_description, service_url,
	service_type, mapserver_path, geographic_scope, update_frequency,
	document_keywords, lineage_status, created_at, updated_at`

func scanDataset(row interface{ Scan(...any) error }) (Dataset, error) {
	var d Dataset
	err := row.Scan(&d.ID, &d.Slug, &d.Title, &d.Summary, &d.ServiceDescription,
		&d.ServiceURL, &d.ServiceType, &d.MapServerPath, &d.GeographicScope,
		&d.UpdateFrequency, &d.DocumentKeywords, &d.LineageStatus,
		&d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// GetDataset fetches one dataset by slug, or ErrDatasetNotFound.
func (s *Store) GetDataset(ctx context.Context, slug string) (Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+datasetColumns+" FROM datasets WHERE slug = ?", slug)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, fmt.Errorf("%w: %q", ErrDatasetNotFound, slug)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("get dataset %q: %w", slug, err)
	}
	return d, nil
}

// ListDatasets returns all datasets ordered by slug.
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+datasetColumns+" FROM datasets ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("list datasets: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return out, nil
}

// ListLayers returns a dataset's layers in insertion order.
func (s *Store) ListLayers(ctx context.Context, datasetID int64) ([]Layer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset_id, layer_name, description, geometry_type,
		       default_visibility, min_scale, max_scale, keywords
		FROM layers
		WHERE dataset_id = ?
		ORDER BY id
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Layer
	for rows.Next() {
		var l Layer
		var visible int
		if err := rows.Scan(&l.ID, &l.DatasetID, &l.Name, &l.Description,
			&l.GeometryType, &visible, &l.MinScale, &l.MaxScale, &l.Keywords); err != nil {
			return nil, fmt.Errorf("list layers: scan: %w", err)
		}
		l.Visible = visible != 0
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	return out, nil
}

// ListUseCases returns every use case ordered by slug.
func (s *Store) ListUseCases(ctx context.Context) ([]UseCase, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, slug, name, description FROM use_cases ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("list use cases: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []UseCase
	for rows.Next() {
		var u UseCase
		if err := rows.Scan(&u.ID, &u.Slug, &u.Name, &u.Description); err != nil {
			return nil, fmt.Errorf("list use cases: scan: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list use cases: %w", err)
	}
	return out, nil
}

// DeleteDataset removes a dataset by slug. Child rows cascade; nl_queries
// keep their rows with the dataset reference nulled.
func (s *Store) DeleteDataset(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM datasets WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("delete dataset %q: %w", slug, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset %q: rows affected: %w", slug, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrDatasetNotFound, slug)
	}
	return nil
}
