// Package catalog owns the relational schema for the librarian and provides
// atomic, idempotent write operations plus simple point lookups. It
// centralizes dataset metadata, lineage events, dashboard suitability, and
// query logs so the rest of the tooling (crawler, API, CLI) can fetch
// structured context without re-deriving relationships.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrUseCaseNotFound is returned when a use-case slug does not resolve.
var ErrUseCaseNotFound = errors.New("use case not found")

// ErrDatasetNotFound is returned by point lookups on a missing slug.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrScoreOutOfRange is returned when a suitability score falls outside [0,1].
var ErrScoreOutOfRange = errors.New("suitability score out of range [0,1]")

// Store is a thin repository over a single SQLite file. It holds one
// connection for its lifetime; every mutating operation commits before
// returning. Callers own the lifecycle: open at construction, Close on every
// exit path.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the parent directory if needed and opens the SQLite file.
// Foreign-key enforcement rides in the DSN so any connection the pool
// establishes gets it, not just the first.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	// A single connection matches the store's synchronous, single-writer
	// contract.
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path}, nil
}

// Path returns the location of the backing SQLite file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close catalog db: %w", err)
	}
	return nil
}

// Initialize creates all tables and indexes if absent. Safe to re-run against
// an existing store.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply catalog schema: %w", err)
	}
	return nil
}

// SeedUseCases ensures baseline dashboard/use-case records exist, upserting
// name and description by slug. It returns the number of rows actually
// changed, for observability only.
func (s *Store) SeedUseCases(ctx context.Context, seeds []UseCaseSeed) (int64, error) {
	var changed int64
	for _, seed := range seeds {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO use_cases (slug, name, description)
			VALUES (?, ?, ?)
			ON CONFLICT(slug) DO UPDATE SET
			    name = excluded.name,
			    description = excluded.description
		`, seed.Slug, seed.Name, seed.Description)
		if err != nil {
			return changed, fmt.Errorf("seed use case %q: %w", seed.Slug, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return changed, fmt.Errorf("seed use case %q: rows affected: %w", seed.Slug, err)
		}
		changed += n
	}
	return changed, nil
}

// DatasetFields carries everything register needs for a dataset row. Optional
// columns are pointers so absence persists as NULL rather than empty text.
type DatasetFields struct {
	Slug               string
	Title              string
	Summary            *string
	ServiceDescription *string
	ServiceURL         *string
	ServiceType        *string
	MapServerPath      *string
	GeographicScope    *string
	UpdateFrequency    *string
	DocumentKeywords   *string
	LineageStatus      *string
}

// RegisterDataset inserts a dataset or, when the slug already exists, updates
// every mutable field and bumps updated_at. It is the single write path for
// dataset metadata and returns the row id in both cases.
func (s *Store) RegisterDataset(ctx context.Context, f DatasetFields) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM datasets WHERE slug = ?", f.Slug).Scan(&id)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx, `
			UPDATE datasets
			SET title = ?,
			    summary = ?,
			    service_description = ?,
			    service_url = ?,
			    service_type = ?,
			    mapserver_path = ?,
			    geographic_scope = ?,
			    update_frequency = ?,
			    document_keywords = ?,
			    lineage_status = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, f.Title, f.Summary, f.ServiceDescription, f.ServiceURL, f.ServiceType,
			f.MapServerPath, f.GeographicScope, f.UpdateFrequency,
			f.DocumentKeywords, f.LineageStatus, id)
		if err != nil {
			return 0, fmt.Errorf("update dataset %q: %w", f.Slug, err)
		}
		return id, nil

	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO datasets (
			    slug, title, summary, service_description, service_url,
			    service_type, mapserver_path, geographic_scope,
			    update_frequency, document_keywords, lineage_status
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, f.Slug, f.Title, f.Summary, f.ServiceDescription, f.ServiceURL,
			f.ServiceType, f.MapServerPath, f.GeographicScope,
			f.UpdateFrequency, f.DocumentKeywords, f.LineageStatus)
		if err != nil {
			return 0, fmt.Errorf("insert dataset %q: %w", f.Slug, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert dataset %q: last id: %w", f.Slug, err)
		}
		return id, nil

	default:
		return 0, fmt.Errorf("lookup dataset %q: %w", f.Slug, err)
	}
}

// LayerFields carries one layer definition. Layers are not deduplicated by
// name: every call inserts a new row.
type LayerFields struct {
	Name         string
	Description  *string
	GeometryType *string
	Visible      bool
	MinScale     *float64
	MaxScale     *float64
	Keywords     []string
}

// AddLayer persists a layer definition tied to a dataset. The keyword list is
// normalized to a deduplicated, sorted, comma-joined blob, or left NULL when
// empty.
func (s *Store) AddLayer(ctx context.Context, datasetID int64, f LayerFields) (int64, error) {
	var keywordBlob *string
	if blob := joinKeywords(f.Keywords); blob != "" {
		keywordBlob = &blob
	}

	visible := 0
	if f.Visible {
		visible = 1
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO layers (
		    dataset_id, layer_name, description, geometry_type,
		    default_visibility, min_scale, max_scale, keywords
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, datasetID, f.Name, f.Description, f.GeometryType, visible,
		f.MinScale, f.MaxScale, keywordBlob)
	if err != nil {
		return 0, fmt.Errorf("insert layer %q: %w", f.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert layer %q: last id: %w", f.Name, err)
	}
	return id, nil
}

// RegisterKeywords attaches normalized keywords to a dataset. Each keyword is
// trimmed and lower-cased, inserted into the global keyword table only if
// absent, and joined to the dataset only if absent. Empty input is a no-op.
func (s *Store) RegisterKeywords(ctx context.Context, datasetID int64, keywords []string) error {
	normalized := normalizeKeywords(keywords)
	if len(normalized) == 0 {
		return nil
	}

	for _, keyword := range normalized {
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO keywords (value) VALUES (?)", keyword); err != nil {
			return fmt.Errorf("insert keyword %q: %w", keyword, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO dataset_keywords (dataset_id, keyword_id)
			SELECT ?, id FROM keywords WHERE value = ?
		`, datasetID, keyword); err != nil {
			return fmt.Errorf("link keyword %q: %w", keyword, err)
		}
	}
	return nil
}

// LineageEventFields describes one provenance step.
type LineageEventFields struct {
	EventType  string
	SourceName *string
	SourceURL  *string
	Notes      *string
}

// RecordLineageEvent appends an immutable provenance record and returns its id.
func (s *Store) RecordLineageEvent(ctx context.Context, datasetID int64, f LineageEventFields) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO lineage_events (dataset_id, event_type, source_name, source_url, notes)
		VALUES (?, ?, ?, ?, ?)
	`, datasetID, f.EventType, f.SourceName, f.SourceURL, f.Notes)
	if err != nil {
		return 0, fmt.Errorf("record lineage event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record lineage event: last id: %w", err)
	}
	return id, nil
}

// LinkDatasetDependency documents a directed dataset-to-dataset edge. The
// last call for a given (dataset, depends_on) pair wins.
func (s *Store) LinkDatasetDependency(ctx context.Context, datasetID, dependsOnID int64, relationshipType string, notes *string) error {
	if relationshipType == "" {
		relationshipType = "source"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dataset_dependencies (
		    dataset_id, depends_on_dataset_id, relationship_type, notes
		)
		VALUES (?, ?, ?, ?)
	`, datasetID, dependsOnID, relationshipType, notes)
	if err != nil {
		return fmt.Errorf("link dependency %d->%d: %w", datasetID, dependsOnID, err)
	}
	return nil
}

// LinkDatasetToUseCase stores a suitability score for a dataset/use-case
// pair, upserting by composite key. The score must lie in [0,1]; an unknown
// slug yields ErrUseCaseNotFound and writes nothing.
func (s *Store) LinkDatasetToUseCase(ctx context.Context, datasetID int64, useCaseSlug string, score float64, rationale *string) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}

	useCaseID, err := s.resolveUseCaseID(ctx, useCaseSlug)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dataset_use_cases (dataset_id, use_case_id, suitability_score, rationale)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(dataset_id, use_case_id) DO UPDATE SET
		    suitability_score = excluded.suitability_score,
		    rationale = excluded.rationale
	`, datasetID, useCaseID, score, rationale)
	if err != nil {
		return fmt.Errorf("link use case %q: %w", useCaseSlug, err)
	}
	return nil
}

// EvidenceSnippetFields carries one citation snippet.
type EvidenceSnippetFields struct {
	SnippetType   string
	Content       string
	SourcePointer *string
	Metadata      map[string]any
}

// RegisterEvidenceSnippet appends a snippet that downstream answers can cite.
// Metadata is serialized to JSON, defaulting to an empty object.
func (s *Store) RegisterEvidenceSnippet(ctx context.Context, datasetID int64, f EvidenceSnippetFields) (int64, error) {
	metadata := f.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal snippet metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence_snippets (
		    dataset_id, snippet_type, content, source_pointer, metadata_json
		)
		VALUES (?, ?, ?, ?, ?)
	`, datasetID, f.SnippetType, f.Content, f.SourcePointer, string(metadataJSON))
	if err != nil {
		return 0, fmt.Errorf("insert evidence snippet: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert evidence snippet: last id: %w", err)
	}
	return id, nil
}

// StoreEmbedding upserts the semantic embedding for a dataset. Re-storing
// replaces the vector wholesale and refreshes its timestamp.
func (s *Store) StoreEmbedding(ctx context.Context, datasetID int64, provider string, vector []float64) error {
	if vector == nil {
		vector = []float64{}
	}
	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding vector: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dataset_embeddings (dataset_id, provider, dimensions, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(dataset_id) DO UPDATE SET
		    provider = excluded.provider,
		    dimensions = excluded.dimensions,
		    vector = excluded.vector,
		    created_at = CURRENT_TIMESTAMP
	`, datasetID, provider, len(vector), string(vectorJSON))
	if err != nil {
		return fmt.Errorf("store embedding for dataset %d: %w", datasetID, err)
	}
	return nil
}

// NLQueryFields captures one natural-language interaction.
type NLQueryFields struct {
	Question        string
	Intent          *string
	DatasetID       *int64
	ResponseSummary *string
}

// LogNLQuery appends to the query log and returns the row id.
func (s *Store) LogNLQuery(ctx context.Context, f NLQueryFields) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO nl_queries (question, intent, dataset_id, response_summary)
		VALUES (?, ?, ?, ?)
	`, f.Question, f.Intent, f.DatasetID, f.ResponseSummary)
	if err != nil {
		return 0, fmt.Errorf("log nl query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("log nl query: last id: %w", err)
	}
	return id, nil
}

func (s *Store) resolveUseCaseID(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM use_cases WHERE slug = ?", slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUseCaseNotFound, slug)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve use case %q: %w", slug, err)
	}
	return id, nil
}

// joinKeywords produces the denormalized layer keyword blob: trimmed,
// deduplicated, sorted, comma-joined. Empty input yields "".
func joinKeywords(keywords []string) string {
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		seen[kw] = struct{}{}
	}
	if len(seen) == 0 {
		return ""
	}
	out := make([]string, 0, len(seen))
	for kw := range seen {
		out = append(out, kw)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// normalizeKeywords trims, lower-cases, deduplicates, and sorts for the
// global keyword table.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		seen[kw] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for kw := range seen {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
