package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fsgeodata/catalog-librarian/internal/mapserver"
)

// UseCaseScore requests one dataset/use-case link during projection.
type UseCaseScore struct {
	Slug      string
	Score     float64
	Rationale *string
}

// ProjectOptions carries the context a MapServer document cannot supply
// about itself.
type ProjectOptions struct {
	// MapServerPath is the path to the source JSON snapshot on disk.
	MapServerPath *string
	// ServiceURL is the authoritative REST endpoint, if known.
	ServiceURL *string
	// Scores are (use_case, score, rationale) triples linked after the
	// dataset and its layers are persisted.
	Scores []UseCaseScore
}

var titleCaser = cases.Title(language.English)

// ProjectDocument maps one MapServer document onto catalog rows: the dataset
// upsert, its keyword registrations, one layer row per document layer, and
// any requested use-case links. It returns the dataset id. An unknown
// use-case slug aborts with ErrUseCaseNotFound; earlier writes stand, since
// each store operation commits on its own.
func (s *Store) ProjectDocument(ctx context.Context, slug string, doc *mapserver.Document, opts ProjectOptions) (int64, error) {
	info := doc.DocumentInfo

	title := firstNonEmpty(deref(doc.MapName), infoField(info, func(i *mapserver.DocumentInfo) *string { return i.Title }))
	if title == "" {
		title = titleCaser.String(strings.ReplaceAll(slug, "-", " "))
	}

	summary := firstNonEmpty(
		deref(doc.Description),
		deref(doc.ServiceDescription),
		infoField(info, func(i *mapserver.DocumentInfo) *string { return i.Comments }),
	)

	serviceType := "MapServer"
	fields := DatasetFields{
		Slug:               slug,
		Title:              title,
		Summary:            optional(summary),
		ServiceDescription: doc.ServiceDescription,
		ServiceURL:         opts.ServiceURL,
		ServiceType:        &serviceType,
		MapServerPath:      opts.MapServerPath,
	}
	if info != nil {
		fields.GeographicScope = info.Subject
		fields.DocumentKeywords = info.Keywords
		fields.LineageStatus = info.Category
	}

	datasetID, err := s.RegisterDataset(ctx, fields)
	if err != nil {
		return 0, err
	}

	if info != nil && info.Keywords != nil {
		if kws := SplitKeywords(*info.Keywords); len(kws) > 0 {
			if err := s.RegisterKeywords(ctx, datasetID, kws); err != nil {
				return 0, err
			}
		}
	}

	for _, layer := range doc.Layers {
		if _, err := s.AddLayer(ctx, datasetID, layerFields(layer)); err != nil {
			return 0, err
		}
	}

	for _, score := range opts.Scores {
		if err := s.LinkDatasetToUseCase(ctx, datasetID, score.Slug, score.Score, score.Rationale); err != nil {
			return 0, err
		}
	}

	return datasetID, nil
}

// layerFields translates a document layer into AddLayer parameters. Layer
// keywords are derived by splitting the layer's own name on commas; MapServer
// has no per-layer keyword field, so a name like "Primary, Secondary" is the
// best signal available. Crude, and known to mis-tag single-name layers.
func layerFields(layer mapserver.Layer) LayerFields {
	name := deref(layer.Name)
	if name == "" {
		if layer.ID != nil {
			name = fmt.Sprintf("Layer %d", *layer.ID)
		} else {
			name = "Layer"
		}
	}

	// Visible unless the document says defaultVisibility: false.
	visible := layer.DefaultVisibility == nil || *layer.DefaultVisibility

	return LayerFields{
		Name:         name,
		GeometryType: layer.Type,
		Visible:      visible,
		MinScale:     layer.MinScale,
		MaxScale:     layer.MaxScale,
		Keywords:     SplitKeywords(deref(layer.Name)),
	}
}

// SplitKeywords splits a comma-separated keyword blob, trimming each part and
// dropping empties.
func SplitKeywords(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func infoField(info *mapserver.DocumentInfo, get func(*mapserver.DocumentInfo) *string) string {
	if info == nil {
		return ""
	}
	return deref(get(info))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
