package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgeodata/catalog-librarian/internal/mapserver"
)

func intptr(v int) *int           { return &v }
func boolptr(v bool) *bool        { return &v }
func floatptr(v float64) *float64 { return &v }

func TestProjectMinimalDocument(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	doc := &mapserver.Document{
		MapName: strptr("Roads"),
		Layers: []mapserver.Layer{
			{ID: intptr(1), Name: strptr("Primary, Secondary")},
		},
	}

	id, err := s.ProjectDocument(ctx, "roads", doc, ProjectOptions{})
	require.NoError(t, err)

	ds, err := s.GetDataset(ctx, "roads")
	require.NoError(t, err)
	assert.Equal(t, id, ds.ID)
	assert.Equal(t, "Roads", ds.Title)
	require.NotNil(t, ds.ServiceType)
	assert.Equal(t, "MapServer", *ds.ServiceType)
	assert.Nil(t, ds.Summary)

	layers, err := s.ListLayers(ctx, id)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "Primary, Secondary", layers[0].Name)
	assert.True(t, layers[0].Visible)
	require.NotNil(t, layers[0].Keywords)
	assert.Equal(t, "Primary, Secondary", *layers[0].Keywords)

	assert.Equal(t, 0, s.countRows(t, "dataset_use_cases"))
}

func TestProjectTitleAndSummaryFallbacks(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	t.Run("document info title", func(t *testing.T) {
		doc := &mapserver.Document{
			DocumentInfo: &mapserver.DocumentInfo{
				Title:    strptr("Fuels Treatment"),
				Comments: strptr("Annual fuels treatment polygons."),
			},
		}
		id, err := s.ProjectDocument(ctx, "fuels-treatment", doc, ProjectOptions{})
		require.NoError(t, err)

		ds, err := s.GetDataset(ctx, "fuels-treatment")
		require.NoError(t, err)
		assert.Equal(t, id, ds.ID)
		assert.Equal(t, "Fuels Treatment", ds.Title)
		require.NotNil(t, ds.Summary)
		assert.Equal(t, "Annual fuels treatment polygons.", *ds.Summary)
	})

	t.Run("title-cased slug when document is bare", func(t *testing.T) {
		_, err := s.ProjectDocument(ctx, "timber-stand-improvement", &mapserver.Document{}, ProjectOptions{})
		require.NoError(t, err)

		ds, err := s.GetDataset(ctx, "timber-stand-improvement")
		require.NoError(t, err)
		assert.Equal(t, "Timber Stand Improvement", ds.Title)
	})

	t.Run("description wins over service description", func(t *testing.T) {
		doc := &mapserver.Document{
			Description:        strptr("Primary description."),
			ServiceDescription: strptr("Service description."),
		}
		_, err := s.ProjectDocument(ctx, "desc-priority", doc, ProjectOptions{})
		require.NoError(t, err)

		ds, err := s.GetDataset(ctx, "desc-priority")
		require.NoError(t, err)
		require.NotNil(t, ds.Summary)
		assert.Equal(t, "Primary description.", *ds.Summary)
	})
}

func TestProjectDocumentInfoFields(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	doc := &mapserver.Document{
		MapName: strptr("WHP 2023"),
		DocumentInfo: &mapserver.DocumentInfo{
			Subject:  strptr("Conterminous United States"),
			Category: strptr("published"),
			Keywords: strptr("Wildfire, hazard , wildfire"),
		},
	}

	id, err := s.ProjectDocument(ctx, "whp-2023", doc, ProjectOptions{
		ServiceURL:    strptr("https://example.org/arcx/rest/services/RDW_Wildfire/WHP_2023/MapServer"),
		MapServerPath: strptr("data/services/RDW_Wildfire/WHP_2023.json"),
	})
	require.NoError(t, err)

	ds, err := s.GetDataset(ctx, "whp-2023")
	require.NoError(t, err)
	require.NotNil(t, ds.GeographicScope)
	assert.Equal(t, "Conterminous United States", *ds.GeographicScope)
	require.NotNil(t, ds.LineageStatus)
	assert.Equal(t, "published", *ds.LineageStatus)
	// The raw keyword blob is carried verbatim.
	require.NotNil(t, ds.DocumentKeywords)
	assert.Equal(t, "Wildfire, hazard , wildfire", *ds.DocumentKeywords)
	require.NotNil(t, ds.ServiceURL)

	// The normalized registrations deduplicate case and whitespace.
	var n int
	require.NoError(t, s.db.QueryRow(`
		SELECT COUNT(*) FROM dataset_keywords dk
		JOIN keywords k ON k.id = dk.keyword_id
		WHERE dk.dataset_id = ?`, id).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestProjectLayerDefaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	doc := &mapserver.Document{
		MapName: strptr("Layer Defaults"),
		Layers: []mapserver.Layer{
			{ID: intptr(3), Type: strptr("Raster Layer"), MinScale: floatptr(0), MaxScale: floatptr(5e6)},
			{ID: intptr(4), Name: strptr("Hidden"), DefaultVisibility: boolptr(false)},
		},
	}

	id, err := s.ProjectDocument(ctx, "layer-defaults", doc, ProjectOptions{})
	require.NoError(t, err)

	layers, err := s.ListLayers(ctx, id)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	assert.Equal(t, "Layer 3", layers[0].Name)
	assert.True(t, layers[0].Visible)
	assert.Nil(t, layers[0].Keywords)
	require.NotNil(t, layers[0].GeometryType)
	assert.Equal(t, "Raster Layer", *layers[0].GeometryType)

	assert.Equal(t, "Hidden", layers[1].Name)
	assert.False(t, layers[1].Visible)
}

func TestProjectUseCaseScores(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	doc := &mapserver.Document{MapName: strptr("WHP")}

	t.Run("unknown slug propagates", func(t *testing.T) {
		_, err := s.ProjectDocument(ctx, "whp-bad", doc, ProjectOptions{
			Scores: []UseCaseScore{{Slug: "flood-dashboard", Score: 0.5}},
		})
		require.ErrorIs(t, err, ErrUseCaseNotFound)
	})

	t.Run("valid slug links", func(t *testing.T) {
		id, err := s.ProjectDocument(ctx, "whp-good", doc, ProjectOptions{
			Scores: []UseCaseScore{{
				Slug:      "wildfire-risk-dashboard",
				Score:     0.95,
				Rationale: strptr("hazard classes feed the risk panels"),
			}},
		})
		require.NoError(t, err)

		var n int
		require.NoError(t, s.db.QueryRow(
			"SELECT COUNT(*) FROM dataset_use_cases WHERE dataset_id = ?", id).Scan(&n))
		assert.Equal(t, 1, n)
	})
}

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SplitKeywords(""))
	assert.Equal(t, []string{"fire"}, SplitKeywords("fire"))
	assert.Equal(t, []string{"fire", "fuels"}, SplitKeywords(" fire , fuels ,, "))
}
