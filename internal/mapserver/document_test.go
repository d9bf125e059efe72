package mapserver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFullDocument(t *testing.T) {
	t.Parallel()

	payload := `{
		"currentVersion": 10.91,
		"mapName": "Wildfire Hazard Potential 2023",
		"serviceDescription": "WHP raster classes",
		"documentInfo": {
			"Title": "WHP 2023",
			"Subject": "Conterminous United States",
			"Category": "published",
			"Keywords": "wildfire,hazard,fuels"
		},
		"layers": [
			{"id": 0, "name": "WHP Classes", "defaultVisibility": true,
			 "minScale": 0, "maxScale": 0, "geometryType": "esriGeometryPolygon"},
			{"id": 1, "parentLayerId": 0, "defaultVisibility": false}
		],
		"spatialReference": {"wkid": 102100, "latestWkid": 3857},
		"fullExtent": {"xmin": -1.4e7, "ymin": 2.6e6, "xmax": -7.4e6, "ymax": 6.3e6},
		"somethingUndocumented": {"nested": true}
	}`

	doc, err := Decode([]byte(payload))
	require.NoError(t, err)

	require.NotNil(t, doc.MapName)
	assert.Equal(t, "Wildfire Hazard Potential 2023", *doc.MapName)
	require.NotNil(t, doc.DocumentInfo)
	assert.Equal(t, "wildfire,hazard,fuels", *doc.DocumentInfo.Keywords)
	require.Len(t, doc.Layers, 2)
	assert.Equal(t, 0, *doc.Layers[0].ID)
	assert.True(t, *doc.Layers[0].DefaultVisibility)
	assert.Nil(t, doc.Layers[1].Name)
	assert.False(t, *doc.Layers[1].DefaultVisibility)
	require.NotNil(t, doc.SpatialReference)
	assert.Equal(t, 102100, *doc.SpatialReference.WKID)
	assert.Nil(t, doc.Description)
}

func TestDecodeEmptyDocument(t *testing.T) {
	t.Parallel()

	doc, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, doc.MapName)
	assert.Nil(t, doc.DocumentInfo)
	assert.Empty(t, doc.Layers)
}

func TestDecodeReportsOffendingField(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"mapName": 42}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapName")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "roads.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mapName":"Roads"}`), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Roads", *doc.MapName)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDecodeIndex(t *testing.T) {
	t.Parallel()

	idx, err := DecodeIndex([]byte(`{
		"folders": ["RDW_Wildfire", "RDW_LandscapeAndWildlife"],
		"services": [{"name": "RDW_Wildfire/WHP_2023", "type": "MapServer"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"RDW_Wildfire", "RDW_LandscapeAndWildlife"}, idx.Folders)
	require.Len(t, idx.Services, 1)
	assert.Equal(t, "MapServer", idx.Services[0].Type)

	_, err = DecodeIndex([]byte(`{"folders": "nope"`))
	require.Error(t, err)
	if !strings.Contains(err.Error(), "services index") {
		t.Errorf("unexpected error text: %v", err)
	}
}
