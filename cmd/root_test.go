package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/config"
	"github.com/fsgeodata/catalog-librarian/internal/metrics"
)

// testApp satisfies the App interface with a real store on a temp file, so
// commands run end to end without touching disk outside the test dir.
// Close is a no-op: tests still need the store after the command returns,
// so the temp store is released via t.Cleanup instead.
type testApp struct {
	cfg    config.Config
	logger *zap.Logger
	store  *catalog.Store
}

func (a *testApp) Close() {}

func (a *testApp) Config() config.Config { return a.cfg }

func (a *testApp) Logger() *zap.Logger { return a.logger }

func (a *testApp) Store() *catalog.Store { return a.store }

// withTestApp swaps the application factory for one that returns the given
// app, restoring the original when the test ends.
func withTestApp(t *testing.T, a App) {
	t.Helper()
	original := newApp
	newApp = func(ctx context.Context, cfgPath string) (App, error) {
		return a, nil
	}
	t.Cleanup(func() { newApp = original })
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	metrics.Init()

	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Initialize(context.Background()))

	cfg, err := config.Load("")
	require.NoError(t, err)

	return &testApp{cfg: cfg, logger: zaptest.NewLogger(t), store: store}
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(os.Stderr)
	return root.Execute()
}

func TestInitCommandSeedsUseCases(t *testing.T) {
	a := newTestApp(t)
	withTestApp(t, a)

	require.NoError(t, runCommand(t, "init"))

	useCases, err := a.store.ListUseCases(context.Background())
	require.NoError(t, err)
	assert.Len(t, useCases, 3)
}

func TestIngestCommandProjectsSnapshot(t *testing.T) {
	a := newTestApp(t)
	withTestApp(t, a)

	dir := t.TempDir()
	snapshot := filepath.Join(dir, "WHP_2023_MapServer.json")
	doc := `{
		"mapName": "Wildfire Hazard Potential 2023",
		"description": "Raster summary of wildfire hazard potential.",
		"layers": [{"id": 0, "name": "WHP, 2023", "type": "Raster Layer"}]
	}`
	require.NoError(t, os.WriteFile(snapshot, []byte(doc), 0o644))

	require.NoError(t, runCommand(t, "ingest", dir))

	ds, err := a.store.GetDataset(context.Background(), "whp-2023")
	require.NoError(t, err)
	assert.Equal(t, "Wildfire Hazard Potential 2023", ds.Title)
	require.NotNil(t, ds.MapServerPath)
	assert.Equal(t, snapshot, *ds.MapServerPath)

	layers, err := a.store.ListLayers(context.Background(), ds.ID)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "WHP, 2023", layers[0].Name)
}

func TestIngestCommandExplicitSlug(t *testing.T) {
	a := newTestApp(t)
	withTestApp(t, a)

	dir := t.TempDir()
	snapshot := filepath.Join(dir, "svc.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(`{"mapName": "Roads"}`), 0o644))

	require.NoError(t, runCommand(t, "ingest", "--slug", "travel-routes", snapshot))

	_, err := a.store.GetDataset(context.Background(), "travel-routes")
	require.NoError(t, err)
}

func TestIngestCommandRejectsSlugWithManyFiles(t *testing.T) {
	a := newTestApp(t)
	withTestApp(t, a)

	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0o644))
	}

	err := runCommand(t, "ingest", "--slug", "one", dir)
	require.Error(t, err)
}

func TestIngestCommandNoFiles(t *testing.T) {
	a := newTestApp(t)
	withTestApp(t, a)

	err := runCommand(t, "ingest", t.TempDir())
	require.Error(t, err)
}
