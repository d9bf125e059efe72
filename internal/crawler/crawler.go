// Package crawler walks a MapServer REST services index and snapshots each
// service's JSON description, optionally projecting it straight into the
// catalog. The walk is sequential and polite: one request at a time, a
// configurable delay between requests, no retries.
package crawler

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/mapserver"
	"github.com/fsgeodata/catalog-librarian/internal/metrics"
)

// Config controls the index walk.
type Config struct {
	// IndexURL is the services root, e.g.
	// https://apps.fs.usda.gov/arcx/rest/services
	IndexURL    string
	SnapshotDir string
	UserAgent   string
	Timeout     time.Duration
	Delay       time.Duration
	// Ingest projects each fetched document into the store as it arrives.
	Ingest bool
}

// Result summarizes one crawl run.
type Result struct {
	RunID            string
	ServicesFetched  int
	Failures         int
	DatasetsIngested int
}

// Crawler fetches the index tree with a Colly collector.
type Crawler struct {
	cfg           Config
	store         *catalog.Store
	logger        *zap.Logger
	baseCollector *colly.Collector
}

// New builds a Crawler. The store may be nil when ingest is disabled.
func New(cfg Config, store *catalog.Store, logger *zap.Logger) (*Crawler, error) {
	if cfg.Ingest && store == nil {
		return nil, fmt.Errorf("ingest enabled but no catalog store provided")
	}

	c := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.IgnoreRobotsTxt = true // a JSON API, not a content site
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.SetRequestTimeout(timeout)

	return &Crawler{
		cfg:           cfg,
		store:         store,
		logger:        logger,
		baseCollector: c,
	}, nil
}

// Run walks the index: root -> folders -> per-service MapServer documents.
// Individual service failures are logged and counted; only index-level
// failures abort the run.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	result := Result{RunID: runID}
	logger := c.logger.With(zap.String("run_id", runID))

	rootData, err := c.fetchJSON(ctx, c.cfg.IndexURL+"?f=pjson")
	if err != nil {
		metrics.ObserveFetchFailure("root_index")
		return result, fmt.Errorf("fetch services index: %w", err)
	}
	root, err := mapserver.DecodeIndex(rootData)
	if err != nil {
		return result, err
	}
	if len(root.Folders) == 0 {
		logger.Warn("no service folders found in the index")
		return result, nil
	}

	for _, folder := range root.Folders {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("crawl canceled: %w", err)
		}
		if err := c.walkFolder(ctx, logger, folder, runID, &result); err != nil {
			logger.Warn("folder walk failed", zap.String("folder", folder), zap.Error(err))
			metrics.ObserveFetchFailure("folder_index")
			result.Failures++
		}
	}

	logger.Info("crawl finished",
		zap.Int("services_fetched", result.ServicesFetched),
		zap.Int("failures", result.Failures),
		zap.Int("datasets_ingested", result.DatasetsIngested))
	return result, nil
}

func (c *Crawler) walkFolder(ctx context.Context, logger *zap.Logger, folder, runID string, result *Result) error {
	folderURL := fmt.Sprintf("%s/%s?f=pjson", c.cfg.IndexURL, folder)
	data, err := c.fetchJSON(ctx, folderURL)
	if err != nil {
		return fmt.Errorf("fetch folder %q: %w", folder, err)
	}
	idx, err := mapserver.DecodeIndex(data)
	if err != nil {
		return fmt.Errorf("folder %q: %w", folder, err)
	}

	for _, svc := range idx.Services {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl canceled: %w", err)
		}
		if err := c.handleService(ctx, folder, svc, runID, result); err != nil {
			logger.Warn("service fetch failed",
				zap.String("service", svc.Name), zap.Error(err))
			metrics.ObserveFetchFailure("service")
			result.Failures++
			continue
		}
		result.ServicesFetched++
		metrics.ObserveServiceFetched(folder)
	}
	return nil
}

func (c *Crawler) handleService(ctx context.Context, folder string, svc mapserver.ServiceRef, runID string, result *Result) error {
	if svc.Name == "" || svc.Type == "" {
		return fmt.Errorf("service entry missing name or type")
	}

	serviceURL := fmt.Sprintf("%s/%s/%s", c.cfg.IndexURL, svc.Name, svc.Type)
	data, err := c.fetchJSON(ctx, serviceURL+"?f=pjson")
	if err != nil {
		return err
	}

	snapshotPath, err := c.snapshot(folder, svc, data)
	if err != nil {
		return err
	}

	if !c.cfg.Ingest {
		return nil
	}

	doc, err := mapserver.Decode(data)
	if err != nil {
		return err
	}

	slug := Slugify(svc.Name)
	datasetID, err := c.store.ProjectDocument(ctx, slug, doc, catalog.ProjectOptions{
		ServiceURL:    &serviceURL,
		MapServerPath: &snapshotPath,
	})
	if err != nil {
		return fmt.Errorf("project %q: %w", slug, err)
	}

	notes := fmt.Sprintf("Crawl run %s loaded MapServer metadata into the catalog.", runID)
	if _, err := c.store.RecordLineageEvent(ctx, datasetID, catalog.LineageEventFields{
		EventType:  "ingest",
		SourceName: &folder,
		SourceURL:  &serviceURL,
		Notes:      &notes,
	}); err != nil {
		return err
	}

	result.DatasetsIngested++
	metrics.ObserveDatasetProjected()
	return nil
}

// snapshot writes the raw document under <snapshot_dir>/<folder>/<service>.json.
func (c *Crawler) snapshot(folder string, svc mapserver.ServiceRef, data []byte) (string, error) {
	dir := filepath.Join(c.cfg.SnapshotDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	name := path.Base(svc.Name) + "_" + svc.Type + ".json"
	fullPath := filepath.Join(dir, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", fullPath, err)
	}
	return fullPath, nil
}

// fetchJSON executes one GET through a cloned collector and returns the body.
func (c *Crawler) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.cfg.Delay > 0 {
		select {
		case <-time.After(c.cfg.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	collector := c.baseCollector.Clone()

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", url, err)
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if body == nil {
		return nil, fmt.Errorf("fetch %s: empty response", url)
	}
	return body, nil
}

// Slugify derives a stable dataset slug from a folder-qualified service name:
// lower-cased, with path, underscore, and space separators collapsed to
// hyphens.
func Slugify(serviceName string) string {
	slug := strings.ToLower(serviceName)
	slug = strings.NewReplacer("/", "-", "_", "-", " ", "-").Replace(slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
