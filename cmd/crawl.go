package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/crawler"
)

// newCrawlCmd creates the 'crawl' subcommand, which walks the configured
// services index and snapshots every MapServer document.
func newCrawlCmd() *cobra.Command {
	var ingest bool

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls the MapServer services index",
		Long: `Walks the configured ArcGIS REST services index folder by folder,
fetches each service's MapServer JSON description, and writes one snapshot
file per service. With --ingest, each document is also projected into the
catalog as it arrives.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawlCommand(cmd, ingest)
		},
	}
	cmd.Flags().BoolVar(&ingest, "ingest", false, "project fetched documents into the catalog")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, ingest bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	cfg := appInstance.Config()
	var store *catalog.Store
	if ingest {
		store = appInstance.Store()
		// Projection may link use cases later; make sure the seeds exist.
		if _, err := store.SeedUseCases(cmd.Context(), catalog.DefaultUseCases); err != nil {
			return err
		}
	}

	c, err := crawler.New(crawler.Config{
		IndexURL:    cfg.Crawler.IndexURL,
		SnapshotDir: cfg.Crawler.SnapshotDir,
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		Delay:       cfg.FetchDelay(),
		Ingest:      ingest,
	}, store, appInstance.Logger())
	if err != nil {
		return fmt.Errorf("init crawler: %w", err)
	}

	result, err := c.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run crawler: %w", err)
	}

	appInstance.Logger().Info("crawl command finished",
		zap.String("run_id", result.RunID),
		zap.Int("services_fetched", result.ServicesFetched),
		zap.Int("failures", result.Failures),
		zap.Int("datasets_ingested", result.DatasetsIngested))
	return nil
}
