package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/crawler"
	"github.com/fsgeodata/catalog-librarian/internal/mapserver"
	"github.com/fsgeodata/catalog-librarian/internal/metrics"
)

// newIngestCmd creates the 'ingest' subcommand, which projects previously
// snapshotted MapServer JSON files into the catalog.
func newIngestCmd() *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "ingest <file|dir> [more...]",
		Short: "Projects MapServer JSON snapshots into the catalog",
		Long: `Reads MapServer JSON files (or directories of them) and projects each
into the catalog. Dataset slugs are derived from the file name unless --slug
is given for a single file.`,
		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestCommand(cmd, args, slug)
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "dataset slug (single file only)")
	return cmd
}

func runIngestCommand(cmd *cobra.Command, args []string, slug string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	files, err := collectJSONFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no JSON files found under %v", args)
	}
	if slug != "" && len(files) > 1 {
		return fmt.Errorf("--slug applies to a single file, got %d", len(files))
	}

	store := appInstance.Store()
	if _, err := store.SeedUseCases(cmd.Context(), catalog.DefaultUseCases); err != nil {
		return err
	}

	logger := appInstance.Logger()
	for _, file := range files {
		doc, err := mapserver.LoadFile(file)
		if err != nil {
			return err
		}

		datasetSlug := slug
		if datasetSlug == "" {
			datasetSlug = slugFromFile(file)
		}

		path := file
		datasetID, err := store.ProjectDocument(cmd.Context(), datasetSlug, doc, catalog.ProjectOptions{
			MapServerPath: &path,
		})
		if err != nil {
			return fmt.Errorf("project %s: %w", file, err)
		}

		notes := fmt.Sprintf("Loaded MapServer metadata from local snapshot %s.", file)
		if _, err := store.RecordLineageEvent(cmd.Context(), datasetID, catalog.LineageEventFields{
			EventType: "ingest",
			Notes:     &notes,
		}); err != nil {
			return err
		}

		metrics.ObserveDatasetProjected()
		logger.Info("dataset projected",
			zap.String("slug", datasetSlug),
			zap.String("file", file),
			zap.Int64("dataset_id", datasetID))
	}

	return nil
}

// collectJSONFiles expands each argument into the .json files beneath it.
func collectJSONFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

// slugFromFile derives a dataset slug from a snapshot file name, dropping the
// extension and the service-type suffix the crawler appends.
func slugFromFile(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	name = strings.TrimSuffix(name, "_MapServer")
	return crawler.Slugify(name)
}
