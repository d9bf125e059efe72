// Package cmd defines and implements the CLI commands for the librarian
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fsgeodata/catalog-librarian/internal/app"
	"github.com/fsgeodata/catalog-librarian/internal/catalog"
	"github.com/fsgeodata/catalog-librarian/internal/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Store() *catalog.Store
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp func(ctx context.Context, cfgPath string) (App, error) = func(ctx context.Context, cfgPath string) (App, error) {
	return app.New(ctx, cfgPath)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "librarian",
		Short: "Catalogs MapServer metadata for dashboard and lineage questions.",
		Long: `librarian crawls an ArcGIS/MapServer REST services index, snapshots each
service's JSON description, and projects the metadata into a local SQLite
catalog of datasets, layers, lineage events, and dashboard suitability
scores.`,

		// Runs AFTER flags are parsed but BEFORE the subcommand's RunE;
		// the right place to build and inject the application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Ensures the catalog connection is released on every exit path.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults + LIBRARIAN_* env)")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
