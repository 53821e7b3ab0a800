package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/starsight/starsight-be/pkg/starsight"
	"github.com/starsight/starsight-be/pkg/starsight/config"
	"github.com/starsight/starsight-be/pkg/starsight/repo/postgres"
	"github.com/starsight/starsight-be/pkg/starsight/seed"
)

// loadConfig reads the server configuration the same way the server does
func loadConfig(cmd *cobra.Command) (*config.ServerConfig, *slog.Logger, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := []config.Option{config.WithDotEnv(envFiles...), config.WithEnv()}
	if verbose {
		opts = append(opts, config.WithLogLevel("debug"))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func requirePostgres(cfg *config.ServerConfig) error {
	if cfg.DatabaseType != "postgres" {
		return fmt.Errorf("DATABASE_URL must point at postgres, got %q", cfg.DatabaseType)
	}
	return nil
}

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg); err != nil {
				return err
			}
			if cfg.DBSchema != "" {
				logger.Info("checking schema", "schema", cfg.DBSchema)
				if err := config.PingPostgres(cmd.Context(), cfg.DatabaseURL, cfg.DBSchema); err != nil {
					return err
				}
			}
			return postgres.Migrate(cfg.DatabaseURL)
		},
	}
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the database connection and schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg); err != nil {
				return err
			}
			if err := config.PingPostgres(cmd.Context(), cfg.DatabaseURL, cfg.DBSchema); err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database: ok\nschema version: %d\ndirty: %v\n", version, dirty)
			return nil
		},
	}
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load a YAML site fixture",
		Long: `Load images, documents, topics, authors, pages and navigations from a YAML
fixture. Asset paths are resolved relative to the fixture file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DatabaseType == "memory" {
				logger.Warn("seeding the in-memory database; the content is discarded on exit")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			fixture, err := seed.Decode(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, cleanup, err := cfg.BuildService(ctx, starsight.WithLogger(logger))
			if err != nil {
				return err
			}
			defer cleanup()

			files := os.DirFS(filepath.Dir(args[0]))
			res, err := seed.New(svc, files, logger).Apply(ctx, fixture)
			if err != nil {
				return err
			}
			printIDs(cmd, "page", res.Pages)
			printIDs(cmd, "navigation", res.Navigations)
			return nil
		},
	}
}

// NewSlugCommand creates the slug command
func NewSlugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <text>...",
		Short: "Print the slug derived from a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), starsight.Slugify(strings.Join(args, " ")))
			return nil
		},
	}
}

func printIDs(cmd *cobra.Command, kind string, ids map[string]int64) {
	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d\n", kind, k, ids[k])
	}
}
