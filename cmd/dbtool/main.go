package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"charging-route-service/internal/adapters/repositories"
	"charging-route-service/internal/config"
	"charging-route-service/internal/platform/db"
	"charging-route-service/internal/platform/logging"
)

var opts struct {
	driver   string
	dsn      string
	seedPath string
}

var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "Manage the charging station store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
		}
		logger = logging.Setup(config.Get("APP_ENV", "production"), config.Get("LOG_LEVEL", "info"))

		// Flags win over the environment.
		if opts.dsn == "" {
			opts.dsn = config.Get("DATABASE_URL", "")
		}
		if strings.TrimSpace(opts.dsn) == "" {
			return errors.New("--dsn or DATABASE_URL is required")
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the station schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB, d repositories.Dialect) error {
			logger.Info().Str("driver", d.String()).Msg("initializing database schema")
			if err := repositories.InitSchema(ctx, conn, d); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}
			logger.Info().Msg("schema ready")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and upsert stations from a JSON seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB, d repositories.Dialect) error {
			if err := repositories.InitSchema(ctx, conn, d); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}

			logger.Info().Str("path", opts.seedPath).Msg("seeding database")
			n, err := repositories.SeedFromJSON(ctx, conn, d, opts.seedPath)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			logger.Info().Int("stations", n).Msg("seeding complete")
			return nil
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.driver, "driver", config.Get("DB_DRIVER", "postgres"), "database driver (postgres or sqlite)")
	pf.StringVar(&opts.dsn, "dsn", "", "connection string or sqlite file path (default $DATABASE_URL)")

	seedCmd.Flags().StringVar(&opts.seedPath, "seed", config.Get("SEED_PATH", "data/seeds/stations.json"), "station seed file")

	rootCmd.AddCommand(initCmd, seedCmd)
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB, repositories.Dialect) error) error {
	d, err := repositories.DialectFor(opts.driver)
	if err != nil {
		return err
	}

	var conn *sql.DB
	if d == repositories.DialectPostgres {
		conn, err = db.Open(opts.dsn)
	} else {
		conn, err = db.OpenSQLite(opts.dsn)
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn, d)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dbtool:", err)
		os.Exit(1)
	}
}
