package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/catalog"
	"github.com/kanjidex/kanjidex/pkg/config"
	"github.com/kanjidex/kanjidex/pkg/db"
	"github.com/kanjidex/kanjidex/pkg/engine"
	"github.com/kanjidex/kanjidex/pkg/exposure"
	"github.com/kanjidex/kanjidex/pkg/logging"
)

var version = "0.3.0"

// cfg is loaded once by the root PersistentPreRunE and read by every
// subcommand.
var cfg *config.Config

var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kanjidex",
	Short: "Track the kanji you have read and find the ones you have not",
	Long: `kanjidex analyzes Japanese text, resolves every kanji against a
reference catalog, and keeps per-character exposure counters so each
analysis can tell you which characters are new to you.

Text can come from a file, stdin, a web article, or an image processed
through Google Cloud Vision OCR. Settings load from ./kanjidex.yaml (or
the file named by CONFIG_PATH) with environment overrides; see the
config package for the full list of variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine, variables may come from the shell.
		_ = godotenv.Load()

		if flagConfig != "" {
			os.Setenv("CONFIG_PATH", flagConfig)
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		if flagDB != "" {
			c.Store.Path = flagDB
		}
		if flagLogLevel != "" {
			c.Log.Level = flagLogLevel
		}

		lc := logging.DefaultConfig()
		lc.Level = c.Log.Level
		lc.Format = c.Log.Format
		logging.Setup(lc)

		cfg = c
		return nil
	},
}

// Execute runs the CLI with ctx controlling graceful shutdown.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (overrides CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

// handles bundles the open database with the stores built on top of it.
type handles struct {
	conn     *sql.DB
	catalog  *catalog.Store
	exposure *exposure.Store
	engine   *engine.Engine
}

// openHandles opens the configured database, runs migrations, seeds the
// catalog when empty, and wires up the engine. Callers must Close.
func openHandles() (*handles, error) {
	conn, err := db.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := db.InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}

	cat := catalog.NewStore(conn, logging.WithComponent("catalog"))
	ds, err := startupDataset()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := cat.Initialize(ds); err != nil {
		conn.Close()
		return nil, err
	}

	exp := exposure.NewStore(conn, logging.WithComponent("exposure"))
	eng := engine.New(cat, exp, logging.WithComponent("engine"))
	return &handles{conn: conn, catalog: cat, exposure: exp, engine: eng}, nil
}

func (h *handles) Close() {
	h.conn.Close()
}

// startupDataset picks the seed used when the catalog is empty: the
// configured dataset file when set, otherwise the embedded one.
func startupDataset() (*catalog.Dataset, error) {
	if cfg.Dataset.Path != "" {
		return catalog.LoadDatasetFile(cfg.Dataset.Path)
	}
	return catalog.EmbeddedDataset()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
