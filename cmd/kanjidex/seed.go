package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kanjidex/kanjidex/pkg/catalog"
	"github.com/kanjidex/kanjidex/pkg/db"
	"github.com/kanjidex/kanjidex/pkg/logging"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed or replace the kanji reference catalog",
	Long: `Load a reference dataset into the catalog. Without flags the embedded
seed (or the dataset configured under dataset.path) is used, and an
already seeded catalog is left untouched. --force replaces the whole
catalog atomically; exposure counters are never touched.

--download fetches the latest kanjidic2 export from the
jmdict-simplified releases into the cache directory.`,
	Example: `  # First-time seeding with the embedded dataset
  kanjidex seed

  # Replace the catalog with a full kanjidic2 export
  kanjidex seed --download --force

  # Seed from a custom dataset file
  kanjidex seed --dataset my_kanji.json --force`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("dataset", "", "Seed from a dataset JSON file")
	seedCmd.Flags().String("kanjidic2", "", "Seed from a kanjidic2 JSON export")
	seedCmd.Flags().Bool("download", false, "Download the latest kanjidic2 export and seed from it")
	seedCmd.Flags().Bool("force", false, "Replace the catalog even when already seeded")
	seedCmd.MarkFlagsMutuallyExclusive("dataset", "kanjidic2", "download")
}

func runSeed(cmd *cobra.Command, args []string) error {
	datasetFlag, _ := cmd.Flags().GetString("dataset")
	kanjidic2Flag, _ := cmd.Flags().GetString("kanjidic2")
	download, _ := cmd.Flags().GetBool("download")
	force, _ := cmd.Flags().GetBool("force")

	log := logging.WithComponent("seed")

	var (
		ds  *catalog.Dataset
		err error
	)
	switch {
	case download:
		path := filepath.Join(cfg.Dataset.CacheDir, catalog.DefaultDatasetFileName)
		if err := catalog.EnsureDataset(cmd.Context(), path, log); err != nil {
			return err
		}
		ds, err = catalog.LoadKanjidic2File(path)
	case kanjidic2Flag != "":
		ds, err = catalog.LoadKanjidic2File(kanjidic2Flag)
	case datasetFlag != "":
		ds, err = catalog.LoadDatasetFile(datasetFlag)
	default:
		ds, err = startupDataset()
	}
	if err != nil {
		return err
	}

	conn, err := db.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.InitDB(conn); err != nil {
		return err
	}

	cat := catalog.NewStore(conn, log)
	if force {
		err = cat.Reseed(ds)
	} else {
		err = cat.Initialize(ds)
	}
	if err != nil {
		return err
	}

	total, err := cat.Count()
	if err != nil {
		return err
	}
	fmt.Printf("Catalog holds %d kanji", total)
	if ds.Version != "" {
		fmt.Printf(" (dataset %s)", ds.Version)
	}
	fmt.Println(".")
	return nil
}
