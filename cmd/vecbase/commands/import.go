package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d65v/vecbase"
	"github.com/d65v/vecbase/importer"
	"github.com/d65v/vecbase/persistence"
)

var (
	importPrefix string
	importDryRun bool
	importOut    string

	sqliteTable   string
	sqliteIDCol   string
	sqliteVecCol  string
	sqliteMetaCol string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load vectors from external sources",
}

var importNpyCmd = &cobra.Command{
	Use:   "npy <file>",
	Short: "Import a 2-D float32 numpy matrix",
	Long: `Import a .npy file holding a 2-D float32 matrix, one vector per row.

Record ids are the row index with --prefix prepended. Rows containing NaN
or Inf components are skipped, not fatal. The matrix column count must
equal the store dimension.

Examples:
  vecbase import npy embeddings.npy --dim 768
  vecbase import npy embeddings.npy --dim 768 --out embeddings.vecb
  vecbase import npy embeddings.npy --dim 768 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, _, err := openStore(cfg)
		if err != nil {
			return err
		}

		report, err := importer.ImportNpy(cmd.Context(), db, args[0], func(o *importer.Options) {
			o.Prefix = importPrefix
			o.DryRun = importDryRun
			o.Logger = newLogger()
		})
		if err != nil {
			return err
		}
		printReport(report)
		return writeImportSnapshot(db)
	},
}

var importSqliteCmd = &cobra.Command{
	Use:   "sqlite <dsn>",
	Short: "Import vectors from a SQLite database",
	Long: `Import vectors from a SQLite table. The vector column holds BLOBs of
little-endian float32 values; the blob byte length must be 4 times the
store dimension. Rows without an id get a generated UUID.

Examples:
  vecbase import sqlite vectors.db --table embeddings --vector-column vec --dim 384
  vecbase import sqlite vectors.db --table embeddings --vector-column vec \
      --id-column name --metadata-column note --dim 384 --out import.vecb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, _, err := openStore(cfg)
		if err != nil {
			return err
		}

		src := importer.SQLiteSource{
			Table:          sqliteTable,
			IDColumn:       sqliteIDCol,
			VectorColumn:   sqliteVecCol,
			MetadataColumn: sqliteMetaCol,
		}
		report, err := importer.ImportSQLite(cmd.Context(), db, args[0], src, func(o *importer.Options) {
			o.Prefix = importPrefix
			o.DryRun = importDryRun
			o.Logger = newLogger()
		})
		if err != nil {
			return err
		}
		printReport(report)
		return writeImportSnapshot(db)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{importNpyCmd, importSqliteCmd} {
		cmd.Flags().StringVar(&importPrefix, "prefix", "vec_", "record id prefix")
		cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and validate without inserting")
		cmd.Flags().StringVar(&importOut, "out", "", "write the imported store to a snapshot file")
	}

	importSqliteCmd.Flags().StringVar(&sqliteTable, "table", "", "table to read (required)")
	importSqliteCmd.Flags().StringVar(&sqliteIDCol, "id-column", "", "column holding record ids")
	importSqliteCmd.Flags().StringVar(&sqliteVecCol, "vector-column", "", "column holding vector BLOBs (required)")
	importSqliteCmd.Flags().StringVar(&sqliteMetaCol, "metadata-column", "", "column holding metadata text")

	importCmd.AddCommand(importNpyCmd)
	importCmd.AddCommand(importSqliteCmd)
	rootCmd.AddCommand(importCmd)
}

func printReport(r importer.Report) {
	fmt.Printf("imported %d vectors (%d skipped, %d failed)\n", r.Imported, r.Skipped, len(r.Failed))
	const maxListed = 10
	for i, f := range r.Failed {
		if i == maxListed {
			fmt.Printf("  ... and %d more\n", len(r.Failed)-maxListed)
			break
		}
		fmt.Printf("  %s: %v\n", f.ID, f.Err)
	}
}

// writeImportSnapshot persists the imported store when --out is set. Dry
// runs insert nothing, so there is nothing to write.
func writeImportSnapshot(db *vecbase.VecBase) error {
	if importOut == "" || importDryRun {
		return nil
	}
	snap := persistence.Capture(db)
	if err := persistence.SaveFile(importOut, snap); err != nil {
		return err
	}
	fmt.Printf("wrote %d records to %s\n", len(snap.Records), importOut)
	return nil
}
