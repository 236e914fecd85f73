package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spegfinder/clearview/internal/bulk"
	"github.com/spegfinder/clearview/internal/store"
)

var (
	bulkDir     string
	bulkWorkers int
	bulkDryRun  bool
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Scan a directory of accounts files and persist reduced series",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dir := bulkDir
		if dir == "" {
			dir = cfg.Bulk.AccountsDir
		}
		if dir == "" {
			return eris.New("accounts directory is required (--dir or CLEARVIEW_BULK_ACCOUNTS_DIR)")
		}

		workers := bulkWorkers
		if workers == 0 {
			workers = cfg.Bulk.Workers
		}

		tax, err := loadTaxonomy()
		if err != nil {
			return err
		}

		scanner := &bulk.Scanner{
			Taxonomy:     tax,
			Workers:      workers,
			MinFileBytes: cfg.Bulk.MinFileBytes,
		}

		result, err := scanner.Run(ctx, dir)
		if err != nil {
			return err
		}

		series := bulk.ReduceAll(result)
		if bulkDryRun {
			zap.L().Info("dry run, skipping store",
				zap.Int("companies", len(series)),
			)
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		batch := store.NewIngestBatch(dir)
		for company, records := range series {
			if err := st.ReplaceRecords(ctx, company, records); err != nil {
				return err
			}
		}

		batch.FilesScanned = result.FilesScanned
		batch.FilesParsed = result.FilesParsed
		batch.Unidentifiable = result.Unidentifiable
		batch.Failed = result.Failed
		batch.FinishedAt = time.Now().UTC()
		if err := st.RecordBatch(ctx, batch); err != nil {
			return err
		}

		zap.L().Info("bulk ingest complete",
			zap.String("batch", batch.ID),
			zap.Int("companies", len(series)),
		)
		return nil
	},
}

func init() {
	bulkCmd.Flags().StringVar(&bulkDir, "dir", "", "directory of extracted accounts files")
	bulkCmd.Flags().IntVar(&bulkWorkers, "workers", 0, "parse workers (default from config)")
	bulkCmd.Flags().BoolVar(&bulkDryRun, "dry-run", false, "scan and reduce without writing to the store")
	rootCmd.AddCommand(bulkCmd)
}
