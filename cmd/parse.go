package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spegfinder/clearview/internal/bulk"
	"github.com/spegfinder/clearview/internal/statement"
)

var (
	parseEncoding   string
	parseTrajectory bool
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Parse iXBRL accounts files and print period records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := loadTaxonomy()
		if err != nil {
			return err
		}

		type fileResult struct {
			File          string          `json:"file"`
			CompanyNumber string          `json:"company_number,omitempty"`
			Records       json.RawMessage `json:"records"`
			Trajectory    json.RawMessage `json:"trajectory,omitempty"`
		}

		var results []fileResult
		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read %s", path)
			}

			records, err := statement.ExtractDocument(content, parseEncoding, tax)
			if err != nil {
				return eris.Wrapf(err, "parse %s", path)
			}

			company, _ := bulk.IdentifyCompany(path, content)
			for _, r := range records {
				r.CompanyNumber = company
			}

			zap.L().Info("document parsed",
				zap.String("file", filepath.Base(path)),
				zap.String("company", company),
				zap.Int("records", len(records)),
			)

			res := fileResult{File: path, CompanyNumber: company}
			res.Records, err = json.Marshal(records)
			if err != nil {
				return eris.Wrap(err, "marshal records")
			}

			if parseTrajectory {
				series := statement.Reduce(records)
				res.Trajectory, err = json.Marshal(statement.ComputeTrajectory(series))
				if err != nil {
					return eris.Wrap(err, "marshal trajectory")
				}
			}
			results = append(results, res)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseEncoding, "encoding", "", "encoding hint (latin1, windows1252)")
	parseCmd.Flags().BoolVar(&parseTrajectory, "trajectory", false, "compute trajectory features per file")
	rootCmd.AddCommand(parseCmd)
}
