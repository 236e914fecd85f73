package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spegfinder/clearview/internal/export"
	"github.com/spegfinder/clearview/internal/model"
	"github.com/spegfinder/clearview/internal/statement"
)

var (
	seriesCompany string
	seriesXLSX    string
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Reduce stored records into multi-year series with trajectory features",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		companies := []string{seriesCompany}
		if seriesCompany == "" {
			companies, err = st.ListCompanies(ctx)
			if err != nil {
				return err
			}
		}

		type companySeries struct {
			CompanyNumber string                    `json:"company_number"`
			Series        model.FinancialSeries     `json:"series"`
			Trajectory    *model.TrajectoryFeatures `json:"trajectory"`
		}

		var out []companySeries
		reduced := make(map[string]model.FinancialSeries)
		for _, company := range companies {
			records, err := st.ListRecords(ctx, company)
			if err != nil {
				return err
			}
			series := statement.Reduce(records)
			if len(series) == 0 {
				continue
			}
			reduced[company] = series
			out = append(out, companySeries{
				CompanyNumber: company,
				Series:        series,
				Trajectory:    statement.ComputeTrajectory(series),
			})
		}

		if seriesXLSX != "" {
			if err := export.WriteSeriesXLSX(seriesXLSX, reduced); err != nil {
				return err
			}
			zap.L().Info("workbook written",
				zap.String("path", seriesXLSX),
				zap.Int("companies", len(reduced)),
			)
			return nil
		}

		if seriesCompany != "" && len(out) == 0 {
			return eris.Errorf("no records for company %s", seriesCompany)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	seriesCmd.Flags().StringVar(&seriesCompany, "company", "", "company number (default all)")
	seriesCmd.Flags().StringVar(&seriesXLSX, "xlsx", "", "write an XLSX workbook instead of JSON")
	rootCmd.AddCommand(seriesCmd)
}
