package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spegfinder/clearview/internal/model"
	"github.com/spegfinder/clearview/internal/statement"
	"github.com/spegfinder/clearview/pkg/companieshouse"
)

var fetchFilings int

var fetchCmd = &cobra.Command{
	Use:   "fetch COMPANY_NUMBER",
	Short: "Fetch filed accounts from Companies House and parse them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		companyNumber := args[0]

		if cfg.CompaniesHouse.APIKey == "" {
			return eris.New("companies house API key is required (CLEARVIEW_COMPANIES_HOUSE_API_KEY)")
		}

		client := companieshouse.New(companieshouse.Options{
			APIKey:          cfg.CompaniesHouse.APIKey,
			BaseURL:         cfg.CompaniesHouse.BaseURL,
			DocumentBaseURL: cfg.CompaniesHouse.DocumentBaseURL,
			RatePerSec:      cfg.CompaniesHouse.RatePerSec,
			Timeout:         time.Duration(cfg.CompaniesHouse.TimeoutSecs) * time.Second,
			MaxRetries:      cfg.CompaniesHouse.MaxRetries,
		})

		tax, err := loadTaxonomy()
		if err != nil {
			return err
		}

		filings, err := client.AccountsFilings(ctx, companyNumber, fetchFilings)
		if err != nil {
			return err
		}
		zap.L().Info("filing history fetched",
			zap.String("company", companyNumber),
			zap.Int("filings", len(filings)),
		)

		var candidates []*model.PeriodRecord
		for _, filing := range filings {
			if filing.Links.DocumentMetadata == "" {
				continue
			}
			content, contentType, err := client.FetchDocument(ctx, filing.Links.DocumentMetadata)
			if err != nil {
				return err
			}
			if content == nil {
				zap.L().Debug("no tagged rendition",
					zap.String("transaction", filing.TransactionID),
				)
				continue
			}

			records, err := statement.ExtractDocument(content, contentType, tax)
			if err != nil {
				zap.L().Warn("document parse failed",
					zap.String("transaction", filing.TransactionID),
					zap.Error(err),
				)
				continue
			}
			for _, r := range records {
				r.CompanyNumber = companyNumber
			}
			candidates = append(candidates, records...)
		}

		series := statement.Reduce(candidates)
		out := struct {
			CompanyNumber string                    `json:"company_number"`
			Series        model.FinancialSeries     `json:"series"`
			Trajectory    *model.TrajectoryFeatures `json:"trajectory"`
		}{
			CompanyNumber: companyNumber,
			Series:        series,
			Trajectory:    statement.ComputeTrajectory(series),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchFilings, "filings", 5, "number of accounts filings to fetch")
	rootCmd.AddCommand(fetchCmd)
}
