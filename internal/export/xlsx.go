// Package export writes reduced financial series to reviewable artifacts.
package export

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/spegfinder/clearview/internal/model"
)

// WriteSeriesXLSX writes one row per company-year to an XLSX workbook:
// company number, year, period end, then every canonical field (blank when
// absent). Companies are sorted for a stable output.
func WriteSeriesXLSX(path string, series map[string]model.FinancialSeries) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Financials")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"company_number", "year", "period_end"} {
		header.AddCell().Value = h
	}
	for _, f := range model.AllFields() {
		header.AddCell().Value = f.String()
	}

	companies := make([]string, 0, len(series))
	for c := range series {
		companies = append(companies, c)
	}
	sort.Strings(companies)

	for _, company := range companies {
		for _, record := range series[company] {
			row := sheet.AddRow()
			row.AddCell().Value = company
			row.AddCell().Value = record.Year
			row.AddCell().Value = record.PeriodEnd
			for _, f := range model.AllFields() {
				cell := row.AddCell()
				if v, ok := record.Value(f); ok {
					cell.SetFloat(v)
				}
			}
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
