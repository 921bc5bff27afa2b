package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names of the XLSX workbook.
const (
	SheetResults = "Results"
	SheetCurves  = "PD Curves"
)

// WriteXLSX writes a workbook with a results sheet in the flat column layout
// and a curves sheet with one row per (firm, scenario, severity).
func WriteXLSX(w io.Writer, run *Run) error {
	f := xlsx.NewFile()

	results, err := f.AddSheet(SheetResults)
	if err != nil {
		return eris.Wrap(err, "report: add results sheet")
	}
	addStringRow(results, Columns)
	for _, r := range run.Records {
		row := results.AddRow()
		row.AddCell().SetString(r.Firm)
		row.AddCell().SetString(r.Scenario)
		row.AddCell().SetInt(r.Severity)
		row.AddCell().SetFloat(r.EquityValue)
		row.AddCell().SetFloat(r.EquityVol)
		row.AddCell().SetFloat(r.State.AssetValue)
		row.AddCell().SetFloat(r.State.AssetVol)
		row.AddCell().SetFloat(r.Risk.DistanceToDefault)
		row.AddCell().SetFloat(r.Risk.ProbabilityOfDefault)
		row.AddCell().SetBool(r.State.Converged)
		row.AddCell().SetInt(r.State.Iterations)
		if r.Impact != nil {
			row.AddCell().SetFloat(r.Impact.MCapDeclinePct)
			row.AddCell().SetFloat(r.Impact.ProfitDeclinePct)
		} else {
			row.AddCell()
			row.AddCell()
		}
	}

	curves, err := f.AddSheet(SheetCurves)
	if err != nil {
		return eris.Wrap(err, "report: add curves sheet")
	}
	addStringRow(curves, []string{"firm", "scenario", "baseline_pd", "sales_decline_pct", "probability_of_default"})
	for _, c := range run.Curves {
		for _, p := range c.Points {
			row := curves.AddRow()
			row.AddCell().SetString(c.Firm)
			row.AddCell().SetString(c.Scenario)
			row.AddCell().SetFloat(c.BaselinePD)
			row.AddCell().SetInt(p.Severity)
			row.AddCell().SetFloat(p.PD)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
