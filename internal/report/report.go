// Package report renders stress run results as aligned text, CSV, JSON,
// Markdown or an XLSX workbook.
package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/engine"
	"github.com/sells-group/credit-stress/internal/model"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatMarkdown, FormatXLSX:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", eris.Wrapf(model.ErrConfiguration, "report: unknown format %q (want table, csv, json, markdown or xlsx)", s)
	}
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Run is one stress run ready for rendering.
type Run struct {
	ID          string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Records     []model.ResultRecord `json:"records"`
	Curves      []model.PDCurve      `json:"curves"`
}

// NewRun stamps records with a fresh run id and derives their PD curves.
func NewRun(records []model.ResultRecord) *Run {
	return &Run{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Records:     records,
		Curves:      engine.Curves(records),
	}
}

// Write renders run to w in the given format.
func Write(w io.Writer, format Format, run *Run) error {
	switch format {
	case FormatTable:
		return WriteTable(w, run.Records)
	case FormatCSV:
		return WriteCSV(w, run.Records)
	case FormatJSON:
		return WriteJSON(w, run)
	case FormatMarkdown:
		return WriteMarkdown(w, run)
	case FormatXLSX:
		return WriteXLSX(w, run)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
}

// Columns is the flat column set shared by the CSV, table and XLSX writers.
var Columns = []string{
	"firm",
	"scenario",
	"sales_decline_pct",
	"equity_value",
	"equity_vol",
	"asset_value",
	"asset_vol",
	"distance_to_default",
	"probability_of_default",
	"converged",
	"iterations",
	"assumed_mcap_decline_pct",
	"assumed_profit_decline_pct",
}

// flatRow renders a record with full float precision. The assumed impact
// columns are empty on baseline rows.
func flatRow(r model.ResultRecord) []string {
	mcap, profit := "", ""
	if r.Impact != nil {
		mcap = formatFloat(r.Impact.MCapDeclinePct)
		profit = formatFloat(r.Impact.ProfitDeclinePct)
	}
	return []string{
		r.Firm,
		r.Scenario,
		strconv.Itoa(r.Severity),
		formatFloat(r.EquityValue),
		formatFloat(r.EquityVol),
		formatFloat(r.State.AssetValue),
		formatFloat(r.State.AssetVol),
		formatFloat(r.Risk.DistanceToDefault),
		formatFloat(r.Risk.ProbabilityOfDefault),
		strconv.FormatBool(r.State.Converged),
		strconv.Itoa(r.State.Iterations),
		mcap,
		profit,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
