package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/credit-stress/internal/model"
)

var tableHeader = []string{
	"FIRM", "SCENARIO", "SALES%", "EQUITY", "EQ_VOL", "ASSETS", "A_VOL", "DD", "PD%", "CONV", "ITER", "MCAP%", "PROFIT%",
}

// WriteTable writes records as an aligned text table. Numbers use English
// digit grouping; PD is shown in percent.
func WriteTable(w io.Writer, records []model.ResultRecord) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(tw, strings.Join(tableHeader, "\t")+"\t")
	dashes := make([]string, len(tableHeader))
	for i, h := range tableHeader {
		dashes[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(dashes, "\t")+"\t")

	for _, r := range records {
		mcap, profit := "-", "-"
		if r.Impact != nil {
			mcap = p.Sprintf("%.2f", r.Impact.MCapDeclinePct)
			profit = p.Sprintf("%.2f", r.Impact.ProfitDeclinePct)
		}
		conv := "yes"
		if !r.State.Converged {
			conv = "NO"
		}
		_, _ = fmt.Fprintln(tw, strings.Join([]string{
			r.Firm,
			r.Scenario,
			p.Sprintf("%d", r.Severity),
			p.Sprintf("%.2f", r.EquityValue),
			p.Sprintf("%.4f", r.EquityVol),
			p.Sprintf("%.2f", r.State.AssetValue),
			p.Sprintf("%.4f", r.State.AssetVol),
			p.Sprintf("%.4f", r.Risk.DistanceToDefault),
			p.Sprintf("%.6f", r.Risk.ProbabilityOfDefault*100),
			conv,
			p.Sprintf("%d", r.State.Iterations),
			mcap,
			profit,
		}, "\t")+"\t")
	}

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "report: write table")
	}
	return nil
}
