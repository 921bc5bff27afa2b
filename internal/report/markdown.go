package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-stress/internal/model"
)

// RenderMarkdown renders the run as a Markdown document with one section
// per firm: its result rows followed by its PD curve table.
func RenderMarkdown(run *Run) string {
	var sb strings.Builder

	firms := firmOrder(run.Records)
	scenarios := scenarioOrder(run.Records)

	sb.WriteString("# Credit Stress Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", run.ID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", run.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Firms: %d | Scenarios: %d | Records: %d\n\n", len(firms), len(scenarios), len(run.Records)))

	if n := nonConverged(run.Records); n > 0 {
		sb.WriteString(fmt.Sprintf("**Warning:** %d solve(s) did not converge; their rows carry the last iterate.\n\n", n))
	}

	for _, firm := range firms {
		sb.WriteString(fmt.Sprintf("## %s\n\n", firm))

		sb.WriteString("| Scenario | Sales decline % | Equity | Equity vol | Assets | Asset vol | DD | PD | Converged |\n")
		sb.WriteString("|----------|-----------------|--------|------------|--------|-----------|----|----|-----------|\n")
		for _, r := range run.Records {
			if r.Firm != firm {
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f | %.2f | %.4f | %.4f | %.6e | %v |\n",
				r.Scenario, r.Severity, r.EquityValue, r.EquityVol,
				r.State.AssetValue, r.State.AssetVol,
				r.Risk.DistanceToDefault, r.Risk.ProbabilityOfDefault, r.State.Converged))
		}
		sb.WriteString("\n")

		curves := firmCurves(run.Curves, firm)
		if len(curves) == 0 {
			continue
		}
		severities := curveSeverities(curves)

		sb.WriteString("### PD curve\n\n")
		sb.WriteString("| Scenario | Baseline |")
		for _, s := range severities {
			sb.WriteString(fmt.Sprintf(" %d%% |", s))
		}
		sb.WriteString("\n|----------|----------|")
		sb.WriteString(strings.Repeat("------|", len(severities)))
		sb.WriteString("\n")
		for _, c := range curves {
			sb.WriteString(fmt.Sprintf("| %s | %.6e |", c.Scenario, c.BaselinePD))
			byS := make(map[int]float64, len(c.Points))
			for _, p := range c.Points {
				byS[p.Severity] = p.PD
			}
			for _, s := range severities {
				if pd, ok := byS[s]; ok {
					sb.WriteString(fmt.Sprintf(" %.6e |", pd))
				} else {
					sb.WriteString(" - |")
				}
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteMarkdown writes RenderMarkdown output to w.
func WriteMarkdown(w io.Writer, run *Run) error {
	if _, err := io.WriteString(w, RenderMarkdown(run)); err != nil {
		return eris.Wrap(err, "report: write markdown")
	}
	return nil
}

func firmOrder(records []model.ResultRecord) []string {
	var out []string
	for _, r := range records {
		if !slices.Contains(out, r.Firm) {
			out = append(out, r.Firm)
		}
	}
	return out
}

func scenarioOrder(records []model.ResultRecord) []string {
	var out []string
	for _, r := range records {
		if !r.IsBaseline() && !slices.Contains(out, r.Scenario) {
			out = append(out, r.Scenario)
		}
	}
	return out
}

func nonConverged(records []model.ResultRecord) int {
	n := 0
	for _, r := range records {
		if !r.State.Converged {
			n++
		}
	}
	return n
}

func firmCurves(curves []model.PDCurve, firm string) []model.PDCurve {
	var out []model.PDCurve
	for _, c := range curves {
		if c.Firm == firm {
			out = append(out, c)
		}
	}
	return out
}

func curveSeverities(curves []model.PDCurve) []int {
	var out []int
	for _, c := range curves {
		for _, p := range c.Points {
			if !slices.Contains(out, p.Severity) {
				out = append(out, p.Severity)
			}
		}
	}
	slices.Sort(out)
	return out
}
