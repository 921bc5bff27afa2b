package model

// ScenarioBaseline labels the unshocked row emitted first for every firm.
const ScenarioBaseline = "Baseline"

// Impact is the pair of assumed percentage declines for one severity.
type Impact struct {
	ProfitDeclinePct float64 `json:"profit_decline_pct" yaml:"profit_decline_pct"`
	MCapDeclinePct   float64 `json:"mcap_decline_pct" yaml:"mcap_decline_pct"`
}

// SolverState is the recovered latent asset state of a firm.
type SolverState struct {
	AssetValue float64 `json:"asset_value"`
	AssetVol   float64 `json:"asset_vol"`
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
}

// RiskResult holds distance-to-default and the implied default probability.
type RiskResult struct {
	DistanceToDefault    float64 `json:"distance_to_default"`
	ProbabilityOfDefault float64 `json:"probability_of_default"`
}

// ResultRecord is one output row of a stress run.
type ResultRecord struct {
	Firm        string      `json:"firm"`
	Scenario    string      `json:"scenario"`
	Severity    int         `json:"sales_decline_pct"`
	EquityValue float64     `json:"equity_value"`
	EquityVol   float64     `json:"equity_vol"`
	State       SolverState `json:"state"`
	Risk        RiskResult  `json:"risk"`
	Impact      *Impact     `json:"impact,omitempty"` // nil on the baseline row
}

// IsBaseline reports whether the record is the unshocked baseline row.
func (r ResultRecord) IsBaseline() bool {
	return r.Impact == nil
}

// CurvePoint is a single (severity, PD) pair on a stressed PD curve.
type CurvePoint struct {
	Severity int     `json:"sales_decline_pct"`
	PD       float64 `json:"probability_of_default"`
}

// PDCurve is the PD-vs-severity series of one firm under one scenario.
type PDCurve struct {
	Firm       string       `json:"firm"`
	Scenario   string       `json:"scenario"`
	BaselinePD float64      `json:"baseline_pd"`
	Points     []CurvePoint `json:"points"`
}

// MaxPD returns the largest PD on the curve, or the baseline PD if the curve is empty.
func (c PDCurve) MaxPD() float64 {
	maxPD := c.BaselinePD
	for _, p := range c.Points {
		if p.PD > maxPD {
			maxPD = p.PD
		}
	}
	return maxPD
}
