package model

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// FirmProfile holds the observable market inputs for one firm.
type FirmProfile struct {
	ID           string  `json:"firm"`
	EquityValue  float64 `json:"equity_value"`
	EquityVol    float64 `json:"equity_vol"`
	DebtFace     float64 `json:"debt_face"`
	RiskFreeRate float64 `json:"risk_free"`
	HorizonYears float64 `json:"horizon_years"`
}

// Validate checks the positivity constraints of the structural model inputs.
// RiskFreeRate is unbounded and may be negative.
func (f FirmProfile) Validate() error {
	var errs []string

	positive := []struct {
		name string
		v    float64
	}{
		{"equity_value", f.EquityValue},
		{"equity_vol", f.EquityVol},
		{"debt_face", f.DebtFace},
		{"horizon_years", f.HorizonYears},
	}
	for _, p := range positive {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			errs = append(errs, p.name+" must be > 0")
		}
	}
	if math.IsNaN(f.RiskFreeRate) || math.IsInf(f.RiskFreeRate, 0) {
		errs = append(errs, "risk_free must be finite")
	}

	if len(errs) > 0 {
		return eris.Wrapf(ErrInvalidInput, "firm %q: %s", f.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateFirms validates every firm and returns the first failure.
func ValidateFirms(firms []FirmProfile) error {
	for i, f := range firms {
		if err := f.Validate(); err != nil {
			return eris.Wrapf(err, "firm #%d", i+1)
		}
	}
	return nil
}

// SampleFirms returns the three-firm reference dataset.
func SampleFirms() []FirmProfile {
	return []FirmProfile{
		{ID: "FirmA", EquityValue: 100, EquityVol: 0.3, DebtFace: 80, RiskFreeRate: 0.01, HorizonYears: 1},
		{ID: "FirmB", EquityValue: 200, EquityVol: 0.25, DebtFace: 150, RiskFreeRate: 0.015, HorizonYears: 1},
		{ID: "FirmC", EquityValue: 150, EquityVol: 0.28, DebtFace: 120, RiskFreeRate: 0.012, HorizonYears: 1},
	}
}
