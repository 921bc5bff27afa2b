package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFirm() FirmProfile {
	return FirmProfile{ID: "FirmA", EquityValue: 100, EquityVol: 0.3, DebtFace: 80, RiskFreeRate: 0.01, HorizonYears: 1}
}

func TestFirmProfileValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*FirmProfile)
		wantErr string
	}{
		{"valid", func(*FirmProfile) {}, ""},
		{"negative rate allowed", func(f *FirmProfile) { f.RiskFreeRate = -0.005 }, ""},
		{"zero equity", func(f *FirmProfile) { f.EquityValue = 0 }, "equity_value must be > 0"},
		{"negative vol", func(f *FirmProfile) { f.EquityVol = -0.1 }, "equity_vol must be > 0"},
		{"zero debt", func(f *FirmProfile) { f.DebtFace = 0 }, "debt_face must be > 0"},
		{"zero horizon", func(f *FirmProfile) { f.HorizonYears = 0 }, "horizon_years must be > 0"},
		{"nan equity", func(f *FirmProfile) { f.EquityValue = math.NaN() }, "equity_value must be > 0"},
		{"infinite rate", func(f *FirmProfile) { f.RiskFreeRate = math.Inf(1) }, "risk_free must be finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := validFirm()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFirmProfileValidate_ReportsAllViolations(t *testing.T) {
	f := FirmProfile{ID: "Broken"}
	err := f.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equity_value")
	assert.Contains(t, err.Error(), "equity_vol")
	assert.Contains(t, err.Error(), "debt_face")
	assert.Contains(t, err.Error(), "horizon_years")
}

func TestValidateFirms(t *testing.T) {
	firms := SampleFirms()
	require.NoError(t, ValidateFirms(firms))

	firms[1].DebtFace = -1
	err := ValidateFirms(firms)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "firm #2")
	assert.Contains(t, err.Error(), "FirmB")
}

func TestSampleFirms(t *testing.T) {
	firms := SampleFirms()
	require.Len(t, firms, 3)
	assert.Equal(t, "FirmA", firms[0].ID)
	assert.Equal(t, "FirmB", firms[1].ID)
	assert.Equal(t, "FirmC", firms[2].ID)
}

func TestPDCurveMaxPD(t *testing.T) {
	c := PDCurve{BaselinePD: 0.05}
	assert.InDelta(t, 0.05, c.MaxPD(), 1e-12)

	c.Points = []CurvePoint{{Severity: 10, PD: 0.08}, {Severity: 20, PD: 0.2}, {Severity: 30, PD: 0.15}}
	assert.InDelta(t, 0.2, c.MaxPD(), 1e-12)
}

func TestResultRecordIsBaseline(t *testing.T) {
	assert.True(t, ResultRecord{Scenario: ScenarioBaseline}.IsBaseline())
	assert.False(t, ResultRecord{Scenario: "Base", Impact: &Impact{}}.IsBaseline())
}
