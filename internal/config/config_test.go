package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []int{0, 10, 20, 30}, cfg.Stress.Severities)
	assert.Empty(t, cfg.Stress.ScenariosFile)
	assert.Equal(t, "linear", cfg.Stress.VolMode)
	assert.InDelta(t, 0.5, cfg.Stress.Gamma, 1e-12)
	assert.Equal(t, 4, cfg.Stress.Concurrency)
	assert.Equal(t, "warn", cfg.Stress.NonConvergence)
	assert.InDelta(t, 1e-7, cfg.Solver.Tolerance, 1e-15)
	assert.Equal(t, 200, cfg.Solver.MaxIter)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "credit-stress/1.0", cfg.Fetch.UserAgent)
	assert.InDelta(t, 2.0, cfg.Fetch.RequestsPerSecond, 1e-12)

	assert.NoError(t, cfg.Validate("stress"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
stress:
  severities: [0, 5, 15]
  scenarios_file: scenarios.yaml
  vol_mode: none
  nonconvergence: reject
solver:
  max_iter: 500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []int{0, 5, 15}, cfg.Stress.Severities)
	assert.Equal(t, "scenarios.yaml", cfg.Stress.ScenariosFile)
	assert.Equal(t, "none", cfg.Stress.VolMode)
	assert.Equal(t, "reject", cfg.Stress.NonConvergence)
	assert.Equal(t, 500, cfg.Solver.MaxIter)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Stress.Concurrency)
	assert.InDelta(t, 1e-7, cfg.Solver.Tolerance, 1e-15)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
stress:
  vol_mode: none
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CREDITSTRESS_STRESS_VOL_MODE", "linear")
	t.Setenv("CREDITSTRESS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "linear", cfg.Stress.VolMode)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CREDITSTRESS_SERVER_PORT", "3000")
	t.Setenv("CREDITSTRESS_STRESS_GAMMA", "0.75")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 0.75, cfg.Stress.Gamma, 1e-12)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("stress: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Stress.Severities = []int{0, 10, 20, 30}
	cfg.Stress.VolMode = "linear"
	cfg.Stress.Gamma = 0.5
	cfg.Stress.Concurrency = 4
	cfg.Stress.NonConvergence = "warn"
	cfg.Solver.Tolerance = 1e-7
	cfg.Solver.MaxIter = 200
	cfg.Fetch.TimeoutSecs = 30
	cfg.Fetch.MaxRetries = 3
	cfg.Fetch.RequestsPerSecond = 2
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateStress_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("stress"))
}

func TestValidateStress_ReportsEveryViolation(t *testing.T) {
	cfg := validDefaults()
	cfg.Stress.VolMode = "quadratic"
	cfg.Stress.Gamma = -1
	cfg.Stress.NonConvergence = "ignore"
	cfg.Solver.Tolerance = 0
	cfg.Solver.MaxIter = 0
	cfg.Fetch.TimeoutSecs = 0

	err := cfg.Validate("stress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: validation failed")
	assert.Contains(t, err.Error(), `stress.vol_mode "quadratic" must be none or linear`)
	assert.Contains(t, err.Error(), "stress.gamma must be >= 0")
	assert.Contains(t, err.Error(), `stress.nonconvergence "ignore"`)
	assert.Contains(t, err.Error(), "solver.tolerance must be > 0")
	assert.Contains(t, err.Error(), "solver.max_iter must be >= 1")
	assert.Contains(t, err.Error(), "fetch.timeout_secs must be > 0")
}

func TestValidateStress_NaNGammaAndTolerance(t *testing.T) {
	cfg := validDefaults()
	cfg.Stress.Gamma = math.NaN()
	cfg.Solver.Tolerance = math.NaN()

	err := cfg.Validate("stress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stress.gamma")
	assert.Contains(t, err.Error(), "solver.tolerance")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Stress.Concurrency = 0
	err := cfg.Validate("stress")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stress.concurrency must be between 1 and 64")

	cfg.Stress.Concurrency = 65
	err = cfg.Validate("stress")
	assert.Error(t, err)

	cfg.Stress.Concurrency = 64
	assert.NoError(t, cfg.Validate("stress"))
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_IgnoresFetch(t *testing.T) {
	cfg := validDefaults()
	cfg.Fetch.TimeoutSecs = 0

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
