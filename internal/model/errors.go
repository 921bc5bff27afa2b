package model

import "github.com/rotisserie/eris"

// Error taxonomy shared by the solver, scenario tables and engine.
// Wrapped errors keep these in their chain; test with errors.Is.
var (
	// ErrInvalidInput marks a firm profile that violates a positivity constraint.
	ErrInvalidInput = eris.New("invalid input")

	// ErrConfiguration marks a scenario table or volatility rule that cannot be built.
	ErrConfiguration = eris.New("configuration error")

	// ErrNonConvergence marks a solve that exhausted its iteration budget
	// when the caller asked for non-convergence to be fatal.
	ErrNonConvergence = eris.New("solver did not converge")
)
