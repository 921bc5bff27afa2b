package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/model"
	"github.com/sells-group/credit-stress/internal/report"
	"github.com/sells-group/credit-stress/internal/scenario"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scenariosResponse struct {
	Scenarios  scenario.Set `json:"scenarios"`
	Severities []int        `json:"severities"`
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenariosResponse{Scenarios: s.scenarios, Severities: s.severities})
}

type lookupResponse struct {
	Scenario string `json:"scenario"`
	Severity int    `json:"sales_decline_pct"`
	model.Impact
}

// handleLookup serves GET /v1/lookup?scenario=Base&severity=15.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("scenario")
	m, ok := s.scenarios.Get(name)
	if !ok {
		s.writeError(w, eris.Wrapf(model.ErrInvalidInput, "api: unknown scenario %q", name))
		return
	}
	sev, err := strconv.Atoi(r.URL.Query().Get("severity"))
	if err != nil {
		s.writeError(w, eris.Wrapf(model.ErrInvalidInput, "api: severity must be an integer, got %q", r.URL.Query().Get("severity")))
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Scenario: name, Severity: sev, Impact: m.Lookup(sev)})
}

type solveResponse struct {
	Firm  string            `json:"firm"`
	State model.SolverState `json:"state"`
	Risk  model.RiskResult  `json:"risk"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var firm model.FirmProfile
	if err := decodeBody(w, r, &firm); err != nil {
		s.writeError(w, eris.Wrapf(model.ErrInvalidInput, "api: decode firm: %v", err))
		return
	}

	rec, err := s.engine.Baseline(firm)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, solveResponse{Firm: rec.Firm, State: rec.State, Risk: rec.Risk})
}

// stressRequest carries the firms to stress. Severities and scenarios are
// optional and default to the server's configuration.
type stressRequest struct {
	Firms      []model.FirmProfile `json:"firms"`
	Severities []int               `json:"severities,omitempty"`
	Scenarios  *scenario.Set       `json:"scenarios,omitempty"`
}

func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	var req stressRequest
	if err := decodeBody(w, r, &req); err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			s.writeError(w, err)
			return
		}
		s.writeError(w, eris.Wrapf(model.ErrInvalidInput, "api: decode stress request: %v", err))
		return
	}
	if len(req.Firms) == 0 {
		s.writeError(w, eris.Wrap(model.ErrInvalidInput, "api: at least one firm is required"))
		return
	}

	severities := req.Severities
	if len(severities) == 0 {
		severities = s.severities
	}
	set := s.scenarios
	if req.Scenarios != nil {
		set = *req.Scenarios
	}

	recs, err := s.engine.Run(r.Context(), req.Firms, severities, set)
	if err != nil {
		s.writeError(w, err)
		return
	}

	run := report.NewRun(recs)
	s.log.Info("api: stress run complete",
		zap.String("run_id", run.ID),
		zap.Int("firms", len(req.Firms)),
		zap.Int("records", len(recs)),
	)
	writeJSON(w, http.StatusOK, run)
}
