package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/holyrood-analytics/scotbudget/pkg/budget"
	"github.com/holyrood-analytics/scotbudget/pkg/reform"
	"github.com/holyrood-analytics/scotbudget/pkg/telemetry"
)

// Error codes returned in the JSON error envelope.
const (
	codeBadRequest        = "bad_request"
	codeCalculationFailed = "calculation_failed"
)

// errorResponse is the envelope for every non-2xx body.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type rootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type variationResponse struct {
	Data []budget.VariationPoint `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := RequestIDFromContext(r.Context())
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	})
}

// handleRoot handles GET / requests
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Status:  "ok",
		Service: "scottish-budget-api",
	})
}

// handleHealth handles GET /health requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// handleCalculate handles POST /calculate requests
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var in budget.HouseholdInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	impact, err := s.calculator().Calculate(in)
	s.recordCalculation(r, "calculate", start, err)
	if err != nil {
		s.calculationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, impact)
}

// handleCalculateVariation handles POST /calculate-variation requests
func (s *Server) handleCalculateVariation(w http.ResponseWriter, r *http.Request) {
	var in budget.HouseholdInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	points, err := s.calculator().CalculateVariation(in)
	s.recordCalculation(r, "calculate_variation", start, err)
	if err != nil {
		s.calculationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, variationResponse{Data: points})
}

// handlePolicies handles GET /policies requests
func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reform.Policies())
}

// handlePresets handles GET /presets requests
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reform.Presets())
}

// handleMansionTax handles GET /mansion-tax requests
func (s *Server) handleMansionTax(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.calculator().MansionTax()
	if err != nil {
		s.logger.Error("Mansion tax analysis failed", "error", err)
		if s.metrics != nil {
			s.metrics.RecordCalculation("mansion_tax", "error")
		}
		writeError(w, r, http.StatusInternalServerError, codeCalculationFailed, err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.RecordCalculation("mansion_tax", "ok")
	}
	writeJSON(w, http.StatusOK, analysis)
}

// calculationError maps calculator failures onto the error envelope.
// Validation failures are the caller's fault, everything else is ours.
func (s *Server) calculationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, budget.ErrInvalidInput) {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	s.logger.Error("Calculation failed", "error", err, "path", r.URL.Path)
	writeError(w, r, http.StatusInternalServerError, codeCalculationFailed, err.Error())
}

// recordCalculation emits the simulation telemetry for one calculator run.
func (s *Server) recordCalculation(r *http.Request, endpoint string, start time.Time, err error) {
	outcome := telemetry.OutcomeOK
	status := "ok"
	if err != nil {
		outcome = telemetry.OutcomeError
		status = "error"
	}

	telemetry.RecordSimulation(r.Context(), telemetry.SimulationMetrics{
		Reform:   "combined",
		Endpoint: endpoint,
		Outcome:  outcome,
		Duration: time.Since(start),
	})
	if s.metrics != nil {
		s.metrics.RecordCalculation(endpoint, status)
	}
}
