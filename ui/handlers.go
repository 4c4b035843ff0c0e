package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"

	"prevalence/app"
	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
)

// analysisRequest is the JSON body for POST /api/analyses. Observed data is
// given either as raw per-individual p-values or as a counts pair; optional
// fields override the configured defaults.
type analysisRequest struct {
	StudyName     string    `json:"study_name"`
	PValues       []float64 `json:"p_values,omitempty"`
	PositiveCount *int      `json:"positive_count,omitempty"`
	TotalCount    *int      `json:"total_count,omitempty"`

	AlphaIndividual *float64 `json:"alpha_individual,omitempty"`
	BetaIndividual  *float64 `json:"beta_individual,omitempty"`
	AlphaGroup      *float64 `json:"alpha_group,omitempty"`
	Gamma0          *float64 `json:"gamma_0,omitempty"`
	HPDIMass        *float64 `json:"hpdi_mass,omitempty"`
	BoundMass       *float64 `json:"bound_mass,omitempty"`
}

func (r analysisRequest) toServiceRequest() (app.AnalysisRequest, error) {
	req := app.DefaultAnalysisRequest()
	req.StudyName = r.StudyName

	var observed prevalence.ObservedData
	var err error
	switch {
	case len(r.PValues) > 0:
		observed, err = prevalence.ObservedFromPValues(r.PValues)
	case r.PositiveCount != nil && r.TotalCount != nil:
		observed, err = prevalence.ObservedFromCounts(*r.PositiveCount, *r.TotalCount)
	default:
		err = errors.InvalidObserved("request must carry p_values or a positive_count/total_count pair")
	}
	if err != nil {
		return app.AnalysisRequest{}, err
	}
	req.Observed = observed

	if r.AlphaIndividual != nil {
		req.TestConfig.AlphaIndividual = *r.AlphaIndividual
		req.BayesConfig.Alpha = *r.AlphaIndividual
	}
	if r.BetaIndividual != nil {
		req.TestConfig.BetaIndividual = *r.BetaIndividual
		req.BayesConfig.Beta = *r.BetaIndividual
	}
	if r.AlphaGroup != nil {
		req.TestConfig.AlphaGroup = *r.AlphaGroup
	}
	if r.Gamma0 != nil {
		req.TestConfig.Gamma0 = *r.Gamma0
	}
	if r.HPDIMass != nil {
		req.HPDIMass = *r.HPDIMass
	}
	if r.BoundMass != nil {
		req.BoundMass = *r.BoundMass
	}
	return req, nil
}

func (a *App) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, errors.InvalidInput("malformed JSON body"))
		return
	}

	req, err := body.toServiceRequest()
	if err != nil {
		a.writeError(w, err)
		return
	}

	result, err := a.service.Run(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, result)
}

func (a *App) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := a.repo.List(r.Context(), 100)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if analyses == nil {
		analyses = []*prevalence.Analysis{}
	}
	a.writeJSON(w, http.StatusOK, analyses)
}

func (a *App) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, ok := a.lookupAnalysis(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, analysis)
}

func (a *App) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	analysis, ok := a.lookupAnalysis(w, r)
	if !ok {
		return
	}

	md := a.reports.Render(analysis, nil)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	page := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) lookupAnalysis(w http.ResponseWriter, r *http.Request) (*prevalence.Analysis, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, errors.InvalidInput("analysis id must be a UUID"))
		return nil, false
	}
	analysis, err := a.repo.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return nil, false
	}
	return analysis, true
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeConfigInvalid, errors.CodeInvalidObserved, errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeNonConvergence:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	a.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
