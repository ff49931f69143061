package server

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/metacheck/pkg/buildinfo"
	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/finding"
	mcio "github.com/matzehuels/metacheck/pkg/io"
	"github.com/matzehuels/metacheck/pkg/pipeline"
	"github.com/matzehuels/metacheck/pkg/rules"
)

// defaultRepoID names a record posted without a "repo" parameter.
const defaultRepoID = "record.json"

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}

// RuleInfo is the catalog entry of one rule.
type RuleInfo struct {
	Code        rules.Code     `json:"code"`
	Severity    rules.Severity `json:"severity"`
	Category    rules.Category `json:"category"`
	Description string         `json:"description"`
	Suggestion  string         `json:"suggestion"`
}

func ruleInfo(r rules.Rule) RuleInfo {
	return RuleInfo{
		Code:        r.Code,
		Severity:    r.Severity,
		Category:    r.Category,
		Description: r.Description,
		Suggestion:  r.Suggestion,
	}
}

// AnalyzeResponse is the body returned by POST /v1/analyze.
type AnalyzeResponse struct {
	RepoID  string            `json:"repo"`
	Summary *pipeline.Summary `json:"summary"`
	Bundle  *finding.Bundle   `json:"bundle,omitempty"`
	Faults  int               `json:"faults,omitempty"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
		Rules:   s.runner.Registry.Len(),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	all := s.runner.Registry.Rules()
	out := make([]RuleInfo, len(all))
	for i, rule := range all {
		out[i] = ruleInfo(rule)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.runner.Registry.Lookup(chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeNotFound, err, "rule %s not found", chi.URLParam(r, "code")))
		return
	}
	writeJSON(w, http.StatusOK, ruleInfo(rule))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	repoID := strings.TrimSpace(r.URL.Query().Get("repo"))
	if repoID == "" {
		repoID = defaultRepoID
	}
	repoID = pipeline.RepoID(repoID)

	runner := s.runner
	if sel := r.URL.Query().Get("rules"); sel != "" {
		reg, err := s.runner.Registry.Select(strings.Split(sel, ","))
		if err != nil {
			s.writeError(w, err)
			return
		}
		cp := *s.runner
		cp.Registry = reg
		runner = &cp
	}

	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	rec, err := mcio.ReadRecord(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	outcome := runner.Check(r.Context(), rec, repoID)
	if err := r.Context().Err(); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeTimeout, err, "analysis of %s interrupted", repoID))
		return
	}
	summary := pipeline.NewSummary(middleware.GetReqID(r.Context()), runner.Registry)
	summary.Add(outcome)
	summary.Finish()

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RepoID:  repoID,
		Summary: summary,
		Bundle:  outcome.Bundle,
		Faults:  outcome.Faults,
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// statusFor maps an error code onto an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRecord, errors.ErrCodeUnknownRule:
		if isTooLarge(err) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return stderrors.As(err, &mbe)
}
