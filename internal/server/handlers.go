package server

import (
	"net/http"

	"github.com/sells-group/pipeline-analytics/internal/forecast"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type forecastResponse struct {
	Period   string               `json:"period,omitempty"`
	Forecast forecast.Result      `json:"forecast"`
	Gap      forecast.GapAnalysis `json:"gap"`
	Coverage float64              `json:"coverage"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, forecastResponse{
		Period:   rep.Period,
		Forecast: rep.Forecast,
		Gap:      rep.Gap,
		Coverage: rep.Coverage,
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep.Monthly)
}

func (s *Server) handleRisks(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"at_risk": rep.AtRisk,
		"stats":   rep.Stats,
	})
}

func (s *Server) handleRiskGroups(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep.Groups)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep.Plan)
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.analyze(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep.Matrix)
}
