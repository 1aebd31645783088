package http

import (
	"net/http"

	"fintrack/internal/apperr"
	"fintrack/internal/workspace"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	writeJSON(w, http.StatusOK, ws.Dashboard.Summary())
}

// handleDashboardView serves a single dashboard view by name.
func (s *Server) handleDashboardView(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	d := ws.Dashboard
	switch r.PathValue("view") {
	case "totals":
		writeJSON(w, http.StatusOK, d.Totals())
	case "categories":
		writeJSON(w, http.StatusOK, d.SpendingByCategory())
	case "monthly":
		writeJSON(w, http.StatusOK, d.MonthlySpending())
	case "income-vs-bills":
		writeJSON(w, http.StatusOK, d.IncomeVsBills())
	case "upcoming":
		writeJSON(w, http.StatusOK, d.UpcomingBills())
	default:
		respondWithError(w, r, apperr.WithMessage(apperr.ErrNotFound, "Unknown dashboard view"))
	}
}
