package http

import (
	"log/slog"
	"net/http"

	"prevgest/internal/core"
)

type amountRow struct {
	Key    string
	Amount string
}

type dashboardView struct {
	ActiveContracts int64
	ClosedContracts int64
	TotalReceived   string
	TotalReceivable string
	TotalRPV        string
	TotalPrecatorio string
	TotalFees       string
	BilledByYear    []amountRow
	ReceivedByMonth []amountRow
}

// handleDashboard renders the main page: contract counts, received and
// receivable totals, per-category totals and the time series tables.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary error", "error", err)
		http.Error(w, "erro ao carregar painel", http.StatusInternalServerError)
		return
	}

	view := dashboardView{
		ActiveContracts: summary.ActiveContracts,
		ClosedContracts: summary.ClosedContracts,
		TotalReceived:   core.FormatBRL(summary.TotalReceived.Cents),
		TotalReceivable: core.FormatBRL(summary.TotalReceivable.Cents),
		TotalRPV:        core.FormatBRL(summary.TotalRPV.Cents),
		TotalPrecatorio: core.FormatBRL(summary.TotalPrecatorio.Cents),
		TotalFees:       core.FormatBRL(summary.TotalFees.Cents),
	}
	for _, ya := range summary.BilledByYear {
		view.BilledByYear = append(view.BilledByYear, amountRow{Key: ya.Year, Amount: core.FormatBRL(ya.Amount.Cents)})
	}
	for _, ma := range summary.ReceivedByMonth {
		view.ReceivedByMonth = append(view.ReceivedByMonth, amountRow{Key: ma.Month, Amount: core.FormatBRL(ma.Amount.Cents)})
	}

	s.render(w, r, "index.html", view)
}
