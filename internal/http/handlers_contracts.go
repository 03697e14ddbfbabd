package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"prevgest/internal/core"
	"prevgest/internal/storage"
)

type contractRow struct {
	Number     string
	Client     string
	CaseType   string
	ActionType string
	Status     string
}

func contractStatus(c core.Contract) string {
	if c.Closed() {
		return "Encerrado em " + c.ClosingDate
	}
	return "Ativo"
}

func (s *Server) handleContractList(w http.ResponseWriter, r *http.Request) {
	contracts, err := s.store.ListContracts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Contract list error", "error", err)
		http.Error(w, "erro ao listar contratos", http.StatusInternalServerError)
		return
	}

	view := struct{ Contracts []contractRow }{}
	for _, c := range contracts {
		view.Contracts = append(view.Contracts, contractRow{
			Number:     c.Number,
			Client:     c.Client,
			CaseType:   c.CaseType,
			ActionType: c.ActionType,
			Status:     contractStatus(c),
		})
	}
	s.render(w, r, "contracts.html", view)
}

type entryRow struct {
	EventType    string
	Description  string
	Amount       string
	Status       string
	ExpectedDate string
	ReceivedDate string
}

func (s *Server) handleContractView(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("numero")

	contract, err := s.store.GetContract(r.Context(), number)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Contract load error", "error", err, "contract", number)
		http.Error(w, "erro ao carregar contrato", http.StatusInternalServerError)
		return
	}

	entries, err := s.store.ListEntries(r.Context(), number)
	if err != nil {
		slog.ErrorContext(r.Context(), "Ledger list error", "error", err, "contract", number)
		http.Error(w, "erro ao carregar lançamentos", http.StatusInternalServerError)
		return
	}

	var totalCents int64
	view := struct {
		Number      string
		Client      string
		CaseType    string
		ActionType  string
		Status      string
		Entries     []entryRow
		Total       string
		FormAction  string
		EventTypes  []string
		StatusTypes []string
	}{
		Number:      contract.Number,
		Client:      contract.Client,
		CaseType:    contract.CaseType,
		ActionType:  contract.ActionType,
		Status:      contractStatus(contract),
		FormAction:  "/contratos/" + url.PathEscape(contract.Number) + "/lancamentos",
		EventTypes:  []string{string(core.EventFees), string(core.EventRPV), string(core.EventPrecatorio)},
		StatusTypes: []string{string(core.StatusReceived), string(core.StatusReceivable)},
	}
	for _, e := range entries {
		totalCents += e.Amount.Cents
		view.Entries = append(view.Entries, entryRow{
			EventType:    string(e.EventType),
			Description:  e.Description,
			Amount:       core.FormatBRL(e.Amount.Cents),
			Status:       string(e.PaymentStatus),
			ExpectedDate: e.ExpectedDate,
			ReceivedDate: e.ReceivedDate,
		})
	}
	view.Total = core.FormatBRL(totalCents)

	s.render(w, r, "contract.html", view)
}

// handleCreateEntry records a manual ledger entry submitted from the
// contract page. Missing required fields fail with a 422 naming the
// field.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("numero")

	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "path", r.URL.Path)
		http.Error(w, "formato de requisição inválido", http.StatusBadRequest)
		return
	}

	entry, err := entryFromForm(number, r.Form)
	if err != nil {
		var missing *core.MissingFieldError
		if errors.As(err, &missing) {
			slog.WarnContext(r.Context(), "Manual entry rejected",
				"contract", number, "missing_field", missing.Field)
			http.Error(w, "campo obrigatório ausente: "+missing.Field, http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id, err := s.store.AppendEntry(r.Context(), entry)
	if err != nil {
		slog.ErrorContext(r.Context(), "Manual entry save error", "error", err, "contract", number)
		http.Error(w, "erro ao salvar lançamento", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Manual ledger entry created",
		"id", id,
		"contract", number,
		"event_type", string(entry.EventType),
		"amount_cents", entry.Amount.Cents)

	http.Redirect(w, r, "/contratos/"+url.PathEscape(number), http.StatusSeeOther)
}

func entryFromForm(number string, form url.Values) (core.LedgerEntry, error) {
	var e core.LedgerEntry

	if strings.TrimSpace(number) == "" {
		return e, &core.MissingFieldError{Field: "numero_processo"}
	}

	eventType := strings.ToUpper(sanitizeInput(form.Get("tipo_evento")))
	if eventType == "" {
		return e, &core.MissingFieldError{Field: "tipo_evento"}
	}

	amountStr := sanitizeInput(form.Get("valor"))
	if amountStr == "" {
		return e, &core.MissingFieldError{Field: "valor"}
	}
	cents, ok := core.ParseBRLToCents(amountStr)
	if !ok {
		return e, errors.New("valor inválido: " + amountStr)
	}

	statusStr := sanitizeInput(form.Get("status"))
	if statusStr == "" {
		return e, &core.MissingFieldError{Field: "status"}
	}
	status := core.PaymentStatus(strings.ToUpper(statusStr))
	if status != core.StatusReceived && status != core.StatusReceivable {
		return e, errors.New("status inválido: " + statusStr)
	}

	return core.LedgerEntry{
		ContractNumber: number,
		EventType:      core.EventType(eventType),
		Description:    sanitizeInput(form.Get("descricao")),
		Amount:         core.Money{Cents: cents},
		PaymentStatus:  status,
		ExpectedDate:   sanitizeInput(form.Get("data_prevista")),
		ReceivedDate:   sanitizeInput(form.Get("data_recebimento")),
	}, nil
}
