package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"prevgest/internal/core"
	"prevgest/internal/importer"
	"prevgest/internal/spreadsheet"
)

type importReportView struct {
	Title      string
	Inserted   int
	Updated    int
	Skipped    int
	Duplicates int
	Issues     []importer.RowIssue
}

// handleImportContracts ingests an uploaded contract roster (CSV or
// XLSX) and renders the resulting import report.
func (s *Server) handleImportContracts(w http.ResponseWriter, r *http.Request) {
	sheet, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	report, err := s.imports.ImportContracts(r.Context(), sheet, "upload")
	if err != nil {
		slog.ErrorContext(r.Context(), "Contract import failed", "error", err)
		http.Error(w, "erro ao importar contratos: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderReport(w, r, "Importação de contratos", report)
}

// handleImportFinancial ingests an uploaded financial spreadsheet. The
// tipo_evento form field selects the event type; RPV is the default.
func (s *Server) handleImportFinancial(w http.ResponseWriter, r *http.Request) {
	sheet, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	eventType := core.EventType(strings.ToUpper(sanitizeInput(r.FormValue("tipo_evento"))))

	report, err := s.imports.ImportFinancialEvents(r.Context(), sheet, eventType, "upload")
	if err != nil {
		slog.ErrorContext(r.Context(), "Financial import failed", "error", err)
		http.Error(w, "erro ao importar planilha financeira: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderReport(w, r, "Importação financeira", report)
}

// handleImportAstrea pulls the contract roster straight from the
// configured ASTREA spreadsheet.
func (s *Server) handleImportAstrea(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.roster.FetchRoster(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "ASTREA fetch failed", "error", err)
		http.Error(w, "erro ao buscar planilha ASTREA: "+err.Error(), http.StatusBadGateway)
		return
	}

	report, err := s.imports.ImportContracts(r.Context(), sheet, "astrea")
	if err != nil {
		slog.ErrorContext(r.Context(), "ASTREA import failed", "error", err)
		http.Error(w, "erro ao importar contratos: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderReport(w, r, "Importação ASTREA", report)
}

// parseUpload reads the "arquivo" multipart file into a Sheet,
// enforcing the configured upload size limit. On failure it writes the
// error response and returns ok=false.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*spreadsheet.Sheet, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "arquivo excede o tamanho máximo permitido", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		slog.WarnContext(r.Context(), "Upload parse error", "error", err)
		http.Error(w, "envio inválido: esperado multipart/form-data", http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		http.Error(w, "arquivo ausente no campo 'arquivo'", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	sheet, err := spreadsheet.Parse(file, header.Filename)
	if err != nil {
		slog.WarnContext(r.Context(), "Spreadsheet parse error", "error", err, "filename", header.Filename)
		http.Error(w, "não foi possível ler a planilha: "+err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}

	return sheet, true
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, title string, report *importer.Report) {
	s.render(w, r, "import_report.html", importReportView{
		Title:      title,
		Inserted:   report.Inserted,
		Updated:    report.Updated,
		Skipped:    report.Skipped,
		Duplicates: report.Duplicates,
		Issues:     report.Issues,
	})
}
