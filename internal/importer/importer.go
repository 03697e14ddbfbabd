// Package importer reconciles spreadsheet exports against the contract
// and ledger stores. Column names drift across export periods, so every
// field is resolved through an ordered candidate list.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prevgest/internal/core"
	"prevgest/internal/log"
	"prevgest/internal/spreadsheet"
)

// Candidate column names seen across roster and financial exports.
var (
	numberColumns = []string{"Numero", "Nº Processo", "Numero Processo", "Processo", "Number", "Process"}
	clientColumns = []string{"Cliente", "Nome do Cliente", "Nome", "Client"}
	caseColumns   = []string{"Tipo de Processo", "Tipo Processo", "Tipo"}
	actionColumns = []string{"Tipo de Ação", "Ação", "Acao"}
	closedColumns = []string{"Data de Encerramento", "Data Encerramento", "Encerramento"}

	amountColumns   = []string{"Valor", "Valor Honorários", "Honorários", "Valor RPV", "Valor Bruto"}
	statusColumns   = []string{"Status", "Situação"}
	expectedColumns = []string{"Data Prevista", "Previsão", "Data Evento"}
	receivedColumns = []string{"Data Recebimento", "Data de Recebimento", "Recebido em"}
	invoiceColumns  = []string{"Nota Fiscal", "NF", "Fatura"}
	notesColumns    = []string{"Observações", "Observação", "Obs", "Notas"}
	descColumns     = []string{"Descrição", "Histórico"}
)

// Importer maps spreadsheet rows onto store records.
type Importer struct {
	contracts ContractStore
	ledger    LedgerStore
	logger    *log.Logger
}

func New(contracts ContractStore, ledger LedgerStore) *Importer {
	return &Importer{
		contracts: contracts,
		ledger:    ledger,
		logger:    log.New(log.Config{Component: log.ComponentImporter}),
	}
}

// ImportContracts upserts one contract per roster row. Rows without a
// resolvable process number are skipped; re-importing the same roster
// refreshes mutable fields and never duplicates a contract.
func (im *Importer) ImportContracts(ctx context.Context, sheet *spreadsheet.Sheet) (*Report, error) {
	report := &Report{}
	for i, row := range sheet.Rows {
		number := row.Resolve(numberColumns...)
		if number == "" {
			report.Skipped++
			continue
		}

		c := core.Contract{
			Number:      number,
			Client:      row.Resolve(clientColumns...),
			CaseType:    row.Resolve(caseColumns...),
			ActionType:  row.Resolve(actionColumns...),
			ClosingDate: NormalizeDate(row.Resolve(closedColumns...)),
		}

		created, err := im.contracts.UpsertContract(ctx, c)
		if err != nil {
			// Rows already written stay committed; there is no
			// cross-row rollback.
			return report, fmt.Errorf("upsert contract %s (row %d): %w", number, i+2, err)
		}
		if created {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	im.logger.InfoContext(ctx, "Contract roster imported",
		log.FieldRows, len(sheet.Rows),
		"inserted", report.Inserted,
		"updated", report.Updated,
		"skipped", report.Skipped)
	return report, nil
}

// ImportFinancialEvents appends one ledger entry per row, tagged with
// the given event type. Unlike the contract import, a row without a
// process number is not dropped: the amount still has to be accounted
// for, so it lands under the SEM_PROCESSO sentinel.
//
// Entries whose natural key (contract number, event type, amount,
// expected date) already exists are skipped, so re-importing the same
// export is idempotent. Unparseable amounts coerce to zero and are
// listed in the report instead of failing the run.
func (im *Importer) ImportFinancialEvents(ctx context.Context, sheet *spreadsheet.Sheet, eventType core.EventType) (*Report, error) {
	if eventType == "" {
		eventType = core.EventRPV
	}

	report := &Report{}
	for i, row := range sheet.Rows {
		if rowEmpty(row) {
			report.Skipped++
			continue
		}

		number := row.Resolve(numberColumns...)
		if number == "" {
			number = core.NoProcess
		}

		amountStr := row.Resolve(amountColumns...)
		cents, ok := core.ParseBRLToCents(amountStr)
		if !ok {
			cents = 0
			if amountStr != "" {
				report.Issues = append(report.Issues, RowIssue{
					Row:    i + 2,
					Column: "Valor",
					Value:  amountStr,
					Reason: "unparseable currency value, imported as zero",
				})
			}
		}

		e := core.LedgerEntry{
			ContractNumber: number,
			EventType:      eventType,
			Description:    buildDescription(row),
			Amount:         core.Money{Cents: cents},
			PaymentStatus:  core.ClassifyStatus(row.Resolve(statusColumns...)),
			ExpectedDate:   NormalizeDate(row.Resolve(expectedColumns...)),
			ReceivedDate:   NormalizeDate(row.Resolve(receivedColumns...)),
		}

		exists, err := im.ledger.HasEntry(ctx, e)
		if err != nil {
			return report, fmt.Errorf("check duplicate (row %d): %w", i+2, err)
		}
		if exists {
			report.Duplicates++
			continue
		}

		if _, err := im.ledger.AppendEntry(ctx, e); err != nil {
			return report, fmt.Errorf("append entry for %s (row %d): %w", number, i+2, err)
		}
		report.Inserted++
	}

	im.logger.InfoContext(ctx, "Financial events imported",
		log.FieldEventType, string(eventType),
		log.FieldRows, len(sheet.Rows),
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"issues", len(report.Issues))
	return report, nil
}

// buildDescription folds the secondary text columns into one
// human-readable line: "Honorários sucumbência | NF 1234 | parcela 2/3".
func buildDescription(row spreadsheet.Row) string {
	var parts []string
	if v := row.Resolve(descColumns...); v != "" {
		parts = append(parts, v)
	}
	if v := row.Resolve(invoiceColumns...); v != "" {
		parts = append(parts, "NF "+v)
	}
	if v := row.Resolve(notesColumns...); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " | ")
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006"}

// NormalizeDate converts the date formats seen in exports to ISO
// YYYY-MM-DD. Values it cannot parse pass through unchanged; the
// aggregates exclude them from date groupings.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func rowEmpty(row spreadsheet.Row) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
