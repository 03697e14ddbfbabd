package services

import (
	"context"
	"fmt"
	"log/slog"

	"prevgest/internal/amqp"
	"prevgest/internal/core"
	"prevgest/internal/importer"
	"prevgest/internal/spreadsheet"
	"prevgest/internal/storage"
)

// ImportService orchestrates spreadsheet imports across the SQLite
// store and the optional AMQP report channel.
type ImportService struct {
	storage    *storage.SQLiteRepository
	importer   *importer.Importer
	amqpClient *amqp.Client
}

func NewImportService(repo *storage.SQLiteRepository, amqpClient *amqp.Client) *ImportService {
	return &ImportService{
		storage:    repo,
		importer:   importer.New(repo, repo),
		amqpClient: amqpClient,
	}
}

// ImportContracts runs a roster import and publishes the report.
func (s *ImportService) ImportContracts(ctx context.Context, sheet *spreadsheet.Sheet, source string) (*importer.Report, error) {
	report, err := s.importer.ImportContracts(ctx, sheet)
	if err != nil {
		return report, fmt.Errorf("import contracts: %w", err)
	}

	s.publishReport(ctx, amqp.NewImportReportMessage(amqp.KindContracts, "", source, report))
	return report, nil
}

// ImportFinancialEvents runs a financial-sheet import and publishes
// the report.
func (s *ImportService) ImportFinancialEvents(ctx context.Context, sheet *spreadsheet.Sheet, eventType core.EventType, source string) (*importer.Report, error) {
	report, err := s.importer.ImportFinancialEvents(ctx, sheet, eventType)
	if err != nil {
		return report, fmt.Errorf("import financial events: %w", err)
	}

	s.publishReport(ctx, amqp.NewImportReportMessage(amqp.KindFinancial, string(eventType), source, report))
	return report, nil
}

func (s *ImportService) publishReport(ctx context.Context, msg *amqp.ImportReportMessage) {
	if s.amqpClient == nil {
		return
	}
	// Publishing is best-effort; the import already committed.
	if err := s.amqpClient.PublishImportReport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish import report",
			"kind", msg.Kind, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *ImportService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close import service: %v", errs)
	}

	return nil
}
