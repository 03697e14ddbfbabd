package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"prevgest/internal/amqp"
	"prevgest/internal/astrea"
	"prevgest/internal/cli"
	"prevgest/internal/core"
	"prevgest/internal/importer"
	"prevgest/internal/services"
	"prevgest/internal/spreadsheet"
)

func main() {
	var (
		filePath   = flag.String("file", "", "spreadsheet to import (.csv, .xlsx)")
		kind       = flag.String("tipo", "contratos", "import kind: contratos or financeiro")
		eventType  = flag.String("evento", "RPV", "event type for financial imports: RPV, PRECATORIO or HONORARIOS")
		fromAstrea = flag.Bool("astrea", false, "import the contract roster from the configured ASTREA spreadsheet")
	)
	flag.Parse()

	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if *filePath == "" && !*fromAstrea {
		fmt.Fprintln(os.Stderr, "usage: prevgest-import -file planilha.csv [-tipo contratos|financeiro] [-evento RPV]")
		fmt.Fprintln(os.Stderr, "       prevgest-import -astrea")
		os.Exit(2)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
	}

	importService := services.NewImportService(repo, amqpClient)
	defer func() {
		if err := importService.Close(); err != nil {
			logger.Error("Close error", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sheet, err := loadSheet(ctx, cfg.AstreaSpreadsheetID, cfg.AstreaSheetName, *filePath, *fromAstrea)
	if err != nil {
		logger.Error("Failed to load spreadsheet", "error", err)
		os.Exit(1)
	}

	report, err := runImport(ctx, importService, sheet, *kind, *eventType, *fromAstrea)
	if err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(report.String())
	for _, issue := range report.Issues {
		fmt.Printf("  linha %d, coluna %s: %s (%q)\n", issue.Row, issue.Column, issue.Reason, issue.Value)
	}
}

func loadSheet(ctx context.Context, spreadsheetID, sheetName, filePath string, fromAstrea bool) (*spreadsheet.Sheet, error) {
	if fromAstrea {
		client, err := astrea.New(ctx, spreadsheetID, sheetName)
		if err != nil {
			return nil, fmt.Errorf("astrea client: %w", err)
		}
		return client.FetchRoster(ctx)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()
	return spreadsheet.Parse(f, filePath)
}

func runImport(ctx context.Context, svc *services.ImportService, sheet *spreadsheet.Sheet, kind, eventType string, fromAstrea bool) (*importer.Report, error) {
	source := "cli"
	if fromAstrea {
		source = "astrea"
	}

	switch strings.ToLower(kind) {
	case "contratos":
		return svc.ImportContracts(ctx, sheet, source)
	case "financeiro":
		return svc.ImportFinancialEvents(ctx, sheet, core.EventType(strings.ToUpper(eventType)), source)
	default:
		return nil, fmt.Errorf("unknown import kind %q (expected contratos or financeiro)", kind)
	}
}
