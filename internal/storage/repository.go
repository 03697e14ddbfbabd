package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"prevgest/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a contract number has no row.
var ErrNotFound = errors.New("contract not found")

// SQLiteRepository owns the contracts and ledger_entries tables. It is
// the only component that touches the database. Callers receive an
// explicit handle; there is no package-level instance and no caching,
// every read re-queries the store.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertContract implements importer.ContractStore. Re-imports refresh
// the mutable fields; concurrent writers are last-write-wins at the
// row level.
func (r *SQLiteRepository) UpsertContract(ctx context.Context, c core.Contract) (bool, error) {
	if err := c.Validate(); err != nil {
		// A roster row may legitimately lack the client name; only an
		// empty number is fatal here.
		if !errors.Is(err, core.ErrEmptyClient) {
			return false, err
		}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE contracts
		SET client = ?, case_type = ?, action_type = ?, closing_date = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE number = ?`,
		c.Client, c.CaseType, c.ActionType, c.ClosingDate, c.Number)
	if err != nil {
		return false, fmt.Errorf("update contract: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contracts (number, client, case_type, action_type, closing_date)
		VALUES (?, ?, ?, ?, ?)`,
		c.Number, c.Client, c.CaseType, c.ActionType, c.ClosingDate)
	if err != nil {
		return false, fmt.Errorf("insert contract: %w", err)
	}

	slog.InfoContext(ctx, "Contract created",
		"number", c.Number,
		"client", c.Client)
	return true, nil
}

func (r *SQLiteRepository) GetContract(ctx context.Context, number string) (core.Contract, error) {
	var c core.Contract
	err := r.db.QueryRowContext(ctx, `
		SELECT number, client, case_type, action_type, closing_date
		FROM contracts WHERE number = ?`, number).
		Scan(&c.Number, &c.Client, &c.CaseType, &c.ActionType, &c.ClosingDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contract{}, ErrNotFound
	}
	if err != nil {
		return core.Contract{}, fmt.Errorf("get contract %s: %w", number, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListContracts(ctx context.Context) ([]core.Contract, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT number, client, case_type, action_type, closing_date
		FROM contracts ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var out []core.Contract
	for rows.Next() {
		var c core.Contract
		if err := rows.Scan(&c.Number, &c.Client, &c.CaseType, &c.ActionType, &c.ClosingDate); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AppendEntry implements importer.LedgerStore. Entries are append-only.
func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries
			(contract_number, event_type, description, amount_cents,
			 payment_status, expected_date, received_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ContractNumber, string(e.EventType), e.Description, e.Amount.Cents,
		string(e.PaymentStatus), e.ExpectedDate, e.ReceivedDate)
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ledger entry id: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry saved",
		"id", id,
		"contract", e.ContractNumber,
		"event_type", string(e.EventType),
		"amount_cents", e.Amount.Cents,
		"status", string(e.PaymentStatus))
	return id, nil
}

// HasEntry implements importer.LedgerStore.
func (r *SQLiteRepository) HasEntry(ctx context.Context, e core.LedgerEntry) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE contract_number = ? AND event_type = ?
			  AND amount_cents = ? AND expected_date = ?)`,
		e.ContractNumber, string(e.EventType), e.Amount.Cents, e.ExpectedDate).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ledger entry: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, contractNumber string) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, contract_number, event_type, description, amount_cents,
		       payment_status, expected_date, received_date
		FROM ledger_entries
		WHERE contract_number = ?
		ORDER BY id`, contractNumber)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", contractNumber, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]core.LedgerEntry, error) {
	var out []core.LedgerEntry
	for rows.Next() {
		var e core.LedgerEntry
		var eventType, status string
		if err := rows.Scan(&e.ID, &e.ContractNumber, &eventType, &e.Description,
			&e.Amount.Cents, &status, &e.ExpectedDate, &e.ReceivedDate); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.EventType = core.EventType(eventType)
		e.PaymentStatus = core.PaymentStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
