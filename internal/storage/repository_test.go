package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"prevgest/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "prevgest.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertContract(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.UpsertContract(ctx, core.Contract{Number: "100", Client: "Ana"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatal("first upsert should create")
	}

	created, err = repo.UpsertContract(ctx, core.Contract{Number: "100", Client: "Ana Maria", ClosingDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("second upsert should update, not create")
	}

	got, err := repo.GetContract(ctx, "100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Client != "Ana Maria" || got.ClosingDate != "2024-01-31" {
		t.Fatalf("mutable fields not refreshed: %+v", got)
	}

	all, err := repo.ListContracts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert duplicated contract rows: %d", len(all))
	}
}

func TestGetContractNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetContract(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertContractRejectsEmptyNumber(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.UpsertContract(context.Background(), core.Contract{Client: "x"}); !errors.Is(err, core.ErrEmptyNumber) {
		t.Fatalf("expected ErrEmptyNumber, got %v", err)
	}
}

func seedEntries(t *testing.T, repo *SQLiteRepository, entries ...core.LedgerEntry) {
	t.Helper()
	for _, e := range entries {
		if _, err := repo.AppendEntry(context.Background(), e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}

func TestTotalsByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedEntries(t, repo,
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 10000}, PaymentStatus: core.StatusReceived},
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventFees, Amount: core.Money{Cents: 5000}, PaymentStatus: core.StatusReceivable},
	)

	received, err := repo.TotalByStatus(ctx, core.StatusReceived)
	if err != nil {
		t.Fatalf("total received: %v", err)
	}
	if received.Cents != 10000 {
		t.Fatalf("total received: expected 10000, got %d", received.Cents)
	}

	receivable, err := repo.TotalByStatus(ctx, core.StatusReceivable)
	if err != nil {
		t.Fatalf("total receivable: %v", err)
	}
	if receivable.Cents != 5000 {
		t.Fatalf("total receivable: expected 5000, got %d", receivable.Cents)
	}
}

func TestTotalsDefaultToZero(t *testing.T) {
	repo := newTestRepo(t)
	total, err := repo.TotalByStatus(context.Background(), core.StatusReceived)
	if err != nil {
		t.Fatalf("total on empty store: %v", err)
	}
	if total.Cents != 0 {
		t.Fatalf("expected 0 on empty store, got %d", total.Cents)
	}
}

func TestBilledByYearExcludesUnparsableDates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedEntries(t, repo,
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 1000}, PaymentStatus: core.StatusReceived, ExpectedDate: "2023-05-10"},
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 2000}, PaymentStatus: core.StatusReceived, ExpectedDate: "2024-01-02"},
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 4000}, PaymentStatus: core.StatusReceived, ExpectedDate: "sem data"},
	)

	years, err := repo.BilledByYear(ctx)
	if err != nil {
		t.Fatalf("billed by year: %v", err)
	}
	if len(years) != 2 {
		t.Fatalf("expected 2 year buckets, got %+v", years)
	}
	if years[0].Year != "2023" || years[0].Amount.Cents != 1000 {
		t.Fatalf("unexpected first bucket: %+v", years[0])
	}
	if years[1].Year != "2024" || years[1].Amount.Cents != 2000 {
		t.Fatalf("unexpected second bucket: %+v", years[1])
	}

	// The undated entry still counts toward the type total.
	rpv, err := repo.TotalByEventType(ctx, core.EventRPV)
	if err != nil {
		t.Fatalf("total rpv: %v", err)
	}
	if rpv.Cents != 7000 {
		t.Fatalf("type total should include undated entry: got %d", rpv.Cents)
	}
}

func TestReceivedByMonthPrefersReceivedDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedEntries(t, repo,
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 1000}, PaymentStatus: core.StatusReceived, ExpectedDate: "2023-05-10", ReceivedDate: "2023-06-01"},
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 2000}, PaymentStatus: core.StatusReceivable, ExpectedDate: "2023-06-15"},
	)

	months, err := repo.ReceivedByMonth(ctx)
	if err != nil {
		t.Fatalf("received by month: %v", err)
	}
	if len(months) != 1 {
		t.Fatalf("receivable entries must not appear: %+v", months)
	}
	if months[0].Month != "2023-06" || months[0].Amount.Cents != 1000 {
		t.Fatalf("unexpected bucket: %+v", months[0])
	}
}

func TestHasEntryNaturalKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := core.LedgerEntry{
		ContractNumber: "100",
		EventType:      core.EventRPV,
		Amount:         core.Money{Cents: 1000},
		PaymentStatus:  core.StatusReceivable,
		ExpectedDate:   "2024-01-10",
	}
	seedEntries(t, repo, e)

	exists, err := repo.HasEntry(ctx, e)
	if err != nil {
		t.Fatalf("has entry: %v", err)
	}
	if !exists {
		t.Fatal("expected natural-key match")
	}

	other := e
	other.Amount.Cents = 1001
	exists, err = repo.HasEntry(ctx, other)
	if err != nil {
		t.Fatalf("has entry: %v", err)
	}
	if exists {
		t.Fatal("different amount must not match")
	}
}

func TestListEntriesAndSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.UpsertContract(ctx, core.Contract{Number: "100", Client: "Ana"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.UpsertContract(ctx, core.Contract{Number: "200", Client: "Bia", ClosingDate: "2023-12-01"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	seedEntries(t, repo,
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventRPV, Amount: core.Money{Cents: 10000}, PaymentStatus: core.StatusReceived, ReceivedDate: "2024-02-01"},
		core.LedgerEntry{ContractNumber: "100", EventType: core.EventPrecatorio, Amount: core.Money{Cents: 50000}, PaymentStatus: core.StatusReceivable, ExpectedDate: "2024-06-01"},
	)

	entries, err := repo.ListEntries(ctx, "100")
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].EventType != core.EventRPV || entries[0].Amount.Cents != 10000 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}

	s, err := repo.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.ActiveContracts != 1 || s.ClosedContracts != 1 {
		t.Fatalf("contract counts: %+v", s)
	}
	if s.TotalReceived.Cents != 10000 || s.TotalReceivable.Cents != 50000 {
		t.Fatalf("status totals: %+v", s)
	}
	if s.TotalRPV.Cents != 10000 || s.TotalPrecatorio.Cents != 50000 {
		t.Fatalf("type totals: %+v", s)
	}
	if len(s.BilledByYear) != 1 || s.BilledByYear[0].Year != "2024" || s.BilledByYear[0].Amount.Cents != 60000 {
		t.Fatalf("billed by year: %+v", s.BilledByYear)
	}
	if len(s.ReceivedByMonth) != 1 || s.ReceivedByMonth[0].Month != "2024-02" {
		t.Fatalf("received by month: %+v", s.ReceivedByMonth)
	}
}
