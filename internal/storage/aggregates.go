package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"prevgest/internal/core"
)

// Aggregation queries behind the dashboard. All of these are stateless
// grouped sums recomputed from current table contents on every call.
//
// Time-grouped aggregates key on the event date (received date when
// present, expected date otherwise) and only count entries whose date
// starts with a valid ISO YYYY-MM-DD prefix; status and type totals
// include every entry regardless of date.
const eventDateExpr = `CASE WHEN received_date <> '' THEN received_date ELSE expected_date END`

const isoDateGlob = `[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]*`

func (r *SQLiteRepository) TotalByStatus(ctx context.Context, status core.PaymentStatus) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM ledger_entries WHERE payment_status = ?`, string(status)).
		Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total by status %s: %w", status, err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) TotalByEventType(ctx context.Context, t core.EventType) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM ledger_entries WHERE event_type = ?`, string(t)).
		Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total by event type %s: %w", t, err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) BilledByYear(ctx context.Context) ([]core.YearAmount, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT substr(%[1]s, 1, 4) AS y, COALESCE(SUM(amount_cents), 0)
		FROM ledger_entries
		WHERE %[1]s GLOB '%[2]s'
		GROUP BY y ORDER BY y ASC`, eventDateExpr, isoDateGlob))
	if err != nil {
		return nil, fmt.Errorf("billed by year: %w", err)
	}
	defer rows.Close()

	var out []core.YearAmount
	for rows.Next() {
		var ya core.YearAmount
		if err := rows.Scan(&ya.Year, &ya.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan year amount: %w", err)
		}
		out = append(out, ya)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ReceivedByMonth(ctx context.Context) ([]core.MonthAmount, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT substr(%[1]s, 1, 7) AS ym, COALESCE(SUM(amount_cents), 0)
		FROM ledger_entries
		WHERE payment_status = ? AND %[1]s GLOB '%[2]s'
		GROUP BY ym ORDER BY ym ASC`, eventDateExpr, isoDateGlob),
		string(core.StatusReceived))
	if err != nil {
		return nil, fmt.Errorf("received by month: %w", err)
	}
	defer rows.Close()

	var out []core.MonthAmount
	for rows.Next() {
		var ma core.MonthAmount
		if err := rows.Scan(&ma.Month, &ma.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan month amount: %w", err)
		}
		out = append(out, ma)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ContractCounts(ctx context.Context) (active, closed int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN closing_date = '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN closing_date <> '' THEN 1 ELSE 0 END), 0)
		FROM contracts`).Scan(&active, &closed)
	if err != nil {
		return 0, 0, fmt.Errorf("contract counts: %w", err)
	}
	return active, closed, nil
}

// Summary assembles the dashboard snapshot. The grouped sums are
// independent reads, so they run concurrently on the shared pool.
func (r *SQLiteRepository) Summary(ctx context.Context) (core.DashboardSummary, error) {
	var s core.DashboardSummary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.ActiveContracts, s.ClosedContracts, err = r.ContractCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.TotalReceived, err = r.TotalByStatus(ctx, core.StatusReceived)
		return err
	})
	g.Go(func() (err error) {
		s.TotalReceivable, err = r.TotalByStatus(ctx, core.StatusReceivable)
		return err
	})
	g.Go(func() (err error) {
		s.TotalRPV, err = r.TotalByEventType(ctx, core.EventRPV)
		return err
	})
	g.Go(func() (err error) {
		s.TotalPrecatorio, err = r.TotalByEventType(ctx, core.EventPrecatorio)
		return err
	})
	g.Go(func() (err error) {
		s.TotalFees, err = r.TotalByEventType(ctx, core.EventFees)
		return err
	})
	g.Go(func() (err error) {
		s.BilledByYear, err = r.BilledByYear(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.ReceivedByMonth, err = r.ReceivedByMonth(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return core.DashboardSummary{}, err
	}
	return s, nil
}
