package importer

import (
	"context"

	"prevgest/internal/core"
)

// Ports to the persistence layer. The SQLite repository implements
// both; tests plug in fakes.
type (
	ContractStore interface {
		// UpsertContract inserts the contract or refreshes the mutable
		// fields of an existing one. It reports whether a new row was
		// created.
		UpsertContract(ctx context.Context, c core.Contract) (created bool, err error)
	}

	LedgerStore interface {
		AppendEntry(ctx context.Context, e core.LedgerEntry) (id int64, err error)

		// HasEntry reports whether an entry with the same natural key
		// (contract number, event type, amount, expected date) already
		// exists. Used to keep re-imports idempotent.
		HasEntry(ctx context.Context, e core.LedgerEntry) (bool, error)
	}
)
