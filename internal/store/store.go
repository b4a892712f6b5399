package store

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store functions take it so the lease engine can run a sequence of store
// calls inside a single transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Error kinds returned by store and engine operations. Callers match them
// with errors.Is; the API layer maps each to a distinct response so a user
// can tell "stock ran out" apart from "request already decided".
var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrItemNotFound is returned when the referenced catalog item does
	// not exist or has been deleted.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidDate is returned when a lease end date is not strictly in
	// the future at submission time.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTransition is returned when a lease request is not in a
	// state that permits the attempted transition.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInsufficientStock is returned when an approval or direct lease
	// asks for more units than are currently on the shelf.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrItemLeased is returned when deleting an item that active leases
	// still reference.
	ErrItemLeased = errors.New("item has active leases")

	// ErrDataCorruption indicates the stock accounting invariant was
	// violated by earlier bookkeeping (e.g. an out-of-band edit). It is
	// never repaired automatically and must surface loudly.
	ErrDataCorruption = errors.New("data corruption")

	// ErrStoreUnavailable indicates a transient storage failure; the
	// operation was not applied and may be retried.
	ErrStoreUnavailable = errors.New("store unavailable")
)
