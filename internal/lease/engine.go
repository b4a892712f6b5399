// Package lease implements the lease lifecycle: a request is submitted,
// decided exactly once, and an approved lease is eventually returned. Every
// operation that moves units pairs the catalog quantity change with the
// matching ledger write in a single transaction, so stock can never be
// decremented without a lease row explaining it, or vice versa.
package lease

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/notify"
	"github.com/erazemk/izposoja/internal/store"
)

// Engine binds the catalog and the lease ledger together. All dependencies
// are injected; the engine holds no ambient state.
type Engine struct {
	db *sql.DB
	gw notify.Gateway
}

// NewEngine creates a lease engine over the given database and gateway.
func NewEngine(db *sql.DB, gw notify.Gateway) *Engine {
	return &Engine{db: db, gw: gw}
}

// Submit records a pending lease request. The catalog is not touched:
// availability can change before an approver acts, so stock is only
// verified (and reserved) at approval time.
func (e *Engine) Submit(ctx context.Context, requesterID, itemID int64, quantity int, until time.Time, purpose string) (*model.LeaseRequest, error) {
	req, err := store.CreateRequest(ctx, e.db, itemID, requesterID, quantity, until, purpose)
	if err != nil {
		return nil, err
	}

	e.gw.LeaseEvent(ctx, notify.LeaseEvent{
		Kind:      notify.EventSubmitted,
		ItemID:    itemID,
		ActorID:   requesterID,
		Quantity:  quantity,
		Until:     until,
		RequestID: &req.ID,
	})
	return req, nil
}

// Approve decides a pending request positively: the requested units are
// taken off the shelf and an active lease is created, atomically. If stock
// ran out since submission the approval fails with ErrInsufficientStock and
// the request stays pending, so the approver can retry later or reject.
func (e *Engine) Approve(ctx context.Context, requestID, approverID int64) (*model.ActiveLease, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := store.GetRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.DeletedAt != nil {
		return nil, fmt.Errorf("lease request %d: %w", requestID, store.ErrNotFound)
	}
	if req.Status != model.RequestPending {
		return nil, fmt.Errorf("lease request %d is %s: %w", requestID, req.Status, store.ErrInvalidTransition)
	}

	if err := store.CompareAndDecrement(ctx, tx, req.ItemID, req.Quantity); err != nil {
		// Insufficient stock is a recoverable outcome: the rollback keeps
		// the request pending and the catalog untouched.
		return nil, err
	}

	leaseID, err := store.CreateActiveLease(ctx, tx, req.ItemID, req.RequesterID, req.Quantity, req.RequestedUntil, &req.ID)
	if err != nil {
		return nil, err
	}

	if err := store.TransitionRequest(ctx, tx, requestID, model.RequestApproved, approverID); err != nil {
		return nil, err
	}

	// Read back inside the transaction: once committed, a concurrent
	// return could delete the row before a re-read sees it.
	created, err := store.GetActiveLease(ctx, tx, leaseID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing approval: %w: %v", store.ErrStoreUnavailable, err)
	}

	e.gw.LeaseEvent(ctx, notify.LeaseEvent{
		Kind:      notify.EventApproved,
		ItemID:    req.ItemID,
		ActorID:   approverID,
		Quantity:  req.Quantity,
		Until:     req.RequestedUntil,
		RequestID: &requestID,
		LeaseID:   &leaseID,
	})

	return created, nil
}

// Reject decides a pending request negatively. No catalog effect. A second
// call on the same request fails with ErrInvalidTransition.
func (e *Engine) Reject(ctx context.Context, requestID, approverID int64) error {
	req, err := store.GetRequest(ctx, e.db, requestID)
	if err != nil {
		return err
	}
	if req == nil || req.DeletedAt != nil {
		return fmt.Errorf("lease request %d: %w", requestID, store.ErrNotFound)
	}

	if err := store.TransitionRequest(ctx, e.db, requestID, model.RequestRejected, approverID); err != nil {
		return err
	}

	e.gw.LeaseEvent(ctx, notify.LeaseEvent{
		Kind:      notify.EventRejected,
		ItemID:    req.ItemID,
		ActorID:   approverID,
		Quantity:  req.Quantity,
		Until:     req.RequestedUntil,
		RequestID: &requestID,
	})
	return nil
}

// Cancel withdraws a pending request. Only the requester's own pending
// requests may be cancelled; decided requests are immutable history.
func (e *Engine) Cancel(ctx context.Context, requestID int64) error {
	return store.CancelRequest(ctx, e.db, requestID)
}

// Return ends an active lease: the units go back on the shelf and the
// ledger row is removed, atomically. An increment that would push the
// quantity past the initial quantity means earlier bookkeeping was broken;
// it is logged as corruption and the return is aborted untouched.
func (e *Engine) Return(ctx context.Context, activeLeaseID int64) error {
	tx, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	l, err := store.GetActiveLease(ctx, tx, activeLeaseID)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("active lease %d: %w", activeLeaseID, store.ErrNotFound)
	}

	if err := store.IncrementQuantity(ctx, tx, l.ItemID, l.Quantity); err != nil {
		if errors.Is(err, store.ErrDataCorruption) {
			slog.Error("return would overfill shelf, aborting",
				"lease", activeLeaseID, "item", l.ItemID, "quantity", l.Quantity, "error", err)
		}
		return err
	}

	if err := store.DeleteActiveLease(ctx, tx, activeLeaseID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing return: %w: %v", store.ErrStoreUnavailable, err)
	}

	e.gw.LeaseEvent(ctx, notify.LeaseEvent{
		Kind:     notify.EventReturned,
		ItemID:   l.ItemID,
		ActorID:  l.HolderID,
		Quantity: l.Quantity,
		Until:    l.LeaseUntil,
		LeaseID:  &activeLeaseID,
	})
	return nil
}

// DirectLease checks units out without the request workflow (administrative
// shortcut). Same atomicity and insufficient-stock contract as Approve, no
// request bookkeeping.
func (e *Engine) DirectLease(ctx context.Context, itemID, holderID int64, quantity int, until time.Time) (*model.ActiveLease, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("lease quantity %d: %w", quantity, store.ErrInvalidQuantity)
	}
	if !until.After(time.Now()) {
		return nil, fmt.Errorf("lease until %s: %w", until.Format(time.RFC3339), store.ErrInvalidDate)
	}

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := store.CompareAndDecrement(ctx, tx, itemID, quantity); err != nil {
		return nil, err
	}

	leaseID, err := store.CreateActiveLease(ctx, tx, itemID, holderID, quantity, until, nil)
	if err != nil {
		return nil, err
	}

	created, err := store.GetActiveLease(ctx, tx, leaseID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing direct lease: %w: %v", store.ErrStoreUnavailable, err)
	}

	e.gw.LeaseEvent(ctx, notify.LeaseEvent{
		Kind:     notify.EventDirectLease,
		ItemID:   itemID,
		ActorID:  holderID,
		Quantity: quantity,
		Until:    until,
		LeaseID:  &leaseID,
	})

	return created, nil
}

func (e *Engine) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w: %v", store.ErrStoreUnavailable, err)
	}
	return tx, nil
}
