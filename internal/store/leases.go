package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

const leaseColumns = `l.id, l.item_id, l.holder_id, l.quantity, l.lease_until,
	        l.request_id, l.created_at,
	        i.name AS item_name, u.username AS holder_name, u.email AS holder_email`

const leaseJoins = ` FROM active_leases l
	 JOIN items i ON i.id = l.item_id
	 JOIN users u ON u.id = l.holder_id`

// CreateActiveLease records units as checked out. Called by the lease
// engine inside the same transaction as the quantity decrement; it never
// checks availability itself.
func CreateActiveLease(ctx context.Context, db DBTX, itemID, holderID int64, quantity int, until time.Time, requestID *int64) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("lease quantity %d: %w", quantity, ErrInvalidQuantity)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO active_leases (item_id, holder_id, quantity, lease_until, request_id)
		 VALUES (?, ?, ?, ?, ?)`,
		itemID, holderID, quantity, until, requestID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating active lease: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting lease id: %w", err)
	}
	return id, nil
}

// GetActiveLease returns an active lease by ID, or nil if it does not exist.
func GetActiveLease(ctx context.Context, db DBTX, id int64) (*model.ActiveLease, error) {
	l := &model.ActiveLease{}
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+leaseColumns+leaseJoins+` WHERE l.id = ?`, id,
	).Scan(&l.ID, &l.ItemID, &l.HolderID, &l.Quantity, &l.LeaseUntil,
		&l.RequestID, &l.CreatedAt, &l.ItemName, &l.HolderName, &email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active lease: %w", err)
	}
	l.HolderEmail = email.String
	return l, nil
}

// DeleteActiveLease removes a lease row, ending the lease. Called by the
// lease engine in the same transaction as the quantity increment.
func DeleteActiveLease(ctx context.Context, db DBTX, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM active_leases WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting active lease: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting active lease: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("active lease %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListLeases returns active leases, optionally filtered by item or holder.
func ListLeases(ctx context.Context, db DBTX, itemID, holderID int64) ([]model.ActiveLease, error) {
	query := `SELECT ` + leaseColumns + leaseJoins + ` WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND l.item_id = ?`
		args = append(args, itemID)
	}
	if holderID > 0 {
		query += ` AND l.holder_id = ?`
		args = append(args, holderID)
	}

	query += ` ORDER BY l.lease_until, l.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing active leases: %w", err)
	}
	defer rows.Close()

	return scanLeases(rows)
}

// ActiveLeasesFor returns an item's leases split into current (due on or
// after asOf) and overdue (due before asOf). Overdue leases still hold
// physical stock but no longer count as explained by the accounting
// invariant, which is exactly what the auditor flags.
func ActiveLeasesFor(ctx context.Context, db DBTX, itemID int64, asOf time.Time) (current, overdue []model.ActiveLease, err error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+leaseColumns+leaseJoins+` WHERE l.item_id = ? ORDER BY l.lease_until, l.id`,
		itemID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("listing item leases: %w", err)
	}
	defer rows.Close()

	leases, err := scanLeases(rows)
	if err != nil {
		return nil, nil, err
	}

	for _, l := range leases {
		if l.Overdue(asOf) {
			overdue = append(overdue, l)
		} else {
			current = append(current, l)
		}
	}
	return current, overdue, nil
}

// LeasesDueWithin returns leases whose due date falls inside
// [asOf, asOf+window), for the due-soon reminder job. Already-overdue
// leases are excluded; those belong to the reconciliation report.
func LeasesDueWithin(ctx context.Context, db DBTX, asOf time.Time, window time.Duration) ([]model.ActiveLease, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+leaseColumns+leaseJoins+`
		 WHERE l.lease_until >= ? AND l.lease_until < ?
		 ORDER BY l.lease_until, l.id`,
		asOf, asOf.Add(window),
	)
	if err != nil {
		return nil, fmt.Errorf("listing due leases: %w", err)
	}
	defer rows.Close()

	return scanLeases(rows)
}

func scanLeases(rows *sql.Rows) ([]model.ActiveLease, error) {
	var leases []model.ActiveLease
	for rows.Next() {
		var l model.ActiveLease
		var email sql.NullString
		if err := rows.Scan(&l.ID, &l.ItemID, &l.HolderID, &l.Quantity, &l.LeaseUntil,
			&l.RequestID, &l.CreatedAt, &l.ItemName, &l.HolderName, &email); err != nil {
			return nil, fmt.Errorf("scanning active lease: %w", err)
		}
		l.HolderEmail = email.String
		leases = append(leases, l)
	}
	return leases, rows.Err()
}
