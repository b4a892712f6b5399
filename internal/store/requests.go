package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// CreateRequest records a pending lease request. Availability is not
// checked here: it may change before an approver looks at the request, so
// stock is only verified at approval time.
func CreateRequest(ctx context.Context, db DBTX, itemID, requesterID int64, quantity int, until time.Time, purpose string) (*model.LeaseRequest, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("requested quantity %d: %w", quantity, ErrInvalidQuantity)
	}
	if !until.After(time.Now()) {
		return nil, fmt.Errorf("requested until %s: %w", until.Format(time.RFC3339), ErrInvalidDate)
	}

	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.DeletedAt != nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO lease_requests (item_id, requester_id, quantity, requested_until, purpose)
		 VALUES (?, ?, ?, ?, ?)`,
		itemID, requesterID, quantity, until, purpose,
	)
	if err != nil {
		return nil, fmt.Errorf("creating lease request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// GetRequest returns a lease request by ID, or nil if it does not exist.
func GetRequest(ctx context.Context, db DBTX, id int64) (*model.LeaseRequest, error) {
	req := &model.LeaseRequest{}
	var purpose sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.item_id, r.requester_id, r.quantity, r.requested_until,
		        r.purpose, r.status, r.approver_id, r.decided_at, r.created_at, r.deleted_at,
		        i.name AS item_name, u.username AS requester_name
		 FROM lease_requests r
		 JOIN items i ON i.id = r.item_id
		 JOIN users u ON u.id = r.requester_id
		 WHERE r.id = ?`, id,
	).Scan(&req.ID, &req.ItemID, &req.RequesterID, &req.Quantity, &req.RequestedUntil,
		&purpose, &req.Status, &req.ApproverID, &req.DecidedAt, &req.CreatedAt, &req.DeletedAt,
		&req.ItemName, &req.RequesterName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lease request: %w", err)
	}
	req.Purpose = purpose.String
	return req, nil
}

// ListRequests returns non-deleted lease requests, optionally filtered by
// status and/or requester.
func ListRequests(ctx context.Context, db DBTX, status string, requesterID int64) ([]model.LeaseRequest, error) {
	query := `SELECT r.id, r.item_id, r.requester_id, r.quantity, r.requested_until,
	                 r.purpose, r.status, r.approver_id, r.decided_at, r.created_at, r.deleted_at,
	                 i.name AS item_name, u.username AS requester_name
	          FROM lease_requests r
	          JOIN items i ON i.id = r.item_id
	          JOIN users u ON u.id = r.requester_id
	          WHERE r.deleted_at IS NULL`
	var args []any

	if status != "" {
		query += ` AND r.status = ?`
		args = append(args, status)
	}
	if requesterID > 0 {
		query += ` AND r.requester_id = ?`
		args = append(args, requesterID)
	}

	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lease requests: %w", err)
	}
	defer rows.Close()

	var requests []model.LeaseRequest
	for rows.Next() {
		var req model.LeaseRequest
		var purpose sql.NullString
		if err := rows.Scan(&req.ID, &req.ItemID, &req.RequesterID, &req.Quantity, &req.RequestedUntil,
			&purpose, &req.Status, &req.ApproverID, &req.DecidedAt, &req.CreatedAt, &req.DeletedAt,
			&req.ItemName, &req.RequesterName); err != nil {
			return nil, fmt.Errorf("scanning lease request: %w", err)
		}
		req.Purpose = purpose.String
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// TransitionRequest moves a pending request to approved or rejected,
// stamping the approver and decision time. Transitions are one-way: a
// request that is no longer pending cannot be decided again.
func TransitionRequest(ctx context.Context, db DBTX, id int64, status string, approverID int64) error {
	if status != model.RequestApproved && status != model.RequestRejected {
		return fmt.Errorf("target status %q: %w", status, ErrInvalidTransition)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE lease_requests
		 SET status = ?, approver_id = ?, decided_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending' AND deleted_at IS NULL`,
		status, approverID, id,
	)
	if err != nil {
		return fmt.Errorf("transitioning lease request: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transitioning lease request: %w", err)
	}
	if n > 0 {
		return nil
	}

	req, err := GetRequest(ctx, db, id)
	if err != nil {
		return err
	}
	if req == nil || req.DeletedAt != nil {
		return fmt.Errorf("lease request %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("lease request %d is %s: %w", id, req.Status, ErrInvalidTransition)
}

// CancelRequest soft-deletes a request. Only legal while pending; decided
// requests are immutable history.
func CancelRequest(ctx context.Context, db DBTX, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE lease_requests SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending' AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("cancelling lease request: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancelling lease request: %w", err)
	}
	if n > 0 {
		return nil
	}

	req, err := GetRequest(ctx, db, id)
	if err != nil {
		return err
	}
	if req == nil || req.DeletedAt != nil {
		return fmt.Errorf("lease request %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("lease request %d is %s: %w", id, req.Status, ErrInvalidTransition)
}
