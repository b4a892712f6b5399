package model

import "time"

// LeaseRequest is a user's ask to borrow a quantity of an item until a date.
// Requests start pending and are decided exactly once: pending → approved
// or pending → rejected, never back.
type LeaseRequest struct {
	ID             int64      `json:"id"`
	ItemID         int64      `json:"item_id"`
	RequesterID    int64      `json:"requester_id"`
	Quantity       int        `json:"quantity"`
	RequestedUntil time.Time  `json:"requested_until"`
	Purpose        string     `json:"purpose,omitempty"`
	Status         string     `json:"status"`
	ApproverID     *int64     `json:"approver_id,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	ItemName      string `json:"item_name,omitempty"`
	RequesterName string `json:"requester_name,omitempty"`
}

// Lease request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// ActiveLease is the ledger entry created on approval: units currently
// checked out by a holder, due back by LeaseUntil. The row is deleted when
// the items are returned; a row whose LeaseUntil has elapsed is overdue.
type ActiveLease struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	HolderID   int64     `json:"holder_id"`
	Quantity   int       `json:"quantity"`
	LeaseUntil time.Time `json:"lease_until"`
	RequestID  *int64    `json:"request_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemName    string `json:"item_name,omitempty"`
	HolderName  string `json:"holder_name,omitempty"`
	HolderEmail string `json:"holder_email,omitempty"`
}

// Overdue reports whether the lease's due date has elapsed as of now.
func (l ActiveLease) Overdue(now time.Time) bool {
	return l.LeaseUntil.Before(now)
}
