// Package notify defines the contract between the leasing core and the
// reporting/notification side of the system. The core hands structured
// findings and lifecycle events to a Gateway; rendering and delivery
// (mail, PDF) are entirely the gateway implementation's concern.
package notify

import (
	"context"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// Event kinds emitted by the lease engine.
const (
	EventSubmitted   = "request_submitted"
	EventApproved    = "request_approved"
	EventRejected    = "request_rejected"
	EventReturned    = "lease_returned"
	EventDirectLease = "direct_lease"
)

// LeaseEvent describes one lifecycle transition. Events are emitted after
// the transition's transaction has committed, so a delivered event always
// reflects durable state.
type LeaseEvent struct {
	Kind      string
	ItemID    int64
	ActorID   int64
	Quantity  int
	Until     time.Time
	RequestID *int64
	LeaseID   *int64
}

// Gateway consumes core output. Implementations must not block for long;
// the engine calls them synchronously after commit.
type Gateway interface {
	LeaseEvent(ctx context.Context, ev LeaseEvent)
	DiscrepancyReport(ctx context.Context, report model.AuditReport)
	DueReminders(ctx context.Context, reminders []model.DueReminder)
}
