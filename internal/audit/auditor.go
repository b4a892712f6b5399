// Package audit implements the reconciliation pass over the catalog and
// lease ledger. It is read-only: safe to run repeatedly and concurrently
// with live lease operations. A momentary race against an in-flight
// approval or return just reflects the pre- or post-state and is
// re-evaluated on the next run.
package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/notify"
	"github.com/erazemk/izposoja/internal/store"
)

// DefaultLookahead is how far ahead the due-soon reminder scan looks.
const DefaultLookahead = 72 * time.Hour

// Auditor recomputes the stock accounting per item and reports drift.
type Auditor struct {
	db        *sql.DB
	gw        notify.Gateway
	lookahead time.Duration
}

// New creates an Auditor. A zero lookahead falls back to DefaultLookahead.
func New(db *sql.DB, gw notify.Gateway, lookahead time.Duration) *Auditor {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Auditor{db: db, gw: gw, lookahead: lookahead}
}

// AuditOnce scans every item, compares units missing from the shelf against
// units explained by non-expired leases, and hands the resulting report to
// the gateway.
//
// An item is flagged when missing != explained, or when any overdue lease
// exists even if the numbers happen to match. The second clause covers the
// item whose only leases are overdue: excluded from "explained", they can
// leave missing == explained == 0 while units are physically outstanding.
func (a *Auditor) AuditOnce(ctx context.Context) (model.AuditReport, error) {
	now := time.Now()
	report := model.AuditReport{
		RunID: uuid.NewString(),
		RanAt: now,
	}

	items, err := store.ListItems(ctx, a.db, "")
	if err != nil {
		return report, err
	}
	report.ItemsScanned = len(items)

	for _, item := range items {
		current, overdue, err := store.ActiveLeasesFor(ctx, a.db, item.ID, now)
		if err != nil {
			return report, err
		}

		explained := 0
		for _, l := range current {
			explained += l.Quantity
		}

		missing := item.Missing()
		if missing == explained && len(overdue) == 0 {
			continue
		}

		d := model.Discrepancy{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Missing:   missing,
			Explained: explained,
		}
		for _, l := range overdue {
			d.Overdue = append(d.Overdue, model.OverdueHolder{
				LeaseID:     l.ID,
				HolderID:    l.HolderID,
				HolderName:  l.HolderName,
				HolderEmail: l.HolderEmail,
				Quantity:    l.Quantity,
				DueDate:     l.LeaseUntil,
			})
		}
		report.Discrepancies = append(report.Discrepancies, d)
	}

	report.Clean = len(report.Discrepancies) == 0
	a.gw.DiscrepancyReport(ctx, report)
	return report, nil
}

// RemindDue emits one reminder per lease due within the lookahead window.
// Already-overdue leases are not reminded; they show up in the
// reconciliation report instead.
func (a *Auditor) RemindDue(ctx context.Context) ([]model.DueReminder, error) {
	leases, err := store.LeasesDueWithin(ctx, a.db, time.Now(), a.lookahead)
	if err != nil {
		return nil, err
	}

	var reminders []model.DueReminder
	for _, l := range leases {
		reminders = append(reminders, model.DueReminder{
			LeaseID:     l.ID,
			HolderID:    l.HolderID,
			HolderName:  l.HolderName,
			HolderEmail: l.HolderEmail,
			ItemID:      l.ItemID,
			ItemName:    l.ItemName,
			Quantity:    l.Quantity,
			DueDate:     l.LeaseUntil,
		})
	}

	if len(reminders) > 0 {
		a.gw.DueReminders(ctx, reminders)
	}
	return reminders, nil
}
