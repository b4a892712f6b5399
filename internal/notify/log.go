package notify

import (
	"context"
	"log/slog"

	"github.com/erazemk/izposoja/internal/model"
)

// LogGateway renders events and reports as structured log lines. It is the
// default gateway; a mail-backed implementation would replace it in
// deployments that deliver reports to people.
type LogGateway struct {
	Log *slog.Logger
}

// NewLogGateway creates a LogGateway. A nil logger means slog.Default.
func NewLogGateway(log *slog.Logger) *LogGateway {
	if log == nil {
		log = slog.Default()
	}
	return &LogGateway{Log: log}
}

func (g *LogGateway) LeaseEvent(ctx context.Context, ev LeaseEvent) {
	attrs := []any{
		"kind", ev.Kind,
		"item", ev.ItemID,
		"actor", ev.ActorID,
		"quantity", ev.Quantity,
	}
	if ev.RequestID != nil {
		attrs = append(attrs, "request", *ev.RequestID)
	}
	if ev.LeaseID != nil {
		attrs = append(attrs, "lease", *ev.LeaseID)
	}
	g.Log.InfoContext(ctx, "lease event", attrs...)
}

func (g *LogGateway) DiscrepancyReport(ctx context.Context, report model.AuditReport) {
	if report.Clean {
		g.Log.InfoContext(ctx, "reconciliation clean",
			"run", report.RunID, "items", report.ItemsScanned)
		return
	}

	g.Log.WarnContext(ctx, "reconciliation found discrepancies",
		"run", report.RunID, "items", report.ItemsScanned,
		"discrepancies", len(report.Discrepancies))

	for _, d := range report.Discrepancies {
		g.Log.WarnContext(ctx, "item discrepancy",
			"run", report.RunID, "item", d.ItemID, "name", d.ItemName,
			"missing", d.Missing, "explained", d.Explained,
			"overdue_leases", len(d.Overdue))
		for _, o := range d.Overdue {
			g.Log.WarnContext(ctx, "overdue holder",
				"run", report.RunID, "item", d.ItemID,
				"holder", o.HolderName, "email", o.HolderEmail,
				"quantity", o.Quantity, "due", o.DueDate)
		}
	}
}

func (g *LogGateway) DueReminders(ctx context.Context, reminders []model.DueReminder) {
	for _, r := range reminders {
		g.Log.InfoContext(ctx, "lease due soon",
			"holder", r.HolderName, "email", r.HolderEmail,
			"item", r.ItemName, "quantity", r.Quantity, "due", r.DueDate)
	}
}
