package model

import "time"

// OverdueHolder identifies who is sitting on units past their due date.
// This is the actionable payload of a discrepancy: overdue leases are the
// most common explanation for stock that the ledger no longer accounts for.
type OverdueHolder struct {
	LeaseID     int64     `json:"lease_id"`
	HolderID    int64     `json:"holder_id"`
	HolderName  string    `json:"holder_name"`
	HolderEmail string    `json:"holder_email,omitempty"`
	Quantity    int       `json:"quantity"`
	DueDate     time.Time `json:"due_date"`
}

// Discrepancy describes one item whose missing units are not fully
// explained by non-expired active leases.
type Discrepancy struct {
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Missing   int             `json:"missing"`
	Explained int             `json:"explained"`
	Overdue   []OverdueHolder `json:"overdue"`
}

// AuditReport is the result of one reconciliation pass over the catalog.
// RunID correlates log lines and delivered reports from the same pass.
type AuditReport struct {
	RunID         string        `json:"run_id"`
	RanAt         time.Time     `json:"ran_at"`
	ItemsScanned  int           `json:"items_scanned"`
	Clean         bool          `json:"clean"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// DueReminder is one "lease due soon" notice for a holder.
type DueReminder struct {
	LeaseID     int64     `json:"lease_id"`
	HolderID    int64     `json:"holder_id"`
	HolderName  string    `json:"holder_name"`
	HolderEmail string    `json:"holder_email,omitempty"`
	ItemID      int64     `json:"item_id"`
	ItemName    string    `json:"item_name"`
	Quantity    int       `json:"quantity"`
	DueDate     time.Time `json:"due_date"`
}
