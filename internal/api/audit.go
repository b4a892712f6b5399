package api

import (
	"net/http"

	"github.com/erazemk/izposoja/internal/audit"
)

// AuditHandler exposes the reconciliation pass on demand, in addition to
// its scheduled runs.
type AuditHandler struct {
	Auditor *audit.Auditor
}

// Run handles POST /api/audit.
func (h *AuditHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.Auditor.AuditOnce(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// Reminders handles GET /api/audit/reminders: the due-soon listing without
// waiting for the scheduled scan.
func (h *AuditHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.Auditor.RemindDue(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, reminders)
}
