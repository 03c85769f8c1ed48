// Package approvals implements the per-approver decision workflow that sits
// beside the invoice lifecycle. An invoice's aggregate approval status is
// always a pure function of its decision rows, recomputed from scratch on
// every recorded decision.
package approvals

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// Decision is the state of one approver's row.
type Decision string

const (
	DecisionPending           Decision = "pending"
	DecisionApproved          Decision = "approved"
	DecisionRejected          Decision = "rejected"
	DecisionRevisionRequested Decision = "revision_requested"
)

// ValidDecision reports whether d is a decision an approver can record.
// Pending is the initial state, not a recordable decision.
func ValidDecision(d Decision) bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionRevisionRequested:
		return true
	}
	return false
}

// SystemApprover is the identity attached to synthetic auto-approval rows.
const SystemApprover = "system"

// Approval is one (invoice, approver) decision row.
type Approval struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	ApproverEmail string     `json:"approver_email"`
	Status        Decision   `json:"status"`
	Comments      *string    `json:"comments,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Reduce derives the invoice aggregate from the full approval set. The
// tie-break order is rejected, then revision_requested, then unanimous
// approval; anything else stays pending. An empty set is pending.
func Reduce(rows []Approval) invoices.ApprovalStatus {
	if len(rows) == 0 {
		return invoices.ApprovalPending
	}
	allApproved := true
	revision := false
	for _, row := range rows {
		switch row.Status {
		case DecisionRejected:
			return invoices.ApprovalRejected
		case DecisionRevisionRequested:
			revision = true
			allApproved = false
		case DecisionApproved:
		default:
			allApproved = false
		}
	}
	if revision {
		return invoices.ApprovalRevisionRequested
	}
	if allApproved {
		return invoices.ApprovalApproved
	}
	return invoices.ApprovalPending
}
