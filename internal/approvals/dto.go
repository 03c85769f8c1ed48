package approvals

import "github.com/google/uuid"

type SubmitRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" validate:"required"`
	Approvers []string  `json:"approvers" validate:"required,min=1,dive,email"`
	Message   string    `json:"message"`
}

type DecisionRequest struct {
	Decision Decision `json:"decision" validate:"required"`
	Comments *string  `json:"comments,omitempty"`
}

type BulkApproveRequest struct {
	InvoiceIDs    []uuid.UUID `json:"invoice_ids" validate:"required,min=1"`
	ApproverEmail string      `json:"approver_email" validate:"required,email"`
	Comments      *string     `json:"comments,omitempty"`
}

// BulkApproveResult reports best-effort batch progress. Failures never abort
// the remaining invoices.
type BulkApproveResult struct {
	Approved int      `json:"approved"`
	Errors   []string `json:"errors,omitempty"`
}

// Stats summarises the approval workload across all invoices.
type Stats struct {
	Pending           int `json:"pending"`
	Approved          int `json:"approved"`
	Rejected          int `json:"rejected"`
	RevisionRequested int `json:"revision_requested"`

	// AverageApprovalHours is measured from row creation to the approving
	// decision, across decided rows only.
	AverageApprovalHours float64 `json:"average_approval_hours"`
}

// DecisionOutcome is returned from RecordDecision so callers can see both the
// row they touched and the aggregate it produced.
type DecisionOutcome struct {
	Approval        Approval  `json:"approval"`
	InvoiceID       uuid.UUID `json:"invoice_id"`
	AggregateStatus string    `json:"aggregate_status"`
}
