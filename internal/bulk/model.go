// Package bulk applies one operation across a batch of invoices, tracking
// progress in a persistent operation record. The record is plain progress
// bookkeeping, not a resumable job queue.
package bulk

import (
	"time"

	"github.com/google/uuid"
)

// OperationType names the batch action.
type OperationType string

const (
	OpCreateInvoices OperationType = "create_invoices"
	OpSendInvoices   OperationType = "send_invoices"
	OpGeneratePDFs   OperationType = "generate_pdfs"
	OpImportCSV      OperationType = "import_csv"
)

// OperationStatus is the record lifecycle. Completed and failed are terminal.
type OperationStatus string

const (
	OpPending    OperationStatus = "pending"
	OpProcessing OperationStatus = "processing"
	OpCompleted  OperationStatus = "completed"
	OpFailed     OperationStatus = "failed"
)

// Operation is one batch job record. Per-item failures increment FailedItems
// and append to Errors but still end the record as completed; only an
// operation-level failure marks it failed.
type Operation struct {
	ID     uuid.UUID       `json:"id"`
	Type   OperationType   `json:"operation_type"`
	Status OperationStatus `json:"status"`

	TotalItems     int `json:"total_items"`
	ProcessedItems int `json:"processed_items"`
	FailedItems    int `json:"failed_items"`

	Errors []string `json:"errors,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
