// Package clients manages the customer directory. Invoices snapshot client
// fields at creation time, so edits here never rewrite past invoices.
package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is one billing customer.
type Client struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone,omitempty"`
	Company string    `json:"company,omitempty"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`

	IsActive bool    `json:"is_active"`
	Notes    *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
