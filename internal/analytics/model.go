// Package analytics derives revenue, invoice, client and payment rollups
// from the entity store. Everything here is read-only; results are cached in
// Redis behind a versioned key.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// MonthBucket is one month of the revenue trend series.
type MonthBucket struct {
	Month   string  `json:"month"` // 2006-01
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// RevenueStats is the revenue rollup.
type RevenueStats struct {
	TotalRevenue   float64 `json:"total_revenue"`
	PendingRevenue float64 `json:"pending_revenue"`
	OverdueRevenue float64 `json:"overdue_revenue"`
	ThisMonth      float64 `json:"this_month"`
	ThisYear       float64 `json:"this_year"`

	// MonthlyGrowthPercent compares the current month bucket with the
	// previous one. A zero previous month yields zero, not infinity.
	MonthlyGrowthPercent float64 `json:"monthly_growth_percent"`

	Monthly []MonthBucket `json:"monthly"`
}

// InvoiceStats is the invoice count rollup.
type InvoiceStats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	AverageValue float64        `json:"average_value"`

	// StatusDistribution is ByStatus as percentages of Total.
	StatusDistribution map[string]float64 `json:"status_distribution"`
}

// TopClient is one row of the top-billed clients list.
type TopClient struct {
	ClientName   string  `json:"client_name"`
	ClientEmail  string  `json:"client_email"`
	InvoiceCount int     `json:"invoice_count"`
	TotalBilled  float64 `json:"total_billed"`
}

// ClientStats is the client rollup.
type ClientStats struct {
	Total        int         `json:"total"`
	Active       int         `json:"active"`
	NewThisMonth int         `json:"new_this_month"`
	TopClients   []TopClient `json:"top_clients"`
}

// PaymentStats is the payment rollup.
type PaymentStats struct {
	Count            int                `json:"count"`
	TotalReceived    float64            `json:"total_received"`
	AverageDaysToPay float64            `json:"average_days_to_pay"`
	MethodBreakdown  map[string]float64 `json:"method_breakdown"`
}

// Dashboard bundles every rollup for the combined endpoint.
type Dashboard struct {
	Revenue     RevenueStats `json:"revenue"`
	Invoices    InvoiceStats `json:"invoices"`
	Clients     ClientStats  `json:"clients"`
	Payments    PaymentStats `json:"payments"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// VATLine is one invoice row of the VAT report.
type VATLine struct {
	InvoiceNumber string    `json:"invoice_number"`
	ClientName    string    `json:"client_name"`
	IssueDate     time.Time `json:"issue_date"`
	Subtotal      float64   `json:"subtotal"`
	TaxRate       float64   `json:"tax_rate"`
	TaxAmount     float64   `json:"tax_amount"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	Currency      string    `json:"currency"`
}

// VATReport lists taxable invoices in a period with collected-tax totals.
// Cancelled invoices are excluded.
type VATReport struct {
	Lines        []VATLine    `json:"data"`
	TotalSales   float64      `json:"total_sales"`
	TotalVAT     float64      `json:"total_vat"`
	TotalWithVAT float64      `json:"total_with_vat"`
	Period       ReportPeriod `json:"period"`
}

// CashPaymentLine is one cash payment row of the petty cash report.
type CashPaymentLine struct {
	ID            uuid.UUID `json:"id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientName    string    `json:"client_name"`
	Amount        float64   `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// PettyCashReport lists cash payments received in a period.
type PettyCashReport struct {
	Lines            []CashPaymentLine `json:"data"`
	TotalCash        float64           `json:"total_cash"`
	TransactionCount int               `json:"transaction_count"`
	Period           ReportPeriod      `json:"period"`
}

// ReportPeriod is the inclusive date range a report covers.
type ReportPeriod struct {
	From time.Time `json:"start_date"`
	To   time.Time `json:"end_date"`
}

// RevenueTotalsRow is the raw revenue aggregate from the store.
type RevenueTotalsRow struct {
	Paid      float64
	Pending   float64
	Overdue   float64
	ThisMonth float64
	ThisYear  float64
}

// InvoiceCountsRow is the raw invoice aggregate from the store.
type InvoiceCountsRow struct {
	ByStatus     map[string]int
	AverageValue float64
}

// ClientCountsRow is the raw client aggregate from the store.
type ClientCountsRow struct {
	Total        int
	Active       int
	NewThisMonth int
}

// PaymentAggregatesRow is the raw payment aggregate from the store.
type PaymentAggregatesRow struct {
	Count            int
	Total            float64
	AverageDaysToPay float64
	ByMethod         map[string]float64
}
