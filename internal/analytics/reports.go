package analytics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ledgerline/ledgerline/internal/money"
)

// VATReport lists every non-cancelled invoice issued in the period with the
// collected tax totals. Reports are date-ranged so they bypass the cache.
func (s *Service) VATReport(ctx context.Context, from, to time.Time) (VATReport, error) {
	lines, err := s.repo.VATLines(ctx, from, to)
	if err != nil {
		return VATReport{}, err
	}
	report := VATReport{
		Lines:  lines,
		Period: ReportPeriod{From: from, To: to},
	}
	for _, l := range lines {
		report.TotalSales += l.Subtotal
		report.TotalVAT += l.TaxAmount
		report.TotalWithVAT += l.Total
	}
	report.TotalSales = money.Round2(report.TotalSales)
	report.TotalVAT = money.Round2(report.TotalVAT)
	report.TotalWithVAT = money.Round2(report.TotalWithVAT)
	return report, nil
}

// PettyCashReport lists cash payments received in the period.
func (s *Service) PettyCashReport(ctx context.Context, from, to time.Time) (PettyCashReport, error) {
	lines, err := s.repo.CashPayments(ctx, from, to)
	if err != nil {
		return PettyCashReport{}, err
	}
	report := PettyCashReport{
		Lines:            lines,
		TransactionCount: len(lines),
		Period:           ReportPeriod{From: from, To: to},
	}
	for _, l := range lines {
		report.TotalCash += l.Amount
	}
	report.TotalCash = money.Round2(report.TotalCash)
	return report, nil
}

const reportDateLayout = "2006-01-02"

// WriteVATCSV renders the VAT report as CSV.
func WriteVATCSV(w io.Writer, report VATReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Invoice Number", "Client Name", "Date", "Subtotal", "VAT Rate", "VAT Amount", "Total", "Status", "Currency"}); err != nil {
		return err
	}
	for _, l := range report.Lines {
		row := []string{
			l.InvoiceNumber,
			l.ClientName,
			l.IssueDate.Format(reportDateLayout),
			formatAmount(l.Subtotal),
			fmt.Sprintf("%s%%", formatAmount(l.TaxRate)),
			formatAmount(l.TaxAmount),
			formatAmount(l.Total),
			l.Status,
			l.Currency,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePettyCashCSV renders the petty cash report as CSV.
func WritePettyCashCSV(w io.Writer, report PettyCashReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Invoice Number", "Client", "Amount", "Transaction ID", "Notes"}); err != nil {
		return err
	}
	for _, l := range report.Lines {
		row := []string{
			l.PaymentDate.Format(reportDateLayout),
			l.InvoiceNumber,
			l.ClientName,
			formatAmount(l.Amount),
			l.TransactionID,
			l.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
