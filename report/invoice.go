package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/ledgerline/ledgerline/internal/invoices"
)

// Company is the letterhead printed on every invoice document.
type Company struct {
	Name    string
	Address string
	Email   string
}

// Renderer turns an invoice into a PDF document. It satisfies the
// PDFRenderer interface the invoice service uses.
type Renderer struct {
	client  *Client
	company Company
	tmpl    *template.Template
}

// NewRenderer builds a Renderer against one Gotenberg client.
func NewRenderer(client *Client, company Company) *Renderer {
	return &Renderer{
		client:  client,
		company: company,
		tmpl:    template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

type invoiceView struct {
	Company Company
	Invoice *invoices.Invoice
	Date    string
	DueDate string
}

// RenderInvoice renders the invoice document and returns the PDF bytes.
func (r *Renderer) RenderInvoice(ctx context.Context, inv *invoices.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	view := invoiceView{
		Company: r.company,
		Invoice: inv,
		Date:    inv.IssueDate.Format("January 2, 2006"),
		DueDate: inv.DueDate.Format("January 2, 2006"),
	}
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	pdf, err := r.client.RenderHTML(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("convert invoice %s: %w", inv.InvoiceNumber, err)
	}
	return pdf, nil
}

// HTML returns the rendered document without PDF conversion, used for
// previews and template tests.
func (r *Renderer) HTML(inv *invoices.Invoice) (string, error) {
	var buf bytes.Buffer
	view := invoiceView{
		Company: r.company,
		Invoice: inv,
		Date:    inv.IssueDate.Format("January 2, 2006"),
		DueDate: inv.DueDate.Format("January 2, 2006"),
	}
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}


const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Invoice.InvoiceNumber}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 40px; }
.header { display: flex; justify-content: space-between; margin-bottom: 40px; }
.company { font-size: 14px; }
.company h2 { margin: 0 0 4px 0; }
.meta { text-align: right; font-size: 13px; }
.meta h1 { margin: 0 0 8px 0; font-size: 24px; letter-spacing: 1px; }
.billto { margin-bottom: 30px; font-size: 13px; }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th { text-align: left; border-bottom: 2px solid #1a1a1a; padding: 8px 4px; }
td { border-bottom: 1px solid #ddd; padding: 8px 4px; }
.num { text-align: right; }
.totals { margin-top: 20px; width: 300px; margin-left: auto; font-size: 13px; }
.totals div { display: flex; justify-content: space-between; padding: 4px 0; }
.totals .grand { border-top: 2px solid #1a1a1a; font-weight: bold; font-size: 15px; }
.notes { margin-top: 40px; font-size: 12px; color: #555; }
</style>
</head>
<body>
<div class="header">
  <div class="company">
    <h2>{{.Company.Name}}</h2>
    <div>{{.Company.Address}}</div>
    <div>{{.Company.Email}}</div>
  </div>
  <div class="meta">
    <h1>INVOICE</h1>
    <div><strong>{{.Invoice.InvoiceNumber}}</strong></div>
    <div>Issued: {{.Date}}</div>
    <div>Due: {{.DueDate}}</div>
  </div>
</div>
<div class="billto">
  <strong>Bill To</strong><br>
  {{.Invoice.ClientName}}<br>
  {{.Invoice.ClientEmail}}<br>
  {{.Invoice.ClientAddress}}
</div>
<table>
  <thead>
    <tr><th>Description</th><th class="num">Qty</th><th class="num">Unit Price</th><th class="num">Amount</th></tr>
  </thead>
  <tbody>
  {{range .Invoice.Items}}
    <tr>
      <td>{{.Description}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{printf "%.2f" .UnitPrice}}</td>
      <td class="num">{{printf "%.2f" .Total}}</td>
    </tr>
  {{end}}
  </tbody>
</table>
<div class="totals">
  <div><span>Subtotal</span><span>{{printf "%.2f" .Invoice.Subtotal}} {{.Invoice.Currency}}</span></div>
  <div><span>Tax ({{printf "%.1f" .Invoice.TaxRate}}%)</span><span>{{printf "%.2f" .Invoice.TaxAmount}} {{.Invoice.Currency}}</span></div>
  <div class="grand"><span>Total</span><span>{{printf "%.2f" .Invoice.Total}} {{.Invoice.Currency}}</span></div>
</div>
{{if .Invoice.Notes}}<div class="notes">{{.Invoice.Notes}}</div>{{end}}
</body>
</html>`
