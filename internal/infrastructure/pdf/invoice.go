package pdf

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/crownshift/logistics-api/internal/core/ports"
)

// InvoiceRenderer lays out invoices on a single A4 page.
type InvoiceRenderer struct {
	Company string
}

func NewInvoiceRenderer(company string) *InvoiceRenderer {
	if company == "" {
		company = "Crownshift Logistics"
	}
	return &InvoiceRenderer{Company: company}
}

func (r *InvoiceRenderer) Render(w io.Writer, doc ports.InvoiceDocument) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+doc.TrackingNumber, true)
	pdf.SetAuthor(r.Company, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.Company, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Invoice "+doc.InvoiceID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued "+doc.IssuedAt.UTC().Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Tracking number", doc.TrackingNumber},
		{"Service", doc.ServiceSlug},
		{"Origin", doc.Origin},
		{"Destination", doc.Destination},
		{"Customer", doc.CustomerEmail},
		{"Payment status", doc.PaymentStatus},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	totals := [][2]string{
		{"Subtotal", money(doc.Subtotal, doc.Currency)},
		{"VAT", money(doc.VAT, doc.Currency)},
		{"Total", money(doc.Total, doc.Currency)},
	}
	for i, row := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 12)
		pdf.CellFormat(130, 8, row[0], "T", 0, "R", false, 0, "")
		pdf.CellFormat(0, 8, row[1], "T", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	return nil
}

// money formats minor units as "<major>.<minor> <CUR>".
func money(minor int64, currency string) string {
	return decimal.New(minor, -2).StringFixed(2) + " " + currency
}
