// Package pdf renders invoices to PDF documents.
package pdf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diewo77/fakti/i18n"
	"github.com/diewo77/fakti/internal/billing"
	"github.com/diewo77/fakti/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when PDF rendering is switched off.
var ErrUnavailable = errors.New("pdf rendering unavailable")

// Document is everything printed on one invoice.
type Document struct {
	Invoice *models.Invoice
	Issuer  *models.User
	Lang    string
}

// Renderer writes a PDF for a document.
type Renderer interface {
	Available() bool
	Render(w io.Writer, doc Document) error
}

// New returns the gofpdf renderer when enabled, the disabled one otherwise.
func New(enabled bool) Renderer {
	if !enabled {
		return Disabled{}
	}
	return GoFPDFRenderer{}
}

// Disabled is the fallback renderer.
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) Render(io.Writer, Document) error { return ErrUnavailable }

// GoFPDFRenderer draws invoices with gofpdf core fonts.
type GoFPDFRenderer struct{}

func (GoFPDFRenderer) Available() bool { return true }

// Filename is the attachment name of the invoice PDF.
func Filename(inv *models.Invoice) string {
	number := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, inv.InvoiceNumber)
	if number == "" {
		number = fmt.Sprint(inv.ID)
	}
	return "invoice_" + number + ".pdf"
}

const (
	pageWidth = 190.0
	lineH     = 6.0
)

var columns = []struct {
	key   string
	width float64
	align string
}{
	{"pdf.description", 95, "L"},
	{"pdf.quantity", 25, "R"},
	{"pdf.unit_price", 35, "R"},
	{"pdf.line_total", 35, "R"},
}

func (GoFPDFRenderer) Render(w io.Writer, doc Document) error {
	if doc.Invoice == nil {
		return errors.New("pdf: nil invoice")
	}
	inv := doc.Invoice
	t := func(key string) string { return i18n.T(doc.Lang, key) }
	money := func(d decimal.Decimal) string {
		return d.StringFixed(billing.MoneyPlaces) + " " + string(inv.Currency)
	}

	f := gofpdf.New("P", "mm", "A4", "")
	tr := f.UnicodeTranslatorFromDescriptor("")
	f.SetTitle(t("pdf.invoice")+" "+inv.InvoiceNumber, true)
	f.SetCreator("fakti", true)
	f.SetMargins(10, 10, 10)
	f.AddPage()

	// Issuer
	f.SetFont("Helvetica", "B", 16)
	if doc.Issuer != nil {
		f.CellFormat(pageWidth/2, 8, tr(doc.Issuer.DisplayName()), "", 0, "L", false, 0, "")
	} else {
		f.CellFormat(pageWidth/2, 8, "", "", 0, "L", false, 0, "")
	}
	f.CellFormat(pageWidth/2, 8, tr(t("pdf.invoice")+" "+inv.InvoiceNumber), "", 1, "R", false, 0, "")
	f.SetFont("Helvetica", "", 10)
	if doc.Issuer != nil {
		for _, line := range []string{doc.Issuer.BusinessAddress, doc.Issuer.BusinessPhone, doc.Issuer.Email} {
			if line != "" {
				f.CellFormat(pageWidth, 5, tr(line), "", 1, "L", false, 0, "")
			}
		}
		if doc.Issuer.TaxID != "" {
			f.CellFormat(pageWidth, 5, tr(t("pdf.tax_id")+": "+doc.Issuer.TaxID), "", 1, "L", false, 0, "")
		}
	}
	f.Ln(6)

	// Client and dates
	f.SetFont("Helvetica", "B", 11)
	f.CellFormat(pageWidth/2, lineH, tr(t("pdf.bill_to")), "", 0, "L", false, 0, "")
	f.CellFormat(pageWidth/4, lineH, tr(t("pdf.issue_date")), "", 0, "L", false, 0, "")
	f.CellFormat(pageWidth/4, lineH, tr(t("pdf.due_date")), "", 1, "L", false, 0, "")
	f.SetFont("Helvetica", "", 10)
	clientName, clientAddr := "", ""
	if inv.Client != nil {
		clientName, clientAddr = inv.Client.Name, inv.Client.FullAddress()
	}
	f.CellFormat(pageWidth/2, lineH, tr(clientName), "", 0, "L", false, 0, "")
	f.CellFormat(pageWidth/4, lineH, inv.IssueDate.UTC().Format("2006-01-02"), "", 0, "L", false, 0, "")
	f.CellFormat(pageWidth/4, lineH, inv.DueDate.UTC().Format("2006-01-02"), "", 1, "L", false, 0, "")
	if clientAddr != "" {
		f.CellFormat(pageWidth, lineH, tr(clientAddr), "", 1, "L", false, 0, "")
	}
	f.CellFormat(pageWidth, lineH, tr(t("pdf.status")+": "+string(inv.Status)), "", 1, "L", false, 0, "")
	f.Ln(6)

	// Items
	f.SetFont("Helvetica", "B", 10)
	f.SetFillColor(230, 230, 230)
	for _, c := range columns {
		f.CellFormat(c.width, 7, tr(t(c.key)), "1", 0, c.align, true, 0, "")
	}
	f.Ln(-1)
	f.SetFont("Helvetica", "", 10)
	for _, it := range inv.Items {
		cells := []string{
			tr(it.Description),
			it.Quantity.String(),
			it.UnitPrice.StringFixed(billing.MoneyPlaces),
			it.LineTotal.StringFixed(billing.MoneyPlaces),
		}
		for i, c := range columns {
			f.CellFormat(c.width, 7, cells[i], "1", 0, c.align, false, 0, "")
		}
		f.Ln(-1)
	}
	f.Ln(4)

	// Totals
	labelW, valueW := pageWidth-60, 60.0
	rows := []struct {
		label string
		value string
	}{
		{t("pdf.subtotal"), money(inv.Subtotal)},
		{fmt.Sprintf("%s (%s%%)", t("pdf.tax"), inv.TaxPercent.String()), money(inv.TaxAmount)},
		{fmt.Sprintf("%s (%s%%)", t("pdf.discount"), inv.DiscountPercent.String()), "-" + money(inv.DiscountAmount)},
	}
	for _, r := range rows {
		f.CellFormat(labelW, lineH, tr(r.label), "", 0, "R", false, 0, "")
		f.CellFormat(valueW, lineH, r.value, "", 1, "R", false, 0, "")
	}
	f.SetFont("Helvetica", "B", 12)
	f.CellFormat(labelW, 8, tr(t("pdf.total")), "T", 0, "R", false, 0, "")
	f.CellFormat(valueW, 8, money(inv.Total), "T", 1, "R", false, 0, "")

	if strings.TrimSpace(inv.Notes) != "" {
		f.Ln(6)
		f.SetFont("Helvetica", "B", 10)
		f.CellFormat(pageWidth, lineH, tr(t("pdf.notes")), "", 1, "L", false, 0, "")
		f.SetFont("Helvetica", "", 10)
		f.MultiCell(pageWidth, 5, tr(inv.Notes), "", "L", false)
	}

	if err := f.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
