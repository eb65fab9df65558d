package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"grubgo/internal/models"
)

// Generator renders documents straight to a writer.
type Generator interface {
	WriteReceipt(w io.Writer, data ReceiptData) error
}

// ReceiptLine is one cart line resolved against the catalog.
// Missing is set when the food was gone at order time.
type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice float64
	Missing   bool
}

type ReceiptData struct {
	Order    *models.Order
	Customer string
	Lines    []ReceiptLine
}

type DocumentGenerator struct {
	FontPath string // optional TTF; core Helvetica when empty
	fontName string
}

func NewDocumentGenerator(fontPath string) *DocumentGenerator {
	g := &DocumentGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *DocumentGenerator) WriteReceipt(w io.Writer, data ReceiptData) error {
	o := data.Order
	if o == nil {
		return fmt.Errorf("receipt: order is required")
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(fmt.Sprintf("GrubGo receipt %s", o.ID), false)
	pdf.SetAuthor("GrubGo", false)
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	g.addUTF8Font(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 9, "GrubGo", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, "Order receipt", "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.kvLine(pdf, "Order", o.ID.String())
	g.kvLine(pdf, "Date", o.CreatedAt.Format(time.RFC822))
	if data.Customer != "" {
		g.kvLine(pdf, "Customer", data.Customer)
	}
	g.kvLine(pdf, "Status", o.Status)
	g.hr(pdf)

	g.sectionTitle(pdf, "Items")
	for _, l := range data.Lines {
		name := l.Name
		amount := fmt.Sprintf("$%.2f", l.UnitPrice*float64(l.Quantity))
		if l.Missing {
			name += " (unavailable)"
			amount = "-"
		}
		pdf.CellFormat(90, 6, fmt.Sprintf("%d x %s", l.Quantity, name), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, amount, "", 1, "R", false, 0, "")
	}
	g.hr(pdf)

	g.amountLine(pdf, "Subtotal", o.Subtotal, false)
	g.amountLine(pdf, fmt.Sprintf("Tax (%.0f%%)", (o.Tax-1)*100), o.TaxAmount, false)
	g.amountLine(pdf, "Total", o.Total, true)
	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Points earned: %d", o.PointsEarned), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("receipt output: %w", err)
	}
	return nil
}

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
}

func (g *DocumentGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.CellFormat(28, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) amountLine(pdf *gofpdf.Fpdf, label string, v float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(g.fontName, style, 10)
	pdf.CellFormat(90, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("$%.2f", v), "", 1, "R", false, 0, "")
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(12, y, 136, y)
	pdf.SetY(y + 2)
}

func (g *DocumentGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
