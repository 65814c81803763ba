package handlers

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ruralpay/ledger/internal/models"
)

// renderStatementPDF writes a single-table A4 statement
func renderStatementPDF(w io.Writer, st *models.Statement) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Account Statement %d", st.Account.ID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Account Statement", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Account ID: %d", st.Account.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr("Name: "+st.Account.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Balance: "+st.Account.Balance.StringFixed(2), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Status: "+string(st.Account.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{70, 60, 50}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range []string{"Timestamp", "Type", "Amount"} {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range st.Transactions {
		pdf.CellFormat(widths[0], 7, e.Timestamp.Format(time.RFC3339), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, string(e.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, e.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
