package receipts

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/backend/pkg/config"
	"github.com/schoolpay/backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
)

const (
	pageMargin  = 15.0
	labelColW   = 130.0
	amountColW  = 50.0
	rowH        = 8.0
	receiptFont = "Helvetica"
)

// Renderer lays out the fixed A4 fee receipt. Output is deterministic for
// identical inputs apart from the generated-at stamp, which comes from the
// injected clock.
type Renderer struct {
	school config.SchoolConfig
	now    func() time.Time
}

// NewRenderer builds a receipt renderer with the school branding block.
func NewRenderer(school config.SchoolConfig) *Renderer {
	return &Renderer{school: school, now: time.Now}
}

// WithClock overrides the generated-at clock.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	if now != nil {
		r.now = now
	}
	return r
}

// ReceiptNumber derives the printed receipt number from the transaction id.
func ReceiptNumber(txn *models.Transaction) string {
	compact := strings.ToUpper(strings.ReplaceAll(txn.ID.String(), "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "RCPT-" + compact
}

// Render produces the receipt PDF bytes for a transaction.
func (r *Renderer) Render(txn *models.Transaction, student *models.Student) ([]byte, error) {
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction is required")
	}
	if student == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student is required")
	}

	generatedAt := r.now()

	pdf := fpdf.New("P", "mm", "A4", "")
	// Sorted object output keeps renders of equal inputs byte identical.
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle("Fee Receipt "+ReceiptNumber(txn), false)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	r.header(pdf)
	r.metadata(pdf, txn, student, generatedAt)
	r.itemTable(pdf, txn)
	r.totalBlock(pdf, txn)

	pdf.Ln(6)
	pdf.SetFont(receiptFont, "I", 8)
	pdf.CellFormat(0, 5, "This is a computer generated receipt and does not require a signature.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt pdf")
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf) {
	pdf.SetFont(receiptFont, "B", 16)
	pdf.CellFormat(0, 9, r.school.Name, "", 1, "C", false, 0, "")

	pdf.SetFont(receiptFont, "", 9)
	for _, line := range []string{r.school.AddressLine1, r.school.AddressLine2, r.school.Phone} {
		if line != "" {
			pdf.CellFormat(0, 4.5, line, "", 1, "C", false, 0, "")
		}
	}

	pdf.Ln(3)
	pdf.SetFont(receiptFont, "B", 12)
	pdf.CellFormat(0, 7, "FEE RECEIPT", "T", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func (r *Renderer) metadata(pdf *fpdf.Fpdf, txn *models.Transaction, student *models.Student, generatedAt time.Time) {
	class := student.Class
	if student.Section != "" {
		class = class + " / " + student.Section
	}

	rows := [][2]string{
		{"Receipt No.", ReceiptNumber(txn)},
		{"Date", generatedAt.Format("02 Jan 2006")},
		{"Student", student.Name},
		{"Admission No.", student.AdmissionNo},
		{"Class / Section", class},
		{"Payment Mode", strings.ToUpper(txn.Mode.String())},
	}

	pdf.SetFont(receiptFont, "", 10)
	for _, row := range rows {
		pdf.SetFont(receiptFont, "B", 10)
		pdf.CellFormat(45, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont(receiptFont, "", 10)
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (r *Renderer) itemTable(pdf *fpdf.Fpdf, txn *models.Transaction) {
	heads := txn.FeeHeads
	if len(heads) == 0 {
		// No structured itemization: print one synthetic line from the
		// free-text description.
		label := txn.Description
		if label == "" {
			label = "Fee payment"
		}
		heads = models.FeeHeads{{Label: label, AmountPaise: txn.AmountPaise}}
	}

	pdf.SetFont(receiptFont, "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(labelColW, rowH, "Particulars", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountColW, rowH, "Amount (Rs.)", "1", 1, "R", true, 0, "")

	pdf.SetFont(receiptFont, "", 10)
	for _, head := range heads {
		pdf.CellFormat(labelColW, rowH, head.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(amountColW, rowH, formatPaise(head.AmountPaise), "1", 1, "R", false, 0, "")
	}
}

func (r *Renderer) totalBlock(pdf *fpdf.Fpdf, txn *models.Transaction) {
	pdf.SetFont(receiptFont, "B", 11)
	pdf.CellFormat(labelColW, rowH, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(amountColW, rowH, formatPaise(txn.AmountPaise), "1", 1, "R", false, 0, "")
}

func formatPaise(paise int64) string {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(100)).StringFixed(2)
}
