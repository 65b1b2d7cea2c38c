package receipts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/schoolpay/backend/pkg/config"
	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
)

func testSchool() config.SchoolConfig {
	return config.SchoolConfig{
		Name:         "St. Xavier Public School",
		AddressLine1: "12 MG Road",
		AddressLine2: "Pune 411001",
		Phone:        "+91 20 2612 3456",
	}
}

func testStudent() *models.Student {
	return &models.Student{
		ID:          uuid.New(),
		AdmissionNo: "ADM-1042",
		Name:        "Asha Verma",
		Class:       "VI",
		Section:     "B",
	}
}

func testTransaction() *models.Transaction {
	return &models.Transaction{
		ID:          uuid.MustParse("7b5a1f9e-0c64-4f0d-9a3e-2f1d8c4b6a50"),
		StudentID:   uuid.New(),
		AmountPaise: 150000,
		Mode:        enums.PaymentModeCash,
		Status:      enums.TransactionStatusPending,
		FeeHeads: models.FeeHeads{
			{Label: "Tuition Fee", AmountPaise: 100000},
			{Label: "Transport Fee", AmountPaise: 50000},
		},
	}
}

func fixedClock() func() time.Time {
	at := time.Date(2026, time.August, 14, 10, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestRenderIsDeterministicForEqualInputs(t *testing.T) {
	renderer := NewRenderer(testSchool()).WithClock(fixedClock())
	txn := testTransaction()
	student := testStudent()

	first, err := renderer.Render(txn, student)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := renderer.Render(txn, student)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("renders of identical inputs must be byte identical")
	}
	if len(first) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
	if !bytes.HasPrefix(first, []byte("%PDF")) {
		t.Fatal("output does not look like a pdf document")
	}
}

func TestRenderDiffersForDifferentTransactions(t *testing.T) {
	renderer := NewRenderer(testSchool()).WithClock(fixedClock())
	student := testStudent()

	first, err := renderer.Render(testTransaction(), student)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	other := testTransaction()
	other.ID = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	other.AmountPaise = 99900
	other.FeeHeads = models.FeeHeads{{Label: "Exam Fee", AmountPaise: 99900}}
	second, err := renderer.Render(other, student)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if bytes.Equal(first, second) {
		t.Fatal("different transactions must not produce identical receipts")
	}
}

func TestRenderFallsBackToDescriptionLine(t *testing.T) {
	renderer := NewRenderer(testSchool()).WithClock(fixedClock())
	txn := testTransaction()
	txn.FeeHeads = nil
	txn.Description = "Annual Fee"

	data, err := renderer.Render(txn, testStudent())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
}

func TestRenderRequiresInputs(t *testing.T) {
	renderer := NewRenderer(testSchool()).WithClock(fixedClock())

	if _, err := renderer.Render(nil, testStudent()); err == nil {
		t.Fatal("expected nil transaction to be rejected")
	}
	if _, err := renderer.Render(testTransaction(), nil); err == nil {
		t.Fatal("expected nil student to be rejected")
	}
}

func TestReceiptNumberDerivedFromTransactionID(t *testing.T) {
	txn := testTransaction()
	number := ReceiptNumber(txn)

	if !strings.HasPrefix(number, "RCPT-") {
		t.Fatalf("unexpected prefix in %q", number)
	}
	if number != "RCPT-7B5A1F9E" {
		t.Fatalf("unexpected receipt number %q", number)
	}
	if ReceiptNumber(txn) != number {
		t.Fatal("receipt number must be stable for a transaction")
	}
}

func TestObjectNameKeyedByTransaction(t *testing.T) {
	txn := testTransaction()
	if got := ObjectName(txn); got != "receipts/"+txn.ID.String()+".pdf" {
		t.Fatalf("unexpected object name %q", got)
	}
}
