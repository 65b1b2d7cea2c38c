package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/internal/ledger"
	"github.com/schoolpay/backend/internal/payments"
	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
	"github.com/schoolpay/backend/pkg/razorpay"
)

const testKeySecret = "test-key-secret"

func signPayload(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type recordingRepo struct {
	created []*models.Transaction
}

func (s *recordingRepo) WithTx(tx *gorm.DB) payments.Repository { return s }
func (s *recordingRepo) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.created = append(s.created, txn)
	return nil
}
func (s *recordingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *recordingRepo) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *recordingRepo) ListByStatus(ctx context.Context, status enums.TransactionStatus, limit int) ([]models.Transaction, error) {
	return nil, nil
}
func (s *recordingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus, verifiedBy *uuid.UUID) error {
	return nil
}
func (s *recordingRepo) AttachReceiptURL(ctx context.Context, id uuid.UUID, url string) error {
	return nil
}

type singleStudentRepo struct {
	student *models.Student
}

func (s *singleStudentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	if s.student != nil && s.student.ID == id {
		return s.student, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *singleStudentRepo) FindByAdmissionNo(ctx context.Context, admissionNo string) (*models.Student, error) {
	if s.student != nil && s.student.AdmissionNo == admissionNo {
		return s.student, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type recordingLedger struct {
	credits int
}

func (s *recordingLedger) AppendCredit(ctx context.Context, tx *gorm.DB, params ledger.CreditParams) error {
	s.credits++
	return nil
}
func (s *recordingLedger) Statement(ctx context.Context, studentID uuid.UUID) (*ledger.Statement, error) {
	return nil, nil
}

type fixedGateway struct {
	amount int64
}

func (g fixedGateway) CreateOrder(ctx context.Context, params razorpay.OrderParams) (string, error) {
	return "order_test_1", nil
}
func (g fixedGateway) FetchOrderAmount(ctx context.Context, orderID string) (int64, error) {
	return g.amount, nil
}
func (g fixedGateway) KeyID() string     { return "rzp_test_key" }
func (g fixedGateway) KeySecret() string { return testKeySecret }
func (g fixedGateway) Currency() string  { return "INR" }

type passthroughRunner struct{}

func (passthroughRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newPaymentsController(t *testing.T) (*PaymentsController, *recordingRepo, *recordingLedger, *models.Student) {
	t.Helper()

	student := &models.Student{
		ID:          uuid.New(),
		AdmissionNo: "ADM-1042",
		Name:        "Asha Verma",
		Class:       "VI",
	}
	repo := &recordingRepo{}
	ledgerStub := &recordingLedger{}
	svc, err := payments.NewService(
		repo,
		&singleStudentRepo{student: student},
		ledgerStub,
		fixedGateway{amount: 150000},
		nil,
		payments.NewIdempotencyGuard(nil),
		passthroughRunner{},
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return NewPaymentsController(svc, nil), repo, ledgerStub, student
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestVerifyBadSignatureReturns400AndWritesNothing(t *testing.T) {
	ctrl, repo, ledgerStub, student := newPaymentsController(t)

	resp := postJSON(t, ctrl.Verify, "/api/v1/payments/verify", map[string]any{
		"order_creation_id":   "order_test_1",
		"razorpay_payment_id": "pay_test_1",
		"razorpay_signature":  signPayload("order_test_1", "pay_someone_else"),
		"student_id":          student.ID.String(),
	})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(repo.created) != 0 {
		t.Fatal("no transaction may be written for a bad signature")
	}
	if ledgerStub.credits != 0 {
		t.Fatal("no ledger entry may be written for a bad signature")
	}
}

func TestVerifyValidSignatureRecordsPayment(t *testing.T) {
	ctrl, repo, ledgerStub, student := newPaymentsController(t)

	resp := postJSON(t, ctrl.Verify, "/api/v1/payments/verify", map[string]any{
		"order_creation_id":   "order_test_1",
		"razorpay_payment_id": "pay_test_1",
		"razorpay_signature":  signPayload("order_test_1", "pay_test_1"),
		"student_id":          student.ID.String(),
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one transaction, got %d", len(repo.created))
	}
	if repo.created[0].AmountPaise != 150000 {
		t.Fatalf("expected gateway amount recorded, got %d", repo.created[0].AmountPaise)
	}
	if ledgerStub.credits != 1 {
		t.Fatalf("expected one ledger credit, got %d", ledgerStub.credits)
	}

	var envelope struct {
		Data verifyPaymentResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.TransactionStatusSuccess.String() {
		t.Fatalf("expected success status, got %q", envelope.Data.Status)
	}
	if envelope.Data.TransactionID == "" {
		t.Fatal("expected transaction id in response")
	}
}

func TestVerifyMissingFieldsReturns400(t *testing.T) {
	ctrl, repo, _, _ := newPaymentsController(t)

	resp := postJSON(t, ctrl.Verify, "/api/v1/payments/verify", map[string]any{
		"order_creation_id": "order_test_1",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(repo.created) != 0 {
		t.Fatal("no transaction may be written for an invalid body")
	}
}

func TestRecordCashReturnsCreated(t *testing.T) {
	ctrl, repo, _, student := newPaymentsController(t)

	resp := postJSON(t, ctrl.RecordCash, "/api/v1/payments/cash", map[string]any{
		"student_id": student.ID.String(),
		"mode":       "cash",
		"fee_heads": []map[string]any{
			{"label": "Tuition Fee", "amount": "1000"},
		},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one transaction, got %d", len(repo.created))
	}
	if repo.created[0].Status != enums.TransactionStatusPending {
		t.Fatalf("cash collections start pending, got %s", repo.created[0].Status)
	}
}
