package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/internal/ledger"
	"github.com/schoolpay/backend/internal/students"
	"github.com/schoolpay/backend/pkg/db"
	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
	"github.com/schoolpay/backend/pkg/metrics"
	"github.com/schoolpay/backend/pkg/razorpay"
)

// Gateway is the payment-gateway surface the workflow depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, params razorpay.OrderParams) (string, error)
	FetchOrderAmount(ctx context.Context, orderID string) (int64, error)
	KeyID() string
	KeySecret() string
	Currency() string
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReceiptGenerator produces and attaches a receipt for a recorded transaction.
type ReceiptGenerator interface {
	GenerateAndAttach(ctx context.Context, txn *models.Transaction, student *models.Student) (string, error)
}

// Service records fee payments. Online callbacks are verified against the
// gateway signature and the gateway-held order amount before anything is
// written; client-claimed amounts are display only.
type Service struct {
	repo     Repository
	students students.Repository
	ledger   ledger.Service
	gateway  Gateway
	receipts ReceiptGenerator
	guard    *IdempotencyGuard
	runner   TxRunner
	logg     *logger.Logger
	payments *metrics.PaymentMetrics
}

// NewService wires the payment workflow.
func NewService(
	repo Repository,
	studentRepo students.Repository,
	ledgerSvc ledger.Service,
	gateway Gateway,
	receipts ReceiptGenerator,
	guard *IdempotencyGuard,
	runner TxRunner,
	logg *logger.Logger,
	payments *metrics.PaymentMetrics,
) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction repository required")
	}
	if studentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "student repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:     repo,
		students: studentRepo,
		ledger:   ledgerSvc,
		gateway:  gateway,
		receipts: receipts,
		guard:    guard,
		runner:   runner,
		logg:     logg,
		payments: payments,
	}, nil
}

// CreateGatewayOrder registers a checkout order with the gateway for the
// student's itemized fee heads.
func (s *Service) CreateGatewayOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	student, err := s.findStudent(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}

	heads := toFeeHeads(input.FeeHeads)
	total := heads.TotalPaise()
	if len(heads) == 0 || total <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one fee head with a positive amount is required")
	}

	orderID, err := s.gateway.CreateOrder(ctx, razorpay.OrderParams{
		AmountPaise: total,
		Receipt:     "fee-" + student.AdmissionNo,
		Notes: map[string]string{
			"student_id":   student.ID.String(),
			"admission_no": student.AdmissionNo,
		},
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithStudentID(ctx, student.ID.String())
		ctx = s.logg.WithField(ctx, "gateway_order_id", orderID)
		s.logg.Info(ctx, "gateway order created")
	}

	return &CreateOrderResult{
		OrderID:     orderID,
		KeyID:       s.gateway.KeyID(),
		AmountPaise: total,
		Currency:    s.gateway.Currency(),
	}, nil
}

// VerifyOnlinePayment handles the checkout callback. Order of operations is
// fixed: signature check first, then the gateway-held amount lookup, then a
// single database transaction covering the insert and the ledger credit.
// Nothing is written when the signature does not verify.
func (s *Service) VerifyOnlinePayment(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentResult, error) {
	orderID := strings.TrimSpace(input.OrderCreationID)
	paymentID := strings.TrimSpace(input.PaymentID)
	if orderID == "" || paymentID == "" || strings.TrimSpace(input.Signature) == "" {
		s.payments.IncRejected("missing_fields")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id, payment id and signature are required")
	}

	if !razorpay.VerifyPaymentSignature(orderID, paymentID, input.Signature, s.gateway.KeySecret()) {
		s.payments.IncRejected("invalid_signature")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature verification failed")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"gateway_order_id":   orderID,
			"gateway_payment_id": paymentID,
		})
	}

	seen, guardErr := s.guard.CheckAndMark(ctx, paymentID)
	if guardErr != nil && s.logg != nil {
		// Degraded guard is tolerable; the unique index still protects.
		s.logg.Warn(ctx, fmt.Sprintf("idempotency guard unavailable: %v", guardErr))
	}
	if seen {
		return s.alreadyRecorded(ctx, paymentID)
	}

	student, err := s.findStudent(ctx, input.StudentID)
	if err != nil {
		s.releaseGuard(ctx, paymentID)
		return nil, err
	}

	trustedPaise, err := s.gateway.FetchOrderAmount(ctx, orderID)
	if err != nil {
		s.releaseGuard(ctx, paymentID)
		return nil, err
	}
	if trustedPaise <= 0 {
		s.releaseGuard(ctx, paymentID)
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway reported a non-positive order amount")
	}
	if claimed := input.ClientAmount.Mul(hundred).IntPart(); claimed != 0 && claimed != trustedPaise && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("client-claimed amount %d paise differs from gateway amount %d paise", claimed, trustedPaise))
	}

	heads := toFeeHeads(input.FeeHeads)
	if total := heads.TotalPaise(); len(heads) > 0 && total != trustedPaise {
		// Itemization must sum to the recorded amount. A mismatched
		// client breakdown is dropped rather than persisted; the receipt
		// falls back to a single description line.
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("dropping fee heads summing to %d paise for a %d paise order", total, trustedPaise))
		}
		heads = nil
	}
	description := input.Description
	if len(heads) > 0 && description == "" {
		description = heads.Flatten()
	}

	txn := &models.Transaction{
		StudentID:        student.ID,
		AmountPaise:      trustedPaise,
		Currency:         s.gateway.Currency(),
		Mode:             enums.PaymentModeOnline,
		Status:           enums.TransactionStatusSuccess,
		GatewayOrderID:   &orderID,
		GatewayPaymentID: &paymentID,
		FeeHeads:         heads,
		Description:      description,
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}
		txnID := txn.ID
		return s.ledger.AppendCredit(ctx, tx, ledger.CreditParams{
			StudentID:     student.ID,
			TransactionID: &txnID,
			AmountPaise:   trustedPaise,
			Note:          "online fee payment",
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, UniqGatewayPaymentIDConstraint) {
			return s.alreadyRecorded(ctx, paymentID)
		}
		s.releaseGuard(ctx, paymentID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record online payment")
	}

	s.payments.IncRecorded(txn.Mode.String(), txn.Status.String())
	s.payments.IncLedgerAppend()
	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, txn.ID.String())
		s.logg.Info(ctx, "online payment recorded")
	}

	result := &VerifyPaymentResult{Transaction: txn}
	result.ReceiptURL = s.generateReceipt(ctx, txn, student)
	return result, nil
}

// RecordCashCollection records an over-the-counter cash or cheque collection.
// The transaction stays pending until an admin reconciles it; no ledger credit
// is appended here.
func (s *Service) RecordCashCollection(ctx context.Context, input CashCollectionInput) (*CashCollectionResult, error) {
	if input.Mode != enums.PaymentModeCash && input.Mode != enums.PaymentModeCheque {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mode must be cash or cheque")
	}

	student, err := s.findStudent(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}

	heads := toFeeHeads(input.FeeHeads)
	total := heads.TotalPaise()
	if len(heads) == 0 || total <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one fee head with a positive amount is required")
	}

	txn := &models.Transaction{
		StudentID:   student.ID,
		AmountPaise: total,
		Currency:    s.gateway.Currency(),
		Mode:        input.Mode,
		Status:      enums.TransactionStatusPending,
		FeeHeads:    heads,
		Description: heads.Flatten(),
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record collection")
	}

	s.payments.IncRecorded(txn.Mode.String(), txn.Status.String())
	if s.logg != nil {
		ctx = s.logg.WithStudentID(ctx, student.ID.String())
		ctx = s.logg.WithTransactionID(ctx, txn.ID.String())
		if input.CollectedBy != uuid.Nil {
			ctx = s.logg.WithActorID(ctx, input.CollectedBy.String())
		}
		s.logg.Info(ctx, "collection recorded, awaiting reconciliation")
	}

	result := &CashCollectionResult{Transaction: txn}
	result.ReceiptURL = s.generateReceipt(ctx, txn, student)
	return result, nil
}

func (s *Service) findStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load student")
	}
	return student, nil
}

// alreadyRecorded resolves a duplicate callback to the existing row. Duplicate
// delivery is a success from the caller's point of view.
func (s *Service) alreadyRecorded(ctx context.Context, paymentID string) (*VerifyPaymentResult, error) {
	existing, err := s.repo.FindByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recorded payment")
	}
	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, existing.ID.String())
		s.logg.Info(ctx, "duplicate payment callback ignored")
	}
	result := &VerifyPaymentResult{Transaction: existing, AlreadyRecorded: true}
	if existing.ReceiptURL != nil {
		result.ReceiptURL = *existing.ReceiptURL
	}
	return result, nil
}

func (s *Service) generateReceipt(ctx context.Context, txn *models.Transaction, student *models.Student) string {
	if s.receipts == nil {
		return ""
	}
	url, err := s.receipts.GenerateAndAttach(ctx, txn, student)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "receipt generation failed", err)
		}
		return ""
	}
	txn.ReceiptURL = &url
	return url
}

func (s *Service) releaseGuard(ctx context.Context, paymentID string) {
	if err := s.guard.Release(ctx, paymentID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("releasing idempotency marker failed: %v", err))
	}
}
