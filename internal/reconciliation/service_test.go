package reconciliation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/internal/ledger"
	"github.com/schoolpay/backend/internal/payments"
	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
)

type stubTransactionRepo struct {
	txns          map[uuid.UUID]*models.Transaction
	listed        []models.Transaction
	capturedLimit int
	updates       []enums.TransactionStatus

	// flipAfterRead moves the row to this status after FindByID returns,
	// simulating a competing writer winning the race.
	flipAfterRead enums.TransactionStatus
}

func (s *stubTransactionRepo) WithTx(tx *gorm.DB) payments.Repository { return s }
func (s *stubTransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	return nil
}
func (s *stubTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if txn, ok := s.txns[id]; ok {
		copied := *txn
		if s.flipAfterRead != "" {
			txn.Status = s.flipAfterRead
		}
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubTransactionRepo) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubTransactionRepo) ListByStatus(ctx context.Context, status enums.TransactionStatus, limit int) ([]models.Transaction, error) {
	s.capturedLimit = limit
	return s.listed, nil
}
func (s *stubTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus, verifiedBy *uuid.UUID) error {
	txn, ok := s.txns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if txn.Status != from {
		return payments.ErrStatusChanged
	}
	txn.Status = to
	txn.VerifiedBy = verifiedBy
	s.updates = append(s.updates, to)
	return nil
}
func (s *stubTransactionRepo) AttachReceiptURL(ctx context.Context, id uuid.UUID, url string) error {
	return nil
}

type stubLedger struct {
	credits []ledger.CreditParams
}

func (s *stubLedger) AppendCredit(ctx context.Context, tx *gorm.DB, params ledger.CreditParams) error {
	s.credits = append(s.credits, params)
	return nil
}
func (s *stubLedger) Statement(ctx context.Context, studentID uuid.UUID) (*ledger.Statement, error) {
	return nil, nil
}

type stubRunner struct{}

func (stubRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newServiceFixture(t *testing.T, txns ...*models.Transaction) (*Service, *stubTransactionRepo, *stubLedger) {
	t.Helper()

	repo := &stubTransactionRepo{txns: map[uuid.UUID]*models.Transaction{}}
	for _, txn := range txns {
		repo.txns[txn.ID] = txn
	}
	ledgerStub := &stubLedger{}
	svc, err := NewService(repo, ledgerStub, stubRunner{}, nil, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc, repo, ledgerStub
}

func pendingTransaction() *models.Transaction {
	return &models.Transaction{
		ID:          uuid.New(),
		StudentID:   uuid.New(),
		AmountPaise: 120000,
		Mode:        enums.PaymentModeCash,
		Status:      enums.TransactionStatusPending,
	}
}

func TestVerifyCreditsLedgerAndRecordsActor(t *testing.T) {
	txn := pendingTransaction()
	svc, repo, ledgerStub := newServiceFixture(t, txn)
	actor := uuid.New()

	result, err := svc.Verify(context.Background(), txn.ID, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != enums.TransactionStatusVerified {
		t.Fatalf("expected verified status, got %s", result.Status)
	}
	if result.VerifiedBy == nil || *result.VerifiedBy != actor {
		t.Fatal("verifying actor not recorded")
	}
	if repo.txns[txn.ID].Status != enums.TransactionStatusVerified {
		t.Fatal("status not persisted")
	}
	if len(ledgerStub.credits) != 1 {
		t.Fatalf("expected one ledger credit, got %d", len(ledgerStub.credits))
	}
	credit := ledgerStub.credits[0]
	if credit.AmountPaise != txn.AmountPaise {
		t.Fatalf("ledger credit must match the transaction amount, got %d", credit.AmountPaise)
	}
	if credit.StudentID != txn.StudentID {
		t.Fatal("ledger credit recorded against wrong student")
	}
}

func TestVerifyRequiresActor(t *testing.T) {
	txn := pendingTransaction()
	svc, _, ledgerStub := newServiceFixture(t, txn)

	_, err := svc.Verify(context.Background(), txn.ID, uuid.Nil)
	if err == nil {
		t.Fatal("expected missing actor to be rejected")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if len(ledgerStub.credits) != 0 {
		t.Fatal("no credit may be appended without an actor")
	}
}

func TestVerifyUnknownTransaction(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	_, err := svc.Verify(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected unknown transaction to be rejected")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	for _, status := range []enums.TransactionStatus{
		enums.TransactionStatusVerified,
		enums.TransactionStatusRevoked,
		enums.TransactionStatusSuccess,
	} {
		txn := pendingTransaction()
		txn.Status = status
		svc, repo, ledgerStub := newServiceFixture(t, txn)

		if _, err := svc.Verify(context.Background(), txn.ID, uuid.New()); err == nil {
			t.Fatalf("verify must be rejected for %s", status)
		} else if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected state conflict for %s, got %v", status, err)
		}

		if _, err := svc.Revoke(context.Background(), txn.ID, uuid.New()); err == nil {
			t.Fatalf("revoke must be rejected for %s", status)
		} else if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected state conflict for %s, got %v", status, err)
		}

		if len(repo.updates) != 0 {
			t.Fatalf("no status update may happen for %s", status)
		}
		if len(ledgerStub.credits) != 0 {
			t.Fatalf("no ledger credit may happen for %s", status)
		}
	}
}

func TestConcurrentReconciliationLosesWithStateConflict(t *testing.T) {
	txn := pendingTransaction()
	svc, repo, ledgerStub := newServiceFixture(t, txn)
	// A competing admin commits between this request's status read and its
	// guarded update.
	repo.flipAfterRead = enums.TransactionStatusVerified

	_, err := svc.Revoke(context.Background(), txn.ID, uuid.New())
	if err == nil {
		t.Fatal("expected the late revoke to fail")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.txns[txn.ID].Status != enums.TransactionStatusVerified {
		t.Fatal("terminal status must not be flipped")
	}

	_, err = svc.Verify(context.Background(), txn.ID, uuid.New())
	if err == nil {
		t.Fatal("expected the late verify to fail")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(ledgerStub.credits) != 0 {
		t.Fatal("losing request must not credit the ledger")
	}
}

func TestRevokeLeavesLedgerUntouched(t *testing.T) {
	txn := pendingTransaction()
	svc, repo, ledgerStub := newServiceFixture(t, txn)

	result, err := svc.Revoke(context.Background(), txn.ID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != enums.TransactionStatusRevoked {
		t.Fatalf("expected revoked status, got %s", result.Status)
	}
	if repo.txns[txn.ID].Status != enums.TransactionStatusRevoked {
		t.Fatal("status not persisted")
	}
	if len(ledgerStub.credits) != 0 {
		t.Fatal("revoking must not touch the ledger")
	}
}

func TestListPendingForwardsLimit(t *testing.T) {
	first := pendingTransaction()
	second := pendingTransaction()
	svc, repo, _ := newServiceFixture(t)
	repo.listed = []models.Transaction{*second, *first}

	txns, err := svc.ListPending(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.capturedLimit != 25 {
		t.Fatalf("expected limit 25 forwarded, got %d", repo.capturedLimit)
	}
	if len(txns) != 2 {
		t.Fatalf("expected two transactions, got %d", len(txns))
	}
}
