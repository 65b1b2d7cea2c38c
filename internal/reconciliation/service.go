package reconciliation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/internal/ledger"
	"github.com/schoolpay/backend/internal/payments"
	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
	"github.com/schoolpay/backend/pkg/metrics"
)

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the admin reconciliation queue over pending collections.
// Transitions are pending to verified or pending to revoked; verified,
// revoked and success rows never move again.
type Service struct {
	repo     payments.Repository
	ledger   ledger.Service
	runner   TxRunner
	logg     *logger.Logger
	payments *metrics.PaymentMetrics
}

// NewService wires the reconciliation queue.
func NewService(repo payments.Repository, ledgerSvc ledger.Service, runner TxRunner, logg *logger.Logger, paymentMetrics *metrics.PaymentMetrics) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:     repo,
		ledger:   ledgerSvc,
		runner:   runner,
		logg:     logg,
		payments: paymentMetrics,
	}, nil
}

// ListPending returns unreconciled collections, newest first. A non-positive
// limit returns the whole queue.
func (s *Service) ListPending(ctx context.Context, limit int) ([]models.Transaction, error) {
	txns, err := s.repo.ListByStatus(ctx, enums.TransactionStatusPending, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending transactions")
	}
	return txns, nil
}

// Verify marks a pending collection as reconciled by actorID and credits the
// student's fee ledger. Status flip and ledger append commit together.
func (s *Service) Verify(ctx context.Context, transactionID, actorID uuid.UUID) (*models.Transaction, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "verifying actor is required")
	}

	txn, err := s.loadPending(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		scoped := s.repo.WithTx(tx)
		if err := scoped.UpdateStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusVerified, &actorID); err != nil {
			return err
		}
		txnID := txn.ID
		return s.ledger.AppendCredit(ctx, tx, ledger.CreditParams{
			StudentID:     txn.StudentID,
			TransactionID: &txnID,
			AmountPaise:   txn.AmountPaise,
			Note:          "reconciled " + txn.Mode.String() + " collection",
		})
	})
	if err != nil {
		if errors.Is(err, payments.ErrStatusChanged) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "transaction was reconciled concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify transaction")
	}

	txn.Status = enums.TransactionStatusVerified
	txn.VerifiedBy = &actorID
	s.payments.IncRecorded(txn.Mode.String(), txn.Status.String())
	s.payments.IncLedgerAppend()

	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, txn.ID.String())
		ctx = s.logg.WithActorID(ctx, actorID.String())
		s.logg.Info(ctx, "transaction verified")
	}
	return txn, nil
}

// Revoke rejects a pending collection. No ledger entry is touched because
// pending rows were never credited.
func (s *Service) Revoke(ctx context.Context, transactionID, actorID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.loadPending(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var verifiedBy *uuid.UUID
	if actorID != uuid.Nil {
		verifiedBy = &actorID
	}
	if err := s.repo.UpdateStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusRevoked, verifiedBy); err != nil {
		if errors.Is(err, payments.ErrStatusChanged) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "transaction was reconciled concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke transaction")
	}

	txn.Status = enums.TransactionStatusRevoked
	txn.VerifiedBy = verifiedBy
	s.payments.IncRecorded(txn.Mode.String(), txn.Status.String())

	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, txn.ID.String())
		if actorID != uuid.Nil {
			ctx = s.logg.WithActorID(ctx, actorID.String())
		}
		s.logg.Warn(ctx, "transaction revoked")
	}
	return txn, nil
}

func (s *Service) loadPending(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"transaction is "+txn.Status.String()+" and cannot be reconciled")
	}
	return txn, nil
}
