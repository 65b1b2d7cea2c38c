package receipts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/schoolpay/backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
	"github.com/schoolpay/backend/pkg/metrics"
)

const receiptContentType = "application/pdf"

// Storage is the object-store surface receipts are persisted through.
type Storage interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

type receiptAttacher interface {
	AttachReceiptURL(ctx context.Context, id uuid.UUID, url string) error
}

// Service renders receipts and persists them to durable object storage.
// Receipt generation is best effort: the recorded transaction is authoritative
// and is never rolled back because a receipt could not be produced.
type Service struct {
	renderer *Renderer
	storage  Storage
	repo     receiptAttacher
	logg     *logger.Logger
	payments *metrics.PaymentMetrics
}

// NewService builds the receipt service.
func NewService(renderer *Renderer, storage Storage, repo receiptAttacher, logg *logger.Logger, payments *metrics.PaymentMetrics) (*Service, error) {
	if renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "receipt renderer required")
	}
	if storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "receipt storage required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction repository required")
	}
	return &Service{
		renderer: renderer,
		storage:  storage,
		repo:     repo,
		logg:     logg,
		payments: payments,
	}, nil
}

// ObjectName derives the storage key. Keying by transaction id makes
// regeneration an idempotent overwrite.
func ObjectName(txn *models.Transaction) string {
	return fmt.Sprintf("receipts/%s.pdf", txn.ID)
}

// GenerateAndAttach renders the receipt, uploads it, and stores the resulting
// URL on the transaction. Returns the URL, or an error the caller is expected
// to log rather than fail the payment on.
func (s *Service) GenerateAndAttach(ctx context.Context, txn *models.Transaction, student *models.Student) (string, error) {
	data, err := s.renderer.Render(txn, student)
	if err != nil {
		s.payments.IncReceiptFailure()
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt")
	}

	url, err := s.storage.Upload(ctx, ObjectName(txn), data, receiptContentType)
	if err != nil {
		s.payments.IncReceiptFailure()
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload receipt")
	}

	if err := s.repo.AttachReceiptURL(ctx, txn.ID, url); err != nil {
		s.payments.IncReceiptFailure()
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach receipt url")
	}

	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, txn.ID.String())
		s.logg.Info(ctx, "receipt generated")
	}
	return url, nil
}
