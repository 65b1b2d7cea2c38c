package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
)

// UniqGatewayPaymentIDConstraint is the unique index guarding against a
// gateway payment being recorded twice.
const UniqGatewayPaymentIDConstraint = "uniq_transactions_gateway_payment_id"

// ErrStatusChanged is returned when a guarded status transition matched no
// row: the transaction left the expected status between read and write.
var ErrStatusChanged = errors.New("transaction status changed concurrently")

// Repository persists transactions. Rows are insert/update only; transactions
// are never deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error)
	ListByStatus(ctx context.Context, status enums.TransactionStatus, limit int) ([]models.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus, verifiedBy *uuid.UUID) error
	AttachReceiptURL(ctx context.Context, id uuid.UUID, url string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transactions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("gateway_payment_id = ?", paymentID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.TransactionStatus, limit int) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var txns []models.Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// UpdateStatus flips the status only when the row still holds the expected
// one. The predicate on the current status is what enforces monotonic
// transitions under concurrent reconciliation.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus, verifiedBy *uuid.UUID) error {
	updates := map[string]any{"status": to}
	if verifiedBy != nil {
		updates["verified_by"] = *verifiedBy
	}
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *repository) AttachReceiptURL(ctx context.Context, id uuid.UUID, url string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("receipt_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
