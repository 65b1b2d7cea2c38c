package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/pkg/db/models"
)

// Repository persists append-only fee ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.FeeLedgerEntry) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.FeeLedgerEntry, error)
	SumByStudent(ctx context.Context, studentID uuid.UUID) (creditPaise, debitPaise int64, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.FeeLedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.FeeLedgerEntry, error) {
	var entries []models.FeeLedgerEntry
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByStudent(ctx context.Context, studentID uuid.UUID) (int64, int64, error) {
	var row struct {
		Credit int64
		Debit  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.FeeLedgerEntry{}).
		Select("COALESCE(SUM(credit_paise), 0) AS credit, COALESCE(SUM(debit_paise), 0) AS debit").
		Where("student_id = ?", studentID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Credit, row.Debit, nil
}
