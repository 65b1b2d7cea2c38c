package students

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/pkg/db/models"
)

// Repository reads the student records the fee workflow references. Student
// management is owned by a separate system; this surface is read-only.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	FindByAdmissionNo(ctx context.Context, admissionNo string) (*models.Student, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a students repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) FindByAdmissionNo(ctx context.Context, admissionNo string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("admission_no = ?", admissionNo).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}
