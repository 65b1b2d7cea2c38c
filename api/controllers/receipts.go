package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/api/responses"
	"github.com/schoolpay/backend/internal/payments"
	"github.com/schoolpay/backend/internal/receipts"
	"github.com/schoolpay/backend/internal/students"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
)

// ReceiptsController regenerates receipts for recorded transactions. The
// object key is derived from the transaction id, so regeneration overwrites in
// place.
type ReceiptsController struct {
	transactions payments.Repository
	students     students.Repository
	service      *receipts.Service
	logg         *logger.Logger
}

// NewReceiptsController builds the controller.
func NewReceiptsController(transactions payments.Repository, studentRepo students.Repository, service *receipts.Service, logg *logger.Logger) *ReceiptsController {
	return &ReceiptsController{
		transactions: transactions,
		students:     studentRepo,
		service:      service,
		logg:         logg,
	}
}

// Regenerate re-renders and re-uploads the receipt for a transaction.
func (c *ReceiptsController) Regenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionId"))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transactionId must be a valid uuid"))
		return
	}

	txn, err := c.transactions.FindByID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found"))
			return
		}
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction"))
		return
	}

	student, err := c.students.FindByID(ctx, txn.StudentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "student not found"))
			return
		}
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load student"))
		return
	}

	url, err := c.service.GenerateAndAttach(ctx, txn, student)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{
		"transaction_id": txn.ID.String(),
		"receipt_url":    url,
	})
}
