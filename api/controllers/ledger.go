package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schoolpay/backend/api/responses"
	"github.com/schoolpay/backend/internal/ledger"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
)

// LedgerController serves per-student fee ledger statements.
type LedgerController struct {
	service ledger.Service
	logg    *logger.Logger
}

// NewLedgerController builds the controller.
func NewLedgerController(service ledger.Service, logg *logger.Logger) *LedgerController {
	return &LedgerController{service: service, logg: logg}
}

// Statement returns all ledger entries for a student plus the balance computed
// from them.
func (c *LedgerController) Statement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, err := uuid.Parse(chi.URLParam(r, "studentId"))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "studentId must be a valid uuid"))
		return
	}

	statement, err := c.service.Statement(ctx, studentID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, statement)
}
