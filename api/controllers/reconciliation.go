package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schoolpay/backend/api/middleware"
	"github.com/schoolpay/backend/api/responses"
	"github.com/schoolpay/backend/internal/reconciliation"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
)

// ReconciliationController exposes the admin reconciliation queue.
type ReconciliationController struct {
	service *reconciliation.Service
	logg    *logger.Logger
}

// NewReconciliationController builds the controller.
func NewReconciliationController(service *reconciliation.Service, logg *logger.Logger) *ReconciliationController {
	return &ReconciliationController{service: service, logg: logg}
}

// ListPending returns unreconciled collections, newest first. Accepts an
// optional ?limit= query parameter.
func (c *ReconciliationController) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	txns, err := c.service.ListPending(ctx, limit)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]any{
		"transactions": txns,
		"count":        len(txns),
	})
}

// Verify reconciles a pending collection and credits the fee ledger.
func (c *ReconciliationController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transactionID, actorID, err := c.pathAndActor(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	txn, err := c.service.Verify(ctx, transactionID, actorID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, txn)
}

// Revoke rejects a pending collection.
func (c *ReconciliationController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transactionID, actorID, err := c.pathAndActor(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	txn, err := c.service.Revoke(ctx, transactionID, actorID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, txn)
}

func (c *ReconciliationController) pathAndActor(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "transactionId must be a valid uuid")
	}
	actorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated actor required")
	}
	return transactionID, actorID, nil
}
