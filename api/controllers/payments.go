package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/backend/api/middleware"
	"github.com/schoolpay/backend/api/responses"
	"github.com/schoolpay/backend/api/validators"
	"github.com/schoolpay/backend/internal/payments"
	"github.com/schoolpay/backend/pkg/enums"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
)

// PaymentsController exposes the payment recording endpoints.
type PaymentsController struct {
	service *payments.Service
	logg    *logger.Logger
}

// NewPaymentsController builds the controller.
func NewPaymentsController(service *payments.Service, logg *logger.Logger) *PaymentsController {
	return &PaymentsController{service: service, logg: logg}
}

type feeHeadPayload struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

func toFeeHeadInputs(payloads []feeHeadPayload) []payments.FeeHeadInput {
	inputs := make([]payments.FeeHeadInput, len(payloads))
	for i, p := range payloads {
		inputs[i] = payments.FeeHeadInput{Label: p.Label, Amount: p.Amount}
	}
	return inputs
}

type createOrderRequest struct {
	StudentID string           `json:"student_id" validate:"required,uuid"`
	FeeHeads  []feeHeadPayload `json:"fee_heads" validate:"required,min=1,dive"`
}

// CreateOrder registers a gateway order ahead of checkout.
func (c *PaymentsController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "student_id must be a valid uuid"))
		return
	}

	result, err := c.service.CreateGatewayOrder(ctx, payments.CreateOrderInput{
		StudentID: studentID,
		FeeHeads:  toFeeHeadInputs(req.FeeHeads),
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, result)
}

type verifyPaymentRequest struct {
	OrderCreationID   string           `json:"order_creation_id" validate:"required"`
	RazorpayPaymentID string           `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string           `json:"razorpay_signature" validate:"required"`
	StudentID         string           `json:"student_id" validate:"required,uuid"`
	FeeHeads          []feeHeadPayload `json:"fee_heads" validate:"omitempty,dive"`
	Description       string           `json:"description"`
	Amount            decimal.Decimal  `json:"amount"`
}

type verifyPaymentResponse struct {
	Msg           string `json:"msg"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ReceiptURL    string `json:"receipt_url,omitempty"`
}

// Verify is the public checkout callback. A tampered signature yields 400
// before anything is written.
func (c *PaymentsController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyPaymentRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "student_id must be a valid uuid"))
		return
	}

	result, err := c.service.VerifyOnlinePayment(ctx, payments.VerifyPaymentInput{
		OrderCreationID: req.OrderCreationID,
		PaymentID:       req.RazorpayPaymentID,
		Signature:       req.RazorpaySignature,
		StudentID:       studentID,
		FeeHeads:        toFeeHeadInputs(req.FeeHeads),
		Description:     req.Description,
		ClientAmount:    req.Amount,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	msg := "payment recorded"
	if result.AlreadyRecorded {
		msg = "payment already recorded"
	}
	responses.WriteSuccess(w, verifyPaymentResponse{
		Msg:           msg,
		TransactionID: result.Transaction.ID.String(),
		Status:        result.Transaction.Status.String(),
		ReceiptURL:    result.ReceiptURL,
	})
}

type cashCollectionRequest struct {
	StudentID string           `json:"student_id" validate:"required,uuid"`
	Mode      string           `json:"mode" validate:"required,oneof=cash cheque"`
	FeeHeads  []feeHeadPayload `json:"fee_heads" validate:"required,min=1,dive"`
}

type cashCollectionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	AmountPaise   int64  `json:"amount_paise"`
	ReceiptURL    string `json:"receipt_url,omitempty"`
}

// RecordCash records an over-the-counter collection as pending.
func (c *PaymentsController) RecordCash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cashCollectionRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "student_id must be a valid uuid"))
		return
	}
	mode, err := enums.ParsePaymentMode(req.Mode)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode"))
		return
	}

	collectedBy, _ := uuid.Parse(middleware.UserIDFromContext(ctx))

	result, err := c.service.RecordCashCollection(ctx, payments.CashCollectionInput{
		StudentID:   studentID,
		Mode:        mode,
		FeeHeads:    toFeeHeadInputs(req.FeeHeads),
		CollectedBy: collectedBy,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, cashCollectionResponse{
		TransactionID: result.Transaction.ID.String(),
		Status:        result.Transaction.Status.String(),
		AmountPaise:   result.Transaction.AmountPaise,
		ReceiptURL:    result.ReceiptURL,
	})
}
