package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// FeeHeadInput is one itemized fee line as submitted by the office or the
// checkout page. Amounts arrive in major units (rupees).
type FeeHeadInput struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// ToModel converts major-unit input into the stored minor-unit head.
func (f FeeHeadInput) ToModel() models.FeeHead {
	return models.FeeHead{
		Label:       f.Label,
		AmountPaise: f.Amount.Mul(hundred).IntPart(),
	}
}

func toFeeHeads(inputs []FeeHeadInput) models.FeeHeads {
	heads := make(models.FeeHeads, len(inputs))
	for i, input := range inputs {
		heads[i] = input.ToModel()
	}
	return heads
}

// CreateOrderInput asks the gateway for an order before checkout opens.
type CreateOrderInput struct {
	StudentID uuid.UUID
	FeeHeads  []FeeHeadInput
}

// CreateOrderResult carries what the checkout widget needs.
type CreateOrderResult struct {
	OrderID     string `json:"order_id"`
	KeyID       string `json:"key_id"`
	AmountPaise int64  `json:"amount_paise"`
	Currency    string `json:"currency"`
}

// VerifyPaymentInput is the checkout callback payload. ClientAmount is what
// the browser claims was paid; it is recorded nowhere and exists only so the
// handler can log discrepancies.
type VerifyPaymentInput struct {
	OrderCreationID string
	PaymentID       string
	Signature       string
	StudentID       uuid.UUID
	FeeHeads        []FeeHeadInput
	Description     string
	ClientAmount    decimal.Decimal
}

// VerifyPaymentResult reports the recorded transaction.
type VerifyPaymentResult struct {
	Transaction     *models.Transaction
	ReceiptURL      string
	AlreadyRecorded bool
}

// CashCollectionInput records an over-the-counter collection.
type CashCollectionInput struct {
	StudentID   uuid.UUID
	Mode        enums.PaymentMode
	FeeHeads    []FeeHeadInput
	CollectedBy uuid.UUID
}

// CashCollectionResult reports the pending transaction and best-effort receipt.
type CashCollectionResult struct {
	Transaction *models.Transaction
	ReceiptURL  string
}
