package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/backend/pkg/enums"
)

// FeeHead is one named line item contributing to a transaction's total.
type FeeHead struct {
	Label       string `json:"label"`
	AmountPaise int64  `json:"amount_paise"`
}

// FeeHeads is the structured itemization stored as jsonb. It is the source of
// truth; the transaction's Description column is only a derived display cache.
type FeeHeads []FeeHead

// Value implements driver.Valuer.
func (f FeeHeads) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *FeeHeads) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported fee heads column type %T", value)
	}
}

// TotalPaise sums the itemized amounts.
func (f FeeHeads) TotalPaise() int64 {
	var total int64
	for _, head := range f {
		total += head.AmountPaise
	}
	return total
}

// Flatten renders the display cache, e.g. "Tuition Fee: 1000.00, Late Fee: 200.00".
func (f FeeHeads) Flatten() string {
	parts := make([]string, len(f))
	for i, head := range f {
		major := decimal.NewFromInt(head.AmountPaise).Div(decimal.NewFromInt(100))
		parts[i] = fmt.Sprintf("%s: %s", head.Label, major.StringFixed(2))
	}
	return strings.Join(parts, ", ")
}

// Transaction records one payment attempt. Rows are never deleted; they form
// the financial audit trail.
type Transaction struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StudentID        uuid.UUID               `gorm:"column:student_id;type:uuid;not null;index"`
	AmountPaise      int64                   `gorm:"column:amount_paise;not null"`
	Currency         string                  `gorm:"column:currency;not null;default:'INR'"`
	Mode             enums.PaymentMode       `gorm:"column:mode;not null;default:'cash'"`
	Status           enums.TransactionStatus `gorm:"column:status;not null;default:'pending';index"`
	GatewayOrderID   *string                 `gorm:"column:gateway_order_id;index"`
	GatewayPaymentID *string                 `gorm:"column:gateway_payment_id;uniqueIndex:uniq_transactions_gateway_payment_id"`
	FeeHeads         FeeHeads                `gorm:"column:fee_heads;type:jsonb"`
	Description      string                  `gorm:"column:description"`
	ReceiptURL       *string                 `gorm:"column:receipt_url"`
	VerifiedBy       *uuid.UUID              `gorm:"column:verified_by;type:uuid"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
