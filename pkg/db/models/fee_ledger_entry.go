package models

import (
	"time"

	"github.com/google/uuid"
)

// FeeLedgerEntry is one append-only line in a student's running ledger.
// Exactly one of CreditPaise/DebitPaise is non-zero per row; the balance is
// computed at read time, never stored.
type FeeLedgerEntry struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StudentID     uuid.UUID  `gorm:"column:student_id;type:uuid;not null;index"`
	TransactionID *uuid.UUID `gorm:"column:transaction_id;type:uuid"`
	CreditPaise   int64      `gorm:"column:credit_paise;not null;default:0"`
	DebitPaise    int64      `gorm:"column:debit_paise;not null;default:0"`
	Period        string     `gorm:"column:period;not null;index"`
	Note          string     `gorm:"column:note"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName maps the model onto the fee_ledger table.
func (FeeLedgerEntry) TableName() string {
	return "fee_ledger"
}
