package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
)

// Service appends credits to and reports on per-student fee ledgers.
// Balances are computed at read time as sum(credit) - sum(debit); nothing is
// denormalized into a stored balance column.
type Service interface {
	AppendCredit(ctx context.Context, tx *gorm.DB, params CreditParams) error
	Statement(ctx context.Context, studentID uuid.UUID) (*Statement, error)
}

// CreditParams describes one credit line resulting from a collected payment.
type CreditParams struct {
	StudentID     uuid.UUID
	TransactionID *uuid.UUID
	AmountPaise   int64
	Period        string
	Note          string
}

// Entry is one ledger line with major-unit display amounts.
type Entry struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Credit        string     `json:"credit"`
	Debit         string     `json:"debit"`
	Period        string     `json:"period"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Statement is the per-student ledger view with the computed running balance.
type Statement struct {
	StudentID    uuid.UUID `json:"student_id"`
	Entries      []Entry   `json:"entries"`
	BalancePaise int64     `json:"balance_paise"`
	Balance      string    `json:"balance"`
}

type service struct {
	repo Repository
}

// NewService builds the ledger service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AppendCredit(ctx context.Context, tx *gorm.DB, params CreditParams) error {
	if params.StudentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	if params.AmountPaise <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	period := params.Period
	if period == "" {
		period = time.Now().Format("2006-01")
	}

	entry := &models.FeeLedgerEntry{
		StudentID:     params.StudentID,
		TransactionID: params.TransactionID,
		CreditPaise:   params.AmountPaise,
		Period:        period,
		Note:          params.Note,
	}
	if err := s.repo.WithTx(tx).CreateEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger credit")
	}
	return nil
}

func (s *service) Statement(ctx context.Context, studentID uuid.UUID) (*Statement, error) {
	if studentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}

	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	credit, debit, err := s.repo.SumByStudent(ctx, studentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ledger")
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			ID:            row.ID,
			TransactionID: row.TransactionID,
			Credit:        majorUnits(row.CreditPaise),
			Debit:         majorUnits(row.DebitPaise),
			Period:        row.Period,
			Note:          row.Note,
			CreatedAt:     row.CreatedAt,
		}
	}

	balancePaise := credit - debit
	return &Statement{
		StudentID:    studentID,
		Entries:      entries,
		BalancePaise: balancePaise,
		Balance:      majorUnits(balancePaise),
	}, nil
}

func majorUnits(paise int64) string {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(100)).StringFixed(2)
}
