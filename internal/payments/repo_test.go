package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/schoolpay/backend/pkg/db"
	"github.com/schoolpay/backend/pkg/db/models"
	"github.com/schoolpay/backend/pkg/enums"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL,
  amount_paise INTEGER NOT NULL CHECK (amount_paise > 0),
  currency TEXT NOT NULL DEFAULT 'INR',
  mode TEXT NOT NULL DEFAULT 'cash',
  status TEXT NOT NULL DEFAULT 'pending',
  gateway_order_id TEXT,
  gateway_payment_id TEXT,
  fee_heads TEXT,
  description TEXT,
  receipt_url TEXT,
  verified_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_transactions_gateway_payment_id
  ON transactions (gateway_payment_id) WHERE gateway_payment_id IS NOT NULL;`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func newTestTransaction(studentID uuid.UUID, paymentID string) *models.Transaction {
	txn := &models.Transaction{
		StudentID:   studentID,
		AmountPaise: 100000,
		Currency:    "INR",
		Mode:        enums.PaymentModeOnline,
		Status:      enums.TransactionStatusSuccess,
	}
	if paymentID != "" {
		txn.GatewayPaymentID = &paymentID
	}
	return txn
}

func TestRepositoryRejectsDuplicateGatewayPaymentID(t *testing.T) {
	conn := setupTransactionsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	studentID := uuid.New()

	require.NoError(t, repo.Create(ctx, newTestTransaction(studentID, "pay_once")))

	err := repo.Create(ctx, newTestTransaction(studentID, "pay_once"))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, UniqGatewayPaymentIDConstraint),
		"duplicate gateway payment id must surface as a unique violation")

	found, err := repo.FindByGatewayPaymentID(ctx, "pay_once")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), found.AmountPaise)
}

func TestRepositoryAllowsMultipleRowsWithoutPaymentID(t *testing.T) {
	conn := setupTransactionsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	studentID := uuid.New()

	first := newTestTransaction(studentID, "")
	first.Mode = enums.PaymentModeCash
	first.Status = enums.TransactionStatusPending
	second := newTestTransaction(studentID, "")
	second.Mode = enums.PaymentModeCheque
	second.Status = enums.TransactionStatusPending

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
}

func TestRepositoryListByStatusNewestFirst(t *testing.T) {
	conn := setupTransactionsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	studentID := uuid.New()

	now := time.Now().UTC()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		txn := newTestTransaction(studentID, "")
		txn.Mode = enums.PaymentModeCash
		txn.Status = enums.TransactionStatusPending
		txn.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, txn))
		ids = append(ids, txn.ID)
	}
	verified := newTestTransaction(studentID, "")
	verified.Status = enums.TransactionStatusVerified
	require.NoError(t, repo.Create(ctx, verified))

	pending, err := repo.ListByStatus(ctx, enums.TransactionStatusPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, ids[2], pending[0].ID)
	assert.Equal(t, ids[1], pending[1].ID)
	assert.Equal(t, ids[0], pending[2].ID)

	limited, err := repo.ListByStatus(ctx, enums.TransactionStatusPending, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRepositoryUpdateStatusAndReceiptURL(t *testing.T) {
	conn := setupTransactionsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	txn := newTestTransaction(uuid.New(), "")
	txn.Mode = enums.PaymentModeCash
	txn.Status = enums.TransactionStatusPending
	require.NoError(t, repo.Create(ctx, txn))

	actor := uuid.New()
	require.NoError(t, repo.UpdateStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusVerified, &actor))
	require.NoError(t, repo.AttachReceiptURL(ctx, txn.ID, "https://storage.googleapis.com/bucket/receipts/x.pdf"))

	found, err := repo.FindByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusVerified, found.Status)
	require.NotNil(t, found.VerifiedBy)
	assert.Equal(t, actor, *found.VerifiedBy)
	require.NotNil(t, found.ReceiptURL)

	err = repo.UpdateStatus(ctx, uuid.New(), enums.TransactionStatusPending, enums.TransactionStatusVerified, &actor)
	assert.ErrorIs(t, err, ErrStatusChanged)
}

func TestRepositoryUpdateStatusGuardsCurrentStatus(t *testing.T) {
	conn := setupTransactionsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	txn := newTestTransaction(uuid.New(), "")
	txn.Mode = enums.PaymentModeCash
	txn.Status = enums.TransactionStatusPending
	require.NoError(t, repo.Create(ctx, txn))

	actor := uuid.New()
	require.NoError(t, repo.UpdateStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusVerified, &actor))

	// A second reconciliation that raced past the status read must not flip
	// the now-terminal row.
	other := uuid.New()
	err := repo.UpdateStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusRevoked, &other)
	assert.ErrorIs(t, err, ErrStatusChanged)

	found, err := repo.FindByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusVerified, found.Status)
	require.NotNil(t, found.VerifiedBy)
	assert.Equal(t, actor, *found.VerifiedBy)
}
