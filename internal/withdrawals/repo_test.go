package withdrawals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
)

func setupWithdrawalsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  image_url TEXT,
  earned_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	withdrawals := `
CREATE TABLE IF NOT EXISTS withdrawals (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  is_withdrawn INTEGER NOT NULL DEFAULT 0,
  withdrawn_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{users, withdrawals} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM withdrawals")
		db.Exec("DELETE FROM users")
	})

	return db
}

func seedWithdrawal(t *testing.T, db *gorm.DB, mutate func(*models.Withdrawal)) *models.Withdrawal {
	t.Helper()
	withdrawal := &models.Withdrawal{
		ID:          uuid.New(),
		UserID:      "user_seller",
		AmountCents: 1_000,
		CreatedAt:   time.Now().UTC(),
	}
	if mutate != nil {
		mutate(withdrawal)
	}
	require.NoError(t, db.Create(withdrawal).Error)
	return withdrawal
}

func TestWithdrawalsRepo_MarkWithdrawn_GuardedFlip(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	withdrawal := seedWithdrawal(t, db, nil)

	updated, err := repo.MarkWithdrawn(ctx, withdrawal.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.MarkWithdrawn(ctx, withdrawal.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.FindByID(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.True(t, found.IsWithdrawn)
	require.NotNil(t, found.WithdrawnAt)
}

func TestWithdrawalsRepo_List_OldestFirstWithUser(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, db.Create(&models.User{
		ID: "user_seller", Email: "seller@example.com", Name: "Seller",
	}).Error)

	second := seedWithdrawal(t, db, func(w *models.Withdrawal) {
		w.CreatedAt = base.Add(2 * time.Minute)
	})
	first := seedWithdrawal(t, db, func(w *models.Withdrawal) {
		w.CreatedAt = base.Add(time.Minute)
	})

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	require.NotNil(t, items[0].User)
	assert.Equal(t, "seller@example.com", items[0].User.Email)
}

func TestWithdrawalsRepo_SumRequestedByUser(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedWithdrawal(t, db, func(w *models.Withdrawal) { w.AmountCents = 1_500 })
	seedWithdrawal(t, db, func(w *models.Withdrawal) {
		w.AmountCents = 2_500
		w.IsWithdrawn = true
	})
	seedWithdrawal(t, db, func(w *models.Withdrawal) {
		w.UserID = "user_other"
		w.AmountCents = 9_999
	})

	total, err := repo.SumRequestedByUser(ctx, "user_seller")
	require.NoError(t, err)
	assert.Equal(t, int64(4_000), total)

	total, err = repo.SumRequestedByUser(ctx, "user_empty")
	require.NoError(t, err)
	assert.Zero(t, total)
}
