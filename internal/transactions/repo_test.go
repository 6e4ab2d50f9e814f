package transactions

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
	"github.com/flipearn/flipearn-backend/pkg/enums"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
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
	listings := `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  platform TEXT NOT NULL,
  username TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  is_credential_submitted INTEGER NOT NULL DEFAULT 0,
  is_credential_verified INTEGER NOT NULL DEFAULT 0,
  is_credential_changed INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  is_paid INTEGER NOT NULL DEFAULT 0,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{users, listings, transactions} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM transactions")
		db.Exec("DELETE FROM listings")
		db.Exec("DELETE FROM users")
	})

	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, email string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Email: email, Name: "Test " + id}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTransaction(t *testing.T, db *gorm.DB, mutate func(*models.Transaction)) *models.Transaction {
	t.Helper()
	transaction := &models.Transaction{
		ID:          uuid.New(),
		ListingID:   uuid.New(),
		UserID:      "user_buyer",
		OwnerID:     "user_seller",
		AmountCents: 5_000,
		CreatedAt:   time.Now().UTC(),
	}
	if mutate != nil {
		mutate(transaction)
	}
	require.NoError(t, db.Create(transaction).Error)
	return transaction
}

func TestTransactionsRepo_MarkPaid_GuardedFlip(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	transaction := seedTransaction(t, db, nil)
	paidAt := time.Now().UTC()

	updated, err := repo.MarkPaid(ctx, transaction.ID, paidAt)
	require.NoError(t, err)
	assert.True(t, updated)

	// second delivery must not flip anything
	updated, err = repo.MarkPaid(ctx, transaction.ID, paidAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.FindByID(ctx, transaction.ID)
	require.NoError(t, err)
	assert.True(t, found.IsPaid)
	require.NotNil(t, found.PaidAt)
}

func TestTransactionsRepo_ListPaid_NewestFirst(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	seedTransaction(t, db, func(tr *models.Transaction) {
		tr.CreatedAt = base
	})
	older := seedTransaction(t, db, func(tr *models.Transaction) {
		tr.IsPaid = true
		tr.CreatedAt = base.Add(time.Minute)
	})
	newer := seedTransaction(t, db, func(tr *models.Transaction) {
		tr.IsPaid = true
		tr.CreatedAt = base.Add(2 * time.Minute)
	})

	items, next, err := repo.ListPaid(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
	assert.Nil(t, next)
}

func TestTransactionsRepo_FindUsersByIDs(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedUser(t, db, "user_a", "a@example.com")
	seedUser(t, db, "user_b", "b@example.com")
	seedUser(t, db, "user_c", "c@example.com")

	users, err := repo.FindUsersByIDs(ctx, []string{"user_a", "user_c"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.FindUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestTransactionsRepo_CreditSellerEarnings(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedUser(t, db, "user_seller", "seller@example.com")

	require.NoError(t, repo.CreditSellerEarnings(ctx, "user_seller", 2_500))
	require.NoError(t, repo.CreditSellerEarnings(ctx, "user_seller", 1_500))

	user, err := repo.FindUserByID(ctx, "user_seller")
	require.NoError(t, err)
	assert.Equal(t, int64(4_000), user.EarnedCents)

	err = repo.CreditSellerEarnings(ctx, "user_missing", 100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransactionsRepo_DashboardAggregates(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedUser(t, db, "user_seller", "seller@example.com")
	require.NoError(t, db.Create(&models.Listing{
		ID: uuid.New(), OwnerID: "user_seller", Platform: "instagram",
		Username: "a", Title: "one", PriceCents: 100, Status: enums.ListingStatusActive,
	}).Error)
	require.NoError(t, db.Create(&models.Listing{
		ID: uuid.New(), OwnerID: "user_seller", Platform: "instagram",
		Username: "b", Title: "two", PriceCents: 100, Status: enums.ListingStatusSold,
	}).Error)
	seedTransaction(t, db, func(tr *models.Transaction) {
		tr.IsPaid = true
		tr.AmountCents = 3_000
	})
	seedTransaction(t, db, func(tr *models.Transaction) {
		tr.AmountCents = 9_999
	})

	total, err := repo.CountListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	active, err := repo.CountListingsByStatus(ctx, enums.ListingStatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	revenue, err := repo.SumPaidCents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000), revenue)

	recent, err := repo.RecentListings(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	require.NotNil(t, recent[0].Owner)
	assert.Equal(t, "seller@example.com", recent[0].Owner.Email)
}

func TestTransactionsRepo_SumPaidCents_Empty(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)

	revenue, err := repo.SumPaidCents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, revenue)
}
