package users

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
)

type stubRepo struct {
	users        map[string]*models.User
	listings     map[string]int64
	chats        map[string]int64
	transactions map[string]int64
	deactivated  []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:        map[string]*models.User{},
		listings:     map[string]int64{},
		chats:        map[string]int64{},
		transactions: map[string]int64{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Upsert(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	delete(s.users, id)
	return nil
}

func (s *stubRepo) CountListingsByOwner(ctx context.Context, ownerID string) (int64, error) {
	return s.listings[ownerID], nil
}

func (s *stubRepo) CountChatsByUser(ctx context.Context, userID string) (int64, error) {
	return s.chats[userID], nil
}

func (s *stubRepo) CountTransactionsByUser(ctx context.Context, userID string) (int64, error) {
	return s.transactions[userID], nil
}

func (s *stubRepo) DeactivateListings(ctx context.Context, ownerID string) (int64, error) {
	s.deactivated = append(s.deactivated, ownerID)
	return s.listings[ownerID], nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T) (Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	svc, err := NewService(repo, stubTxRunner{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestUpsertFromIdentity_NormalizesEmail(t *testing.T) {
	svc, repo := newTestService(t)

	err := svc.UpsertFromIdentity(context.Background(), ProjectionParams{
		ID: "user_1", Email: " Person@Example.COM ", Name: " Person ",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if repo.users["user_1"].Email != "person@example.com" {
		t.Fatalf("email not normalized: %q", repo.users["user_1"].Email)
	}
	if repo.users["user_1"].Name != "Person" {
		t.Fatalf("name not trimmed: %q", repo.users["user_1"].Name)
	}
}

func TestUpsertFromIdentity_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.UpsertFromIdentity(context.Background(), ProjectionParams{Email: "a@b.c"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	err = svc.UpsertFromIdentity(context.Background(), ProjectionParams{ID: "user_1"})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteFromIdentity_HardDeleteWithoutDependencies(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users["user_1"] = &models.User{ID: "user_1", Email: "a@example.com"}

	if err := svc.DeleteFromIdentity(context.Background(), "user_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.users["user_1"]; ok {
		t.Fatal("expected user removed")
	}
	if len(repo.deactivated) != 0 {
		t.Fatal("no listings should have been deactivated")
	}
}

func TestDeleteFromIdentity_DeactivatesWithDependencies(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users["user_1"] = &models.User{ID: "user_1", Email: "a@example.com"}
	repo.listings["user_1"] = 2

	if err := svc.DeleteFromIdentity(context.Background(), "user_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.users["user_1"]; !ok {
		t.Fatal("user row must survive")
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != "user_1" {
		t.Fatalf("expected listings deactivated, got %v", repo.deactivated)
	}
}

func TestDeleteFromIdentity_ChatDependencyKeepsRow(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users["user_1"] = &models.User{ID: "user_1", Email: "a@example.com"}
	repo.chats["user_1"] = 1

	if err := svc.DeleteFromIdentity(context.Background(), "user_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.users["user_1"]; !ok {
		t.Fatal("user row must survive")
	}
}

func TestDeleteFromIdentity_MissingUserIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.DeleteFromIdentity(context.Background(), "user_ghost"); err != nil {
		t.Fatalf("expected replay-safe noop, got %v", err)
	}
}
