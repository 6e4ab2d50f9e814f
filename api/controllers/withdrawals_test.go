package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/flipearn/flipearn-backend/pkg/db/models"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
)

type stubWithdrawalsService struct {
	requested  []int64
	marked     []uuid.UUID
	requestErr error
	markErr    error
}

func (s *stubWithdrawalsService) Request(ctx context.Context, userID string, amountCents int64) (*models.Withdrawal, error) {
	if s.requestErr != nil {
		return nil, s.requestErr
	}
	s.requested = append(s.requested, amountCents)
	return &models.Withdrawal{ID: uuid.New(), UserID: userID, AmountCents: amountCents}, nil
}

func (s *stubWithdrawalsService) MyWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error) {
	return []models.Withdrawal{{UserID: userID}}, nil
}

func (s *stubWithdrawalsService) AdminList(ctx context.Context) ([]models.Withdrawal, error) {
	return nil, nil
}

func (s *stubWithdrawalsService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, id)
	return nil
}

func TestRequestWithdrawal_Success(t *testing.T) {
	svc := &stubWithdrawalsService{}
	handler := RequestWithdrawal(svc, testLogger())

	req := authedRequest(http.MethodPost, "/api/withdrawal", `{"amount_cents":2500}`, enums.RoleUser)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.requested) != 1 || svc.requested[0] != 2500 {
		t.Fatalf("amount not forwarded: %v", svc.requested)
	}
}

func TestRequestWithdrawal_NonPositiveAmount(t *testing.T) {
	svc := &stubWithdrawalsService{}
	handler := RequestWithdrawal(svc, testLogger())

	req := authedRequest(http.MethodPost, "/api/withdrawal", `{"amount_cents":0}`, enums.RoleUser)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRequestWithdrawal_BalanceExceededSurfaces(t *testing.T) {
	svc := &stubWithdrawalsService{
		requestErr: pkgerrors.New(pkgerrors.CodeStateConflict, "amount exceeds available balance"),
	}
	handler := RequestWithdrawal(svc, testLogger())

	req := authedRequest(http.MethodPost, "/api/withdrawal", `{"amount_cents":999999}`, enums.RoleUser)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestMyWithdrawals_RequiresAuth(t *testing.T) {
	svc := &stubWithdrawalsService{}
	handler := MyWithdrawals(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/withdrawal/mine", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
