package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flipearn/flipearn-backend/api/middleware"
	"github.com/flipearn/flipearn-backend/internal/listings"
	"github.com/flipearn/flipearn-backend/pkg/auth"
	"github.com/flipearn/flipearn-backend/pkg/db/models"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

type stubListingsService struct {
	created       *listings.CreateParams
	submitted     *listings.SubmitCredentialParams
	deleted       []uuid.UUID
	createErr     error
	submitErr     error
	softDeleteErr error
}

func (s *stubListingsService) Create(ctx context.Context, params listings.CreateParams) (*models.Listing, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &params
	return &models.Listing{ID: uuid.New(), OwnerID: params.Actor.UserID, Title: params.Title}, nil
}

func (s *stubListingsService) SubmitCredential(ctx context.Context, params listings.SubmitCredentialParams) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.submitted = &params
	return nil
}

func (s *stubListingsService) Verify(ctx context.Context, actor listings.Actor, listingID uuid.UUID) error {
	return nil
}

func (s *stubListingsService) RotateCredential(ctx context.Context, params listings.RotateCredentialParams) error {
	return nil
}

func (s *stubListingsService) ChangeStatus(ctx context.Context, actor listings.Actor, listingID uuid.UUID, status enums.ListingStatus) error {
	return nil
}

func (s *stubListingsService) SoftDelete(ctx context.Context, actor listings.Actor, listingID uuid.UUID) error {
	if s.softDeleteErr != nil {
		return s.softDeleteErr
	}
	s.deleted = append(s.deleted, listingID)
	return nil
}

func (s *stubListingsService) MyListings(ctx context.Context, ownerID string) ([]models.Listing, error) {
	return []models.Listing{{OwnerID: ownerID}}, nil
}

func (s *stubListingsService) ListAll(ctx context.Context, params pagination.Params) (*listings.ListingPage, error) {
	return &listings.ListingPage{}, nil
}

func (s *stubListingsService) UnverifiedListings(ctx context.Context, params pagination.Params) (*listings.ListingPage, error) {
	return &listings.ListingPage{}, nil
}

func (s *stubListingsService) UnchangedListings(ctx context.Context, params pagination.Params) (*listings.ListingPage, error) {
	return &listings.ListingPage{}, nil
}

func (s *stubListingsService) GetCredential(ctx context.Context, listingID uuid.UUID) (*models.Credential, error) {
	return &models.Credential{ListingID: listingID}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target, body string, role enums.Role) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithPrincipal(req.Context(), auth.Principal{
		UserID: "user_1",
		Email:  "user@example.com",
		Role:   role,
	})
	return req.WithContext(ctx)
}

func withListingParam(req *http.Request, listingID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("listingId", listingID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateListing_Success(t *testing.T) {
	svc := &stubListingsService{}
	handler := CreateListing(svc, testLogger())

	body := `{"platform":"instagram","username":"acct","title":"IG account","price_cents":5000}`
	req := authedRequest(http.MethodPost, "/api/listing", body, enums.RoleUser)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.created == nil || svc.created.Actor.UserID != "user_1" {
		t.Fatalf("expected create call with actor, got %+v", svc.created)
	}
	if svc.created.PriceCents != 5000 {
		t.Fatalf("price not forwarded: %d", svc.created.PriceCents)
	}
}

func TestCreateListing_RejectsUnknownFields(t *testing.T) {
	svc := &stubListingsService{}
	handler := CreateListing(svc, testLogger())

	body := `{"platform":"instagram","username":"acct","title":"t","price_cents":1,"bogus":true}`
	req := authedRequest(http.MethodPost, "/api/listing", body, enums.RoleUser)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateListing_MissingAuthContext(t *testing.T) {
	svc := &stubListingsService{}
	handler := CreateListing(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/listing", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSubmitCredential_ForwardsFields(t *testing.T) {
	svc := &stubListingsService{}
	handler := SubmitCredential(svc, testLogger())
	listingID := uuid.New()

	body := `{"fields":[{"name":"email","value":"a@b.c"},{"name":"password","value":"hunter2"}]}`
	req := withListingParam(authedRequest(http.MethodPost, "/api/listing/"+listingID.String()+"/credential", body, enums.RoleUser), listingID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.submitted == nil || svc.submitted.ListingID != listingID {
		t.Fatalf("expected submit call, got %+v", svc.submitted)
	}
	if len(svc.submitted.Fields) != 2 || svc.submitted.Fields[1].Value != "hunter2" {
		t.Fatalf("fields not forwarded: %+v", svc.submitted.Fields)
	}
}

func TestSubmitCredential_EmptyFieldsRejected(t *testing.T) {
	svc := &stubListingsService{}
	handler := SubmitCredential(svc, testLogger())
	listingID := uuid.New()

	req := withListingParam(authedRequest(http.MethodPost, "/api/listing/"+listingID.String()+"/credential", `{"fields":[]}`, enums.RoleUser), listingID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteListing_InvalidID(t *testing.T) {
	svc := &stubListingsService{}
	handler := DeleteListing(svc, testLogger())

	req := withListingParam(authedRequest(http.MethodDelete, "/api/listing/nope", "", enums.RoleUser), "nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteListing_ServiceErrorSurfaces(t *testing.T) {
	svc := &stubListingsService{softDeleteErr: pkgerrors.New(pkgerrors.CodeStateConflict, "listing already deleted")}
	handler := DeleteListing(svc, testLogger())
	listingID := uuid.New()

	req := withListingParam(authedRequest(http.MethodDelete, "/api/listing/"+listingID.String(), "", enums.RoleUser), listingID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
}
