package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	"github.com/dispoapp/dispo/internal/app/features/users"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/dispoapp/dispo/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	handler := users.NewHandler(db, apierrors.NewErrorLogger(logger), logger)
	return handler, testutil.NewFixtures(t, db)
}

func TestServeMe(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "15550001111", "Jesse")

	req := testutil.NewAuthenticatedRequest("GET", "/api/users/me",
		testutil.PhoneUser(u.ID, u.FullName))
	rec := httptest.NewRecorder()
	handler.ServeMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	var got models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.ID != u.ID || got.FullName != "Jesse" {
		t.Errorf("wrong user returned: %+v", got)
	}
}

func TestServeMe_DeletedAccount(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/api/users/me",
		testutil.PhoneUser("15550009999", "Ghost"))
	rec := httptest.NewRecorder()
	handler.ServeMe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleUpdateMe_PartialPatch(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "15550001111", "Jesse")

	req := testutil.WithUser(
		httptest.NewRequest("PATCH", "/api/users/me", strings.NewReader(`{"bio":"likes maps"}`)),
		testutil.PhoneUser(u.ID, u.FullName))
	rec := httptest.NewRecorder()
	handler.HandleUpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	var got models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if got.Bio != "likes maps" {
		t.Errorf("bio: got %q", got.Bio)
	}
	// Fields absent from the patch keep their values.
	if got.Username != u.Username || got.FullName != u.FullName {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestHandleUpdateMe_BlankUsernameRejected(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "15550001111", "Jesse")

	req := testutil.WithUser(
		httptest.NewRequest("PATCH", "/api/users/me", strings.NewReader(`{"username":"   "}`)),
		testutil.PhoneUser(u.ID, u.FullName))
	rec := httptest.NewRecorder()
	handler.HandleUpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestServeSearch(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	caller := fixtures.CreateUser(ctx, "15550001111", "Jesse")
	fixtures.CreateUser(ctx, "15550002222", "Kim")
	fixtures.CreateUser(ctx, "15550003333", "Lee")

	req := testutil.NewAuthenticatedRequest("GET", "/api/users/search?q=user_1555000",
		testutil.PhoneUser(caller.ID, caller.FullName))
	rec := httptest.NewRecorder()
	handler.ServeSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	var got []models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("results: got %d, want 3", len(got))
	}

	// Missing q is a client error.
	req = testutil.NewAuthenticatedRequest("GET", "/api/users/search",
		testutil.PhoneUser(caller.ID, caller.FullName))
	rec = httptest.NewRecorder()
	handler.ServeSearch(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q: got %d, want 400", rec.Code)
	}
}
