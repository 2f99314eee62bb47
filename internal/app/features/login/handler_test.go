package login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	"github.com/dispoapp/dispo/internal/app/features/login"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/dispoapp/dispo/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *login.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sessions, err := auth.NewSessionManager(strings.Repeat("k", 32), "dispo_test", "", false, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return login.NewHandler(db, sessions, apierrors.NewErrorLogger(logger), logger)
}

func postLogin(t *testing.T, handler *login.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, req)
	return rec
}

func TestHandleLogin_CreatesAccount(t *testing.T) {
	handler := newTestHandler(t)

	rec := postLogin(t, handler, `{"phone_number":"+1 (555) 000-1111","full_name":"Jesse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}

	var u models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if u.ID != "15550001111" {
		t.Errorf("id: got %q, want digits-only phone", u.ID)
	}
	if got := rec.Header().Get("Set-Cookie"); got == "" {
		t.Error("no session cookie set")
	}
}

func TestHandleLogin_ExistingAccountWins(t *testing.T) {
	handler := newTestHandler(t)

	if rec := postLogin(t, handler, `{"phone_number":"15550001111","full_name":"Jesse"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first login: got %d, body %s", rec.Code, rec.Body)
	}

	// Same number, different claimed name: the stored account is returned
	// untouched with a 200.
	rec := postLogin(t, handler, `{"phone_number":"1-555-000-1111","full_name":"Impostor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second login: got %d, body %s", rec.Code, rec.Body)
	}
	var u models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if u.FullName != "Jesse" {
		t.Errorf("full name: got %q, want the original account's", u.FullName)
	}
}

func TestHandleLogin_RejectsBadPhone(t *testing.T) {
	handler := newTestHandler(t)

	for _, body := range []string{
		`{"phone_number":"","full_name":"Jesse"}`,
		`{"phone_number":"not a number","full_name":"Jesse"}`,
		`{"phone_number":"123","full_name":"Jesse"}`,
	} {
		if rec := postLogin(t, handler, body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", body, rec.Code)
		}
	}
}
