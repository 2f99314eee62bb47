package groups_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	"github.com/dispoapp/dispo/internal/app/features/groups"
	"github.com/dispoapp/dispo/internal/domain/models"
	"github.com/dispoapp/dispo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*groups.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	handler := groups.NewHandler(db, apierrors.NewErrorLogger(logger), logger)
	return handler, testutil.NewFixtures(t, db)
}

func jsonRequest(method, target, body string, u testutil.TestUser) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return testutil.WithUser(req, u)
}

func TestHandleCreate(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "15550001111", "Jesse")

	req := jsonRequest("POST", "/api/groups",
		`{"name":"Ski Crew","description":"powder chasers"}`,
		testutil.PhoneUser(owner.ID, owner.FullName))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d, body %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var g models.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if g.OwnerID != owner.ID || !g.IsMember(owner.ID) {
		t.Errorf("owner not set up: %+v", g)
	}
	if g.JoinCode == "" {
		t.Error("no join code on created group")
	}

	// Membership mirrored onto the user document.
	var u models.User
	if err := fixtures.DB().Collection("users").FindOne(ctx, bson.M{"_id": owner.ID}).Decode(&u); err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(u.GroupIDs) != 1 || u.GroupIDs[0] != g.ID {
		t.Errorf("group not mirrored: %v", u.GroupIDs)
	}
}

func TestHandleCreate_RequiresName(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "15550001111", "Jesse")

	req := jsonRequest("POST", "/api/groups", `{"name":""}`,
		testutil.PhoneUser(owner.ID, owner.FullName))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleJoin_ByCode(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "15550001111", "Jesse")
	joiner := fixtures.CreateUser(ctx, "15550002222", "Kim")
	g := fixtures.CreateGroup(ctx, "Book Club", owner.ID)

	req := jsonRequest("POST", "/api/groups/join",
		`{"join_code":"`+strings.ToLower(g.JoinCode)+`"}`,
		testutil.PhoneUser(joiner.ID, joiner.FullName))
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}

	var got models.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !got.IsMember(joiner.ID) {
		t.Errorf("joiner not a member: %v", got.MemberIDs)
	}
}

func TestHandleJoin_UnknownCode(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	joiner := fixtures.CreateUser(ctx, "15550002222", "Kim")

	req := jsonRequest("POST", "/api/groups/join", `{"join_code":"XXXXXX"}`,
		testutil.PhoneUser(joiner.ID, joiner.FullName))
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleDelete_OwnerOnly(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "15550001111", "Jesse")
	member := fixtures.CreateUser(ctx, "15550002222", "Kim")
	g := fixtures.CreateGroup(ctx, "Book Club", owner.ID, member.ID)

	req := testutil.WithChiURLParam(
		jsonRequest("DELETE", "/api/groups/"+g.ID, "", testutil.PhoneUser(member.ID, member.FullName)),
		"id", g.ID)
	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member delete: got %d, want 403", rec.Code)
	}

	req = testutil.WithChiURLParam(
		jsonRequest("DELETE", "/api/groups/"+g.ID, "", testutil.PhoneUser(owner.ID, owner.FullName)),
		"id", g.ID)
	rec = httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: got %d, body %s", rec.Code, rec.Body)
	}

	// Group gone, memberships stripped from both users.
	n, _ := fixtures.DB().Collection("groups").CountDocuments(ctx, bson.M{"_id": g.ID})
	if n != 0 {
		t.Error("group document survived delete")
	}
	var u models.User
	for _, id := range []string{owner.ID, member.ID} {
		if err := fixtures.DB().Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
			t.Fatalf("reload user %s: %v", id, err)
		}
		for _, gid := range u.GroupIDs {
			if gid == g.ID {
				t.Errorf("user %s still carries deleted group", id)
			}
		}
	}
}

func TestServeGroup_MemberOnly(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "15550001111", "Jesse")
	outsider := fixtures.CreateUser(ctx, "15550002222", "Kim")
	g := fixtures.CreateGroup(ctx, "Book Club", owner.ID)

	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/api/groups/"+g.ID, testutil.PhoneUser(outsider.ID, outsider.FullName)),
		"id", g.ID)
	rec := httptest.NewRecorder()
	handler.ServeGroup(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider view: got %d, want 403", rec.Code)
	}
}
