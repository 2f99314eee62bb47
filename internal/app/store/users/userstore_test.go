// internal/app/store/users/userstore_test.go
package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dispoapp/dispo/internal/app/store/users"
	"github.com/dispoapp/dispo/internal/testutil"
)

func TestLogin_CreatesAccountFromPhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := userstore.New(db)
	u, created, err := s.Login(ctx, "+1 (555) 000-1111", "Jesse Quick")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !created {
		t.Error("expected a fresh account")
	}
	if u.ID != "15550001111" {
		t.Errorf("id: got %q, want normalized digits", u.ID)
	}
	if u.Phone != u.ID {
		t.Errorf("phone should equal id, got %q", u.Phone)
	}
	if u.FullName != "Jesse Quick" {
		t.Errorf("full name: got %q", u.FullName)
	}
	if u.Username == "" {
		t.Error("expected a default username")
	}
}

func TestLogin_ReturnsExistingAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := userstore.New(db)
	first, _, err := s.Login(ctx, "15550001111", "Jesse Quick")
	if err != nil {
		t.Fatalf("first Login failed: %v", err)
	}

	// Same digits, different formatting and a different claimed name:
	// the stored account wins.
	again, created, err := s.Login(ctx, "+1-555-000-1111", "Someone Else")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	if created {
		t.Error("second login should not create")
	}
	if again.ID != first.ID || again.FullName != "Jesse Quick" {
		t.Errorf("existing account not returned: %+v", again)
	}
}

func TestLogin_RejectsBadPhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := userstore.New(db)
	for _, bad := range []string{"", "12345", "not a phone", "12345678901234567890"} {
		if _, _, err := s.Login(ctx, bad, "X"); !errors.Is(err, userstore.ErrInvalidPhone) {
			t.Errorf("Login(%q): expected ErrInvalidPhone, got %v", bad, err)
		}
	}
}

func TestUpdateProfile_PartialPatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := userstore.New(db)
	u, _, err := s.Login(ctx, "15550001111", "Jesse Quick")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	bio := "always <b>late</b>"
	if err := s.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{Bio: &bio}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := s.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Bio != "always late" {
		t.Errorf("bio not sanitized: %q", got.Bio)
	}
	if got.FullName != "Jesse Quick" {
		t.Errorf("untouched field changed: %q", got.FullName)
	}
}

func TestSearchByUsernamePrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateUser(ctx, "15550001111", "Anna")
	fx.CreateUser(ctx, "15550002222", "Bert")
	fx.CreateUser(ctx, "15550003333", "Cleo")

	s := userstore.New(db)
	got, err := s.SearchByUsernamePrefix(ctx, "user_1555000", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d users, want 3", len(got))
	}

	got, err = s.SearchByUsernamePrefix(ctx, "user_15550002", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "15550002222" {
		t.Fatalf("narrow prefix: %+v", got)
	}
}

func TestGroupMirror(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := userstore.New(db)
	u, _, err := s.Login(ctx, "15550001111", "Jesse Quick")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := s.AddGroup(ctx, u.ID, "g1"); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if err := s.AddGroup(ctx, u.ID, "g1"); err != nil {
		t.Fatalf("AddGroup (repeat) failed: %v", err)
	}
	if err := s.AddGroup(ctx, u.ID, "g2"); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	got, _ := s.GetByID(ctx, u.ID)
	if len(got.GroupIDs) != 2 {
		t.Fatalf("group ids: %v", got.GroupIDs)
	}

	if err := s.RemoveGroupFromAll(ctx, "g1"); err != nil {
		t.Fatalf("RemoveGroupFromAll failed: %v", err)
	}
	got, _ = s.GetByID(ctx, u.ID)
	if len(got.GroupIDs) != 1 || got.GroupIDs[0] != "g2" {
		t.Fatalf("group ids after removal: %v", got.GroupIDs)
	}
}
