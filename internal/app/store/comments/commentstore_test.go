// internal/app/store/comments/commentstore_test.go
package commentstore_test

import (
	"errors"
	"testing"

	commentstore "github.com/dispoapp/dispo/internal/app/store/comments"
	"github.com/dispoapp/dispo/internal/testutil"
)

func TestAdd_SanitizesAndRequiresText(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := commentstore.New(db)

	if _, err := s.Add(ctx, "e1", "u1", "Jesse", "  "); !errors.Is(err, commentstore.ErrTextRequired) {
		t.Fatalf("blank text: got %v", err)
	}
	if _, err := s.Add(ctx, "e1", "u1", "Jesse", "<script>x</script>"); !errors.Is(err, commentstore.ErrTextRequired) {
		t.Fatalf("markup-only text: got %v", err)
	}

	c, err := s.Add(ctx, "e1", "u1", "Jesse", "see you <b>there</b>!")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if c.Text != "see you there!" {
		t.Errorf("text not sanitized: %q", c.Text)
	}
	if c.AuthorName != "Jesse" {
		t.Errorf("author name: %q", c.AuthorName)
	}
}

func TestListByEvent_OldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := commentstore.New(db)
	for _, body := range []string{"first", "second", "third"} {
		if _, err := s.Add(ctx, "e1", "u1", "Jesse", body); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if _, err := s.Add(ctx, "e2", "u1", "Jesse", "other event"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	cs, err := s.ListByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("ListByEvent failed: %v", err)
	}
	if len(cs) != 3 {
		t.Fatalf("got %d comments, want 3", len(cs))
	}
	want := []string{"first", "second", "third"}
	for i, body := range want {
		if cs[i].Text != body {
			t.Errorf("position %d: got %q, want %q", i, cs[i].Text, body)
		}
	}
}

func TestUpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := commentstore.New(db)
	c, err := s.Add(ctx, "e1", "u1", "Jesse", "original")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.UpdateText(ctx, c.ID, "edited"); err != nil {
		t.Fatalf("UpdateText failed: %v", err)
	}
	got, err := s.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Text != "edited" {
		t.Errorf("text after edit: %q", got.Text)
	}

	if _, err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := s.CountByEvent(ctx, "e1"); n != 0 {
		t.Errorf("count after delete: %d", n)
	}
}

func TestDeleteByEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := commentstore.New(db)
	for i := 0; i < 3; i++ {
		if _, err := s.Add(ctx, "e1", "u1", "Jesse", "hey"); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if _, err := s.Add(ctx, "e2", "u1", "Jesse", "keep me"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	n, err := s.DeleteByEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("DeleteByEvent failed: %v", err)
	}
	if n != 3 {
		t.Errorf("cascade removed %d, want 3", n)
	}
	if remaining, _ := s.CountByEvent(ctx, "e2"); remaining != 1 {
		t.Errorf("other event's comments disturbed: %d", remaining)
	}
}
