package indexes_test

import (
	"testing"

	"github.com/dispoapp/dispo/internal/app/system/indexes"
	"github.com/dispoapp/dispo/internal/testutil"
	"go.uber.org/zap"
)

// indexNames returns the names of all indexes on the collection.
func indexNames(t *testing.T, f *testutil.Fixtures, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := f.DB().Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes on %s: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := map[string]bool{}
	for cur.Next(ctx) {
		var idx struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		names[idx.Name] = true
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	for coll, want := range map[string]string{
		"groups": "join_code_unique",
		"events": "invite_code_unique",
		"rsvps":  "event_user_unique",
		"users":  "username_ci_1",
	} {
		if !indexNames(t, fixtures, coll)[want] {
			t.Errorf("%s: index %s missing", coll, want)
		}
	}

	// Second run reuses everything in place.
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll rerun: %v", err)
	}
}
