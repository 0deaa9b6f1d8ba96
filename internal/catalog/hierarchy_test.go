package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Petarainsoft/myroom-catalog/internal/models"
)

// fakeCategories is an in-memory categoryStore. Rows are keyed by
// (name, parent) the way the sibling uniqueness constraint sees them.
type fakeCategories struct {
	rows        map[string]*models.Category
	createCalls int
	lookupErr   error
	createErr   error

	// winners are revealed by FindByNameAndParent only after a Create for
	// the same key has failed, mimicking a concurrent insert landing
	// between the lookup and the insert.
	winners map[string]*models.Category
	tripped map[string]bool
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{
		rows:    make(map[string]*models.Category),
		winners: make(map[string]*models.Category),
		tripped: make(map[string]bool),
	}
}

func catKey(name string, parentID *uuid.UUID) string {
	if parentID == nil {
		return name + "|root"
	}
	return name + "|" + parentID.String()
}

func (f *fakeCategories) FindByNameAndParent(name string, parentID *uuid.UUID) (*models.Category, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	key := catKey(name, parentID)
	if w, ok := f.winners[key]; ok && f.tripped[key] {
		return w, nil
	}
	return f.rows[key], nil
}

func (f *fakeCategories) Create(c *models.Category) (*models.Category, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	key := catKey(c.Name, c.ParentID)
	if _, ok := f.winners[key]; ok {
		f.tripped[key] = true
		return nil, uniqueViolation()
	}
	created := *c
	created.ID = uuid.New()
	f.rows[key] = &created
	return &created, nil
}

func (f *fakeCategories) seed(name string, parentID *uuid.UUID, path string, level int) *models.Category {
	c := &models.Category{ID: uuid.New(), Name: name, ParentID: parentID, Path: path, Level: level}
	f.rows[catKey(name, parentID)] = c
	return c
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "categories_parent_id_name_key"}
}

func TestHierarchyResolverCreatesChain(t *testing.T) {
	fake := newFakeCategories()
	r := &HierarchyResolver{categories: fake}

	got, err := r.Resolve([]string{"Furniture", "Chairs"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Path != "furniture/chairs" {
		t.Errorf("path = %q, want %q", got.Path, "furniture/chairs")
	}
	if got.Level != 2 {
		t.Errorf("level = %d, want 2", got.Level)
	}
	if got.Name != "Chairs" {
		t.Errorf("name = %q, want %q", got.Name, "Chairs")
	}
	if fake.createCalls != 2 {
		t.Errorf("create calls = %d, want 2", fake.createCalls)
	}

	root := fake.rows[catKey("Furniture", nil)]
	if root == nil {
		t.Fatal("root category was not created")
	}
	if root.Path != "furniture" || root.Level != 1 {
		t.Errorf("root = %q level %d, want %q level 1", root.Path, root.Level, "furniture")
	}
	if got.ParentID == nil || *got.ParentID != root.ID {
		t.Error("leaf does not point at the created root")
	}
}

func TestHierarchyResolverReusesExisting(t *testing.T) {
	fake := newFakeCategories()
	root := fake.seed("Furniture", nil, "furniture", 1)
	r := &HierarchyResolver{categories: fake}

	got, err := r.Resolve([]string{"Furniture", "Chairs"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fake.createCalls != 1 {
		t.Errorf("create calls = %d, want 1 (root already present)", fake.createCalls)
	}
	if got.ParentID == nil || *got.ParentID != root.ID {
		t.Error("leaf does not reuse the pre-existing root")
	}

	// Resolving the identical chain again creates nothing.
	again, err := r.Resolve([]string{"Furniture", "Chairs"})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if fake.createCalls != 1 {
		t.Errorf("create calls after second resolve = %d, want 1", fake.createCalls)
	}
	if again.ID != got.ID {
		t.Error("second resolve returned a different leaf")
	}
}

func TestHierarchyResolverSkipsBlankSegments(t *testing.T) {
	fake := newFakeCategories()
	r := &HierarchyResolver{categories: fake}

	got, err := r.Resolve([]string{"  Furniture  ", "", "   ", "Chairs"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Path != "furniture/chairs" {
		t.Errorf("path = %q, want %q", got.Path, "furniture/chairs")
	}
	if got.Level != 2 {
		t.Errorf("level = %d, want 2 (blank segments dropped)", got.Level)
	}
	if got.Name != "Chairs" {
		t.Errorf("name = %q, want trimmed %q", got.Name, "Chairs")
	}
}

func TestHierarchyResolverRejectsEmpty(t *testing.T) {
	r := &HierarchyResolver{categories: newFakeCategories()}

	for _, segments := range [][]string{nil, {}, {""}, {"  ", "\t"}} {
		if _, err := r.Resolve(segments); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidInput", segments, err)
		}
	}
}

func TestHierarchyResolverLostRaceReusesWinner(t *testing.T) {
	fake := newFakeCategories()
	winner := &models.Category{ID: uuid.New(), Name: "Chairs", Path: "furniture/chairs", Level: 2}
	r := &HierarchyResolver{categories: fake}

	// The root resolves normally; the leaf insert collides with a
	// concurrent winner that only becomes visible after the collision.
	root, err := r.Resolve([]string{"Furniture"})
	if err != nil {
		t.Fatalf("seed root: %v", err)
	}
	winner.ParentID = &root.ID
	fake.winners[catKey("Chairs", &root.ID)] = winner

	got, err := r.Resolve([]string{"Furniture", "Chairs"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != winner.ID {
		t.Errorf("resolved ID = %s, want the concurrent winner's %s", got.ID, winner.ID)
	}
}

func TestHierarchyResolverStorageErrors(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		fake := newFakeCategories()
		fake.lookupErr = errors.New("connection refused")
		r := &HierarchyResolver{categories: fake}

		_, err := r.Resolve([]string{"Furniture"})
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("error = %v, want ErrStorageUnavailable", err)
		}
	})

	t.Run("create", func(t *testing.T) {
		fake := newFakeCategories()
		fake.createErr = errors.New("connection refused")
		r := &HierarchyResolver{categories: fake}

		_, err := r.Resolve([]string{"Furniture"})
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("error = %v, want ErrStorageUnavailable", err)
		}
	})
}
