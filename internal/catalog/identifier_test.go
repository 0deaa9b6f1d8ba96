package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

// fakeProber answers existence probes from in-memory sets. Slugs carry
// their owning row ID so the exclusion path can be exercised.
type fakeProber struct {
	publicIDs map[string]bool
	slugs     map[string]uuid.UUID
	err       error

	probes []string
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		publicIDs: make(map[string]bool),
		slugs:     make(map[string]uuid.UUID),
	}
}

func (f *fakeProber) PublicIDExists(publicID string) (bool, error) {
	f.probes = append(f.probes, publicID)
	if f.err != nil {
		return false, f.err
	}
	return f.publicIDs[publicID], nil
}

func (f *fakeProber) SlugExists(slug string, excludeID *uuid.UUID) (bool, error) {
	f.probes = append(f.probes, slug)
	if f.err != nil {
		return false, f.err
	}
	owner, ok := f.slugs[slug]
	if !ok {
		return false, nil
	}
	if excludeID != nil && owner == *excludeID {
		return false, nil
	}
	return true, nil
}

func TestAllocatePublicID(t *testing.T) {
	tests := []struct {
		name  string
		taken []string
		want  string
	}{
		{name: "base free", taken: nil, want: "furniture-chairs-red_chair"},
		{name: "base taken", taken: []string{"furniture-chairs-red_chair"}, want: "furniture-chairs-red_chair_1"},
		{
			name:  "base and first suffix taken",
			taken: []string{"furniture-chairs-red_chair", "furniture-chairs-red_chair_1"},
			want:  "furniture-chairs-red_chair_2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeProber()
			for _, id := range tt.taken {
				fake.publicIDs[id] = true
			}
			a := NewAllocator(fake)

			got, err := a.AllocatePublicID("furniture/chairs", "Red Chair")
			if err != nil {
				t.Fatalf("AllocatePublicID: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllocatePublicIDProbesInOrder(t *testing.T) {
	fake := newFakeProber()
	fake.publicIDs["furniture-chairs-red_chair"] = true
	a := NewAllocator(fake)

	if _, err := a.AllocatePublicID("furniture/chairs", "Red Chair"); err != nil {
		t.Fatalf("AllocatePublicID: %v", err)
	}

	want := []string{"furniture-chairs-red_chair", "furniture-chairs-red_chair_1"}
	if len(fake.probes) != len(want) {
		t.Fatalf("probe count = %d, want %d", len(fake.probes), len(want))
	}
	for i, p := range want {
		if fake.probes[i] != p {
			t.Errorf("probe[%d] = %q, want %q", i, fake.probes[i], p)
		}
	}
}

func TestAllocatePublicIDInvalidName(t *testing.T) {
	a := NewAllocator(newFakeProber())

	for _, name := range []string{"", "   ", "!!!"} {
		if _, err := a.AllocatePublicID("furniture/chairs", name); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("AllocatePublicID(%q) error = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestAllocatePublicIDExhaustsProbeBudget(t *testing.T) {
	fake := newFakeProber()
	fake.publicIDs["furniture-chairs-red_chair"] = true
	for n := 1; n <= maxProbes; n++ {
		fake.publicIDs[fmt.Sprintf("furniture-chairs-red_chair_%d", n)] = true
	}
	a := NewAllocator(fake)

	_, err := a.AllocatePublicID("furniture/chairs", "Red Chair")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestAllocateSlug(t *testing.T) {
	t.Run("base free", func(t *testing.T) {
		a := NewAllocator(newFakeProber())

		got, err := a.AllocateSlug("Red Chair", nil)
		if err != nil {
			t.Fatalf("AllocateSlug: %v", err)
		}
		if got != "red-chair" {
			t.Errorf("got %q, want %q", got, "red-chair")
		}
	})

	t.Run("base taken", func(t *testing.T) {
		fake := newFakeProber()
		fake.slugs["red-chair"] = uuid.New()
		a := NewAllocator(fake)

		got, err := a.AllocateSlug("Red Chair", nil)
		if err != nil {
			t.Fatalf("AllocateSlug: %v", err)
		}
		if got != "red-chair-1" {
			t.Errorf("got %q, want %q", got, "red-chair-1")
		}
	})

	t.Run("own slug excluded on rename", func(t *testing.T) {
		self := uuid.New()
		fake := newFakeProber()
		fake.slugs["red-chair"] = self
		a := NewAllocator(fake)

		got, err := a.AllocateSlug("Red Chair", &self)
		if err != nil {
			t.Fatalf("AllocateSlug: %v", err)
		}
		if got != "red-chair" {
			t.Errorf("got %q, want own slug %q back", got, "red-chair")
		}
	})

	t.Run("someone else holds the slug", func(t *testing.T) {
		self := uuid.New()
		fake := newFakeProber()
		fake.slugs["red-chair"] = uuid.New()
		a := NewAllocator(fake)

		got, err := a.AllocateSlug("Red Chair", &self)
		if err != nil {
			t.Fatalf("AllocateSlug: %v", err)
		}
		if got != "red-chair-1" {
			t.Errorf("got %q, want %q", got, "red-chair-1")
		}
	})
}

func TestAllocateSlugInvalidName(t *testing.T) {
	a := NewAllocator(newFakeProber())

	if _, err := a.AllocateSlug("!!!", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestAllocateProbeFailure(t *testing.T) {
	fake := newFakeProber()
	fake.err = errors.New("connection refused")
	a := NewAllocator(fake)

	if _, err := a.AllocatePublicID("furniture/chairs", "Red Chair"); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("AllocatePublicID error = %v, want ErrStorageUnavailable", err)
	}
	if _, err := a.AllocateSlug("Red Chair", nil); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("AllocateSlug error = %v, want ErrStorageUnavailable", err)
	}
}
