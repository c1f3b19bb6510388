package gallery

import (
	"testing"

	"atelier/internal/domain/bilingual"
)

func TestValidate(t *testing.T) {
	item := Item{ID: "g1", Title: bilingual.Text{En: "Vessel"}}
	if err := item.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item.ID = " "
	if err := item.Validate(); err != ErrEmptyID {
		t.Errorf("Validate() = %v, want ErrEmptyID", err)
	}

	item = Item{ID: "g1", Title: bilingual.Text{He: "  ", En: ""}}
	if err := item.Validate(); err != ErrEmptyTitle {
		t.Errorf("Validate() = %v, want ErrEmptyTitle", err)
	}

	// A Hebrew-only title satisfies the requirement.
	item = Item{ID: "g1", Title: bilingual.Text{He: "כד"}}
	if err := item.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestClone_Independent(t *testing.T) {
	item := Item{ID: "g1", Title: bilingual.Text{En: "Vessel"}, ExtraImageURLs: []string{"/a.jpg"}}
	copied := item.Clone()
	copied.ExtraImageURLs[0] = "/b.jpg"
	if item.ExtraImageURLs[0] != "/a.jpg" {
		t.Error("clone shares ExtraImageURLs backing array")
	}
}

func TestCloneAll_PreservesOrder(t *testing.T) {
	items := []Item{{ID: "g1"}, {ID: "g2"}, {ID: "g3"}}
	copied := CloneAll(items)
	for idx, item := range copied {
		if item.ID != items[idx].ID {
			t.Errorf("order changed at %d: got %q want %q", idx, item.ID, items[idx].ID)
		}
	}
	copied[0].ID = "gX"
	if items[0].ID != "g1" {
		t.Error("CloneAll shares backing array")
	}
	if CloneAll(nil) != nil {
		t.Error("CloneAll(nil) should be nil")
	}
}
