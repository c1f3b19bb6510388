package gallery

import (
	"errors"
	"strings"

	"atelier/internal/domain/bilingual"
)

// DefaultImageURL is served when an item has no image of its own.
const DefaultImageURL = "/assets/defaults/artwork.svg"

// Domain errors
var (
	ErrEmptyID    = errors.New("gallery item id cannot be empty")
	ErrEmptyTitle = errors.New("gallery item title cannot be empty")
)

// Item is one artwork in the community gallery.
// ArtistID may be empty for legacy items whose artist is unknown;
// such items belong to no member and are not editable.
type Item struct {
	ID             string
	ArtistID       string
	Title          bilingual.Text
	Description    bilingual.Text
	ImageURL       string
	VideoURL       string
	ExtraImageURLs []string
}

// Validate checks identity and the title requirement.
// POST: Returns nil if valid, error otherwise
func (i *Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(i.Title.He) == "" && strings.TrimSpace(i.Title.En) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// ItemFields is the caller-editable subset of an item, used by create and
// update operations.
type ItemFields struct {
	Title       bilingual.Text
	Description bilingual.Text
	VideoURL    string
}

// HasTitle reports whether either language variant of the title is non-blank.
func (f ItemFields) HasTitle() bool {
	return strings.TrimSpace(f.Title.He) != "" || strings.TrimSpace(f.Title.En) != ""
}

// Clone returns a deep copy of the item.
// POST: Mutating the copy (including ExtraImageURLs) never affects the receiver
func (i Item) Clone() Item {
	copied := i
	copied.ExtraImageURLs = append([]string(nil), i.ExtraImageURLs...)
	return copied
}

// CloneAll deep-copies a slice of items, preserving order.
func CloneAll(items []Item) []Item {
	if items == nil {
		return nil
	}
	copied := make([]Item, len(items))
	for idx, item := range items {
		copied[idx] = item.Clone()
	}
	return copied
}
