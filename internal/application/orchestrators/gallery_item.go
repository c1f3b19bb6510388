package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"atelier/internal/application/normalize"
	"atelier/internal/domain/gallery"
)

// Gallery editor errors
var (
	ErrAuthenticationRequired = errors.New("authentication required for gallery changes")
)

// ValidationError reports a gallery field that failed local validation.
// No store call is made when this is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ImageUpload carries an image file selected by the member. The actual
// storage of the bytes is delegated to the content store's upload path.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// TokenSource supplies a fresh auth token for the acting member.
type TokenSource interface {
	AuthToken(ctx context.Context) (string, error)
}

// ContentStoreForGallery defines the store interface needed by the gallery editor.
type ContentStoreForGallery interface {
	CreateGalleryItem(ctx context.Context, artistID string, fields gallery.ItemFields, image *ImageUpload, token string) (normalize.RawRecord, error)
	UpdateGalleryItem(ctx context.Context, itemID string, fields gallery.ItemFields, image *ImageUpload, token string) (normalize.RawRecord, error)
	DeleteGalleryItem(ctx context.Context, itemID string, token string) error
}

// CreateGalleryItemInput carries input for the create orchestrator.
type CreateGalleryItemInput struct {
	ArtistID string
	Fields   gallery.ItemFields
	Image    *ImageUpload
}

// GalleryEditorDeps holds dependencies shared by the gallery orchestrators.
type GalleryEditorDeps struct {
	ContentStore ContentStoreForGallery
	Tokens       TokenSource
}

// ExecuteCreateGalleryItem validates locally, then creates the item and its
// image through the content store.
// PRE: input.ArtistID is the acting member's id
// POST: Returns the normalized created item; no store call on validation failure
func ExecuteCreateGalleryItem(ctx context.Context, input CreateGalleryItemInput, deps GalleryEditorDeps) (gallery.Item, error) {
	if !input.Fields.HasTitle() {
		return gallery.Item{}, &ValidationError{Field: "title", Reason: "cannot be empty"}
	}
	if input.Image == nil {
		return gallery.Item{}, &ValidationError{Field: "image", Reason: "an image file is required"}
	}

	token, err := deps.Tokens.AuthToken(ctx)
	if err != nil || token == "" {
		return gallery.Item{}, ErrAuthenticationRequired
	}

	raw, err := deps.ContentStore.CreateGalleryItem(ctx, input.ArtistID, input.Fields, input.Image, token)
	if err != nil {
		return gallery.Item{}, fmt.Errorf("create gallery item: %w", err)
	}
	item, err := normalize.GalleryItem(raw)
	if err != nil {
		return gallery.Item{}, err
	}
	slog.Info("gallery_event", "event", "created", "item_id", item.ID, "artist_id", input.ArtistID)
	return item, nil
}

// UpdateGalleryItemInput carries input for the update orchestrator.
type UpdateGalleryItemInput struct {
	ItemID string
	Fields gallery.ItemFields
	Image  *ImageUpload // optional: nil keeps the existing image
}

// ExecuteUpdateGalleryItem validates locally, then updates the item.
// POST: Returns the normalized updated item; no store call on validation failure
func ExecuteUpdateGalleryItem(ctx context.Context, input UpdateGalleryItemInput, deps GalleryEditorDeps) (gallery.Item, error) {
	if !input.Fields.HasTitle() {
		return gallery.Item{}, &ValidationError{Field: "title", Reason: "cannot be empty"}
	}

	token, err := deps.Tokens.AuthToken(ctx)
	if err != nil || token == "" {
		return gallery.Item{}, ErrAuthenticationRequired
	}

	raw, err := deps.ContentStore.UpdateGalleryItem(ctx, input.ItemID, input.Fields, input.Image, token)
	if err != nil {
		return gallery.Item{}, fmt.Errorf("update gallery item: %w", err)
	}
	item, err := normalize.GalleryItem(raw)
	if err != nil {
		return gallery.Item{}, err
	}
	slog.Info("gallery_event", "event", "updated", "item_id", item.ID)
	return item, nil
}

// DeleteGalleryItemInput carries input for the delete orchestrator.
// Confirm models the interactive confirmation; the core assumes no
// particular UI.
type DeleteGalleryItemInput struct {
	ItemID  string
	Confirm func() bool
}

// ExecuteDeleteGalleryItem deletes an item after confirmation.
// POST: Returns (false, nil) when the confirmation declines — no store call
// is made and the item remains
func ExecuteDeleteGalleryItem(ctx context.Context, input DeleteGalleryItemInput, deps GalleryEditorDeps) (bool, error) {
	if input.Confirm == nil || !input.Confirm() {
		return false, nil
	}

	token, err := deps.Tokens.AuthToken(ctx)
	if err != nil || token == "" {
		return false, ErrAuthenticationRequired
	}

	if err := deps.ContentStore.DeleteGalleryItem(ctx, input.ItemID, token); err != nil {
		return false, fmt.Errorf("delete gallery item: %w", err)
	}
	slog.Info("gallery_event", "event", "deleted", "item_id", input.ItemID)
	return true, nil
}
