// Package content persists the site's member, course, and gallery
// records. Records are stored as the JSON documents the legacy
// migration produced; decoding their heterogeneous shapes is left to
// the normalize package.
package content

import (
	"context"
	"errors"

	"atelier/internal/application/normalize"
	"atelier/internal/application/orchestrators"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// Store errors
var (
	ErrNotFound      = errors.New("content record not found")
	ErrForbidden     = errors.New("not allowed to modify this record")
	ErrTokenRejected = errors.New("edit token rejected")
)

// TokenVerifier checks an edit token and returns the member it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (memberID string, err error)
}

// Store persists site content. Write operations take the caller's edit
// token and enforce that the token holder owns the record being changed.
type Store interface {
	FetchMember(ctx context.Context, id string) (normalize.RawRecord, error)
	FetchAllMembers(ctx context.Context) ([]normalize.RawRecord, error)
	FetchAllCourses(ctx context.Context) ([]normalize.RawRecord, error)
	FetchAllGalleryItems(ctx context.Context) ([]normalize.RawRecord, error)

	UpdateMember(ctx context.Context, id string, fields member.ProfileFields, token string) error
	AddCourseTeacher(ctx context.Context, courseID, memberID, token string) error
	RemoveCourseTeacher(ctx context.Context, courseID, memberID, token string) error

	CreateGalleryItem(ctx context.Context, artistID string, fields gallery.ItemFields, image *orchestrators.ImageUpload, token string) (normalize.RawRecord, error)
	UpdateGalleryItem(ctx context.Context, itemID string, fields gallery.ItemFields, image *orchestrators.ImageUpload, token string) (normalize.RawRecord, error)
	DeleteGalleryItem(ctx context.Context, itemID string, token string) error
}
