// Package normalize converts raw content-store records into the canonical
// domain entities. Records migrated from the legacy site arrive in two
// shapes: flat language-suffixed fields (name_he / name_en) or nested
// objects (name: {he, en}). All shape detection lives here so nothing
// downstream ever sniffs record layouts.
package normalize

import (
	"fmt"
	"strings"

	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/course"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// RawRecord is one undecoded content-store document.
type RawRecord map[string]any

// MalformedRecordError reports a record that cannot be normalized at all.
// Callers should skip the record and keep rendering the page.
type MalformedRecordError struct {
	Kind  string
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: missing required field %q", e.Kind, e.Field)
}

// Member normalizes a raw member record.
// POST: All bilingual fields are present (possibly empty), ImageURL falls
// back to the profile default; returns MalformedRecordError when id is missing
func Member(raw RawRecord) (member.Member, error) {
	id := stringField(raw, "id")
	if id == "" {
		return member.Member{}, &MalformedRecordError{Kind: "member", Field: "id"}
	}
	return member.Member{
		ID:       id,
		Name:     bilingualField(raw, "name"),
		Role:     bilingualField(raw, "role"),
		Bio:      bilingualField(raw, "bio"),
		ImageURL: urlField(raw, "imageUrl", member.DefaultImageURL),
		Category: stringField(raw, "category"),
	}, nil
}

// Course normalizes a raw course record.
// POST: TeacherIDs and SubTopics are never nil; returns MalformedRecordError
// when id is missing
func Course(raw RawRecord) (course.Course, error) {
	id := stringField(raw, "id")
	if id == "" {
		return course.Course{}, &MalformedRecordError{Kind: "course", Field: "id"}
	}
	title := bilingualField(raw, "title")
	if title.IsZero() {
		// Legacy course rows used "name" before the title rename.
		title = bilingualField(raw, "name")
	}
	return course.Course{
		ID:          id,
		Title:       title,
		Description: bilingualField(raw, "description"),
		Difficulty:  stringField(raw, "difficulty"),
		Duration:    bilingualField(raw, "duration"),
		TeacherIDs:  stringList(raw, "teacherIds"),
		SubTopics:   bilingualList(raw, "subTopics"),
	}, nil
}

// GalleryItem normalizes a raw gallery record.
// POST: ImageURL falls back to the artwork default; returns
// MalformedRecordError when id is missing
func GalleryItem(raw RawRecord) (gallery.Item, error) {
	id := stringField(raw, "id")
	if id == "" {
		return gallery.Item{}, &MalformedRecordError{Kind: "gallery item", Field: "id"}
	}
	return gallery.Item{
		ID:             id,
		ArtistID:       stringField(raw, "artistId"),
		Title:          bilingualField(raw, "title"),
		Description:    bilingualField(raw, "description"),
		ImageURL:       urlField(raw, "imageUrl", gallery.DefaultImageURL),
		VideoURL:       stringField(raw, "videoUrl"),
		ExtraImageURLs: stringList(raw, "additionalImages"),
	}, nil
}

// Members normalizes a batch, skipping malformed records.
// POST: Input order preserved; returns the skipped count
func Members(raws []RawRecord) ([]member.Member, int) {
	out := make([]member.Member, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		m, err := Member(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out, skipped
}

// Courses normalizes a batch, skipping malformed records.
func Courses(raws []RawRecord) ([]course.Course, int) {
	out := make([]course.Course, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		c, err := Course(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, c)
	}
	return out, skipped
}

// GalleryItems normalizes a batch, skipping malformed records.
func GalleryItems(raws []RawRecord) ([]gallery.Item, int) {
	out := make([]gallery.Item, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		item, err := GalleryItem(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, skipped
}

// bilingualField reads a bilingual value in either shape.
// Nested takes precedence when both are somehow present.
func bilingualField(raw RawRecord, key string) bilingual.Text {
	if nested, ok := raw[key].(map[string]any); ok {
		return bilingual.Text{
			He: asString(nested["he"]),
			En: asString(nested["en"]),
		}
	}
	return bilingual.Text{
		He: stringField(raw, key+"_he"),
		En: stringField(raw, key+"_en"),
	}
}

// bilingualList reads an ordered list of bilingual values. List elements are
// always nested objects; flat-suffixed lists never occurred in the legacy data.
func bilingualList(raw RawRecord, key string) []bilingual.Text {
	items, ok := raw[key].([]any)
	if !ok {
		return []bilingual.Text{}
	}
	out := make([]bilingual.Text, 0, len(items))
	for _, item := range items {
		if nested, ok := item.(map[string]any); ok {
			out = append(out, bilingual.Text{
				He: asString(nested["he"]),
				En: asString(nested["en"]),
			})
		}
	}
	return out
}

func stringList(raw RawRecord, key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringField(raw RawRecord, key string) string {
	return asString(raw[key])
}

func urlField(raw RawRecord, key, fallback string) string {
	value := strings.TrimSpace(stringField(raw, key))
	if value == "" {
		return fallback
	}
	return value
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
