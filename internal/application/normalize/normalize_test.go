package normalize

import (
	"errors"
	"reflect"
	"testing"

	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

func TestMember_FlatShape(t *testing.T) {
	raw := RawRecord{
		"id":       "m1",
		"name_he":  "דנה לוי",
		"name_en":  "Dana Levi",
		"role_he":  "קדרית",
		"bio_en":   "Ceramic artist",
		"imageUrl": "/uploads/m1.jpg",
		"category": "ceramics",
	}
	m, err := Member(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := member.Member{
		ID:       "m1",
		Name:     bilingual.Text{He: "דנה לוי", En: "Dana Levi"},
		Role:     bilingual.Text{He: "קדרית"},
		Bio:      bilingual.Text{En: "Ceramic artist"},
		ImageURL: "/uploads/m1.jpg",
		Category: "ceramics",
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("Member() = %+v, want %+v", m, want)
	}
}

func TestMember_NestedShape(t *testing.T) {
	raw := RawRecord{
		"id":   "m1",
		"name": map[string]any{"he": "דנה לוי", "en": "Dana Levi"},
		"role": map[string]any{"en": "Potter"},
	}
	m, err := Member(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name.He != "דנה לוי" || m.Name.En != "Dana Levi" {
		t.Errorf("Name = %+v", m.Name)
	}
	if m.Role.En != "Potter" || m.Role.He != "" {
		t.Errorf("Role = %+v", m.Role)
	}
}

// TestMember_MissingFieldsBecomeEmpty verifies downstream code never needs to
// check field presence.
func TestMember_MissingFieldsBecomeEmpty(t *testing.T) {
	m, err := Member(RawRecord{"id": "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Name.IsZero() || !m.Role.IsZero() || !m.Bio.IsZero() {
		t.Errorf("missing bilingual fields should be empty Texts: %+v", m)
	}
	if m.ImageURL != member.DefaultImageURL {
		t.Errorf("ImageURL = %q, want profile default", m.ImageURL)
	}
}

func TestMember_MissingID(t *testing.T) {
	_, err := Member(RawRecord{"name_en": "Nobody"})
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedRecordError", err)
	}
	if malformed.Kind != "member" || malformed.Field != "id" {
		t.Errorf("error = %+v", malformed)
	}
}

// TestMember_Idempotent verifies normalizing an already-normalized record
// yields an identical entity.
func TestMember_Idempotent(t *testing.T) {
	first, err := Member(RawRecord{
		"id":      "m1",
		"name":    map[string]any{"he": "דנה", "en": "Dana"},
		"role_he": "מורה",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Re-express the canonical entity as a nested raw record.
	canonical := RawRecord{
		"id":       first.ID,
		"name":     map[string]any{"he": first.Name.He, "en": first.Name.En},
		"role":     map[string]any{"he": first.Role.He, "en": first.Role.En},
		"bio":      map[string]any{"he": first.Bio.He, "en": first.Bio.En},
		"imageUrl": first.ImageURL,
		"category": first.Category,
	}
	second, err := Member(canonical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-normalization changed the record:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCourse_LegacyNameKeyAndTeacherIDs(t *testing.T) {
	raw := RawRecord{
		"id":         "c1",
		"name":       map[string]any{"en": "Wheel Throwing"},
		"difficulty": "beginner",
		"teacherIds": []any{"m1", "m2"},
		"subTopics": []any{
			map[string]any{"he": "מרכוז", "en": "Centering"},
			map[string]any{"en": "Pulling walls"},
		},
	}
	c, err := Course(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title.En != "Wheel Throwing" {
		t.Errorf("Title = %+v, want legacy name key honored", c.Title)
	}
	if !reflect.DeepEqual(c.TeacherIDs, []string{"m1", "m2"}) {
		t.Errorf("TeacherIDs = %v", c.TeacherIDs)
	}
	if len(c.SubTopics) != 2 || c.SubTopics[0].He != "מרכוז" {
		t.Errorf("SubTopics = %+v", c.SubTopics)
	}
}

func TestCourse_MissingRelationFieldsAreEmpty(t *testing.T) {
	c, err := Course(RawRecord{"id": "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TeacherIDs == nil || len(c.TeacherIDs) != 0 {
		t.Errorf("TeacherIDs = %#v, want empty non-nil slice", c.TeacherIDs)
	}
	if c.SubTopics == nil || len(c.SubTopics) != 0 {
		t.Errorf("SubTopics = %#v, want empty non-nil slice", c.SubTopics)
	}
}

func TestGalleryItem(t *testing.T) {
	raw := RawRecord{
		"id":               "g1",
		"artistId":         "m1",
		"title_he":         "כד",
		"videoUrl":         "https://example.org/v.mp4",
		"additionalImages": []any{"/a.jpg", "/b.jpg"},
	}
	item, err := GalleryItem(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ArtistID != "m1" || item.Title.He != "כד" {
		t.Errorf("item = %+v", item)
	}
	if item.ImageURL != gallery.DefaultImageURL {
		t.Errorf("ImageURL = %q, want artwork default", item.ImageURL)
	}
	if !reflect.DeepEqual(item.ExtraImageURLs, []string{"/a.jpg", "/b.jpg"}) {
		t.Errorf("ExtraImageURLs = %v", item.ExtraImageURLs)
	}
}

func TestBatch_SkipsMalformed(t *testing.T) {
	raws := []RawRecord{
		{"id": "m1", "name_en": "First"},
		{"name_en": "No ID"},
		{"id": "m3", "name_en": "Third"},
	}
	members, skipped := Members(raws)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(members) != 2 || members[0].ID != "m1" || members[1].ID != "m3" {
		t.Errorf("members = %+v, want m1 and m3 in order", members)
	}
}
