package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"atelier/internal/adapters/blob"
	"atelier/internal/adapters/storage"
	"atelier/internal/application/orchestrators"
	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// staticVerifier accepts any token as the fixed member id.
type staticVerifier string

func (v staticVerifier) Verify(string) (string, error) { return string(v), nil }

// failVerifier rejects every token.
type failVerifier struct{}

func (failVerifier) Verify(string) (string, error) {
	return "", errors.New("bad signature")
}

func openTestStore(t *testing.T, verifier TokenVerifier) (*SQLStore, *sql.DB, *blob.MemoryStore) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db, storage.DriverSQLite); err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	blobs := blob.NewMemoryStore("")
	return NewSQLStore(db, storage.DriverSQLite, verifier, blobs), db, blobs
}

func insertDoc(t *testing.T, db *sql.DB, table, id string, position int, doc map[string]any) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	var query string
	if table == "gallery_item" {
		artist, _ := doc["artistId"].(string)
		query = "INSERT INTO gallery_item (id, artist_id, position, data) VALUES (?, ?, ?, ?)"
		_, err = db.Exec(query, id, artist, position, string(data))
	} else {
		query = "INSERT INTO " + table + " (id, position, data) VALUES (?, ?, ?)"
		_, err = db.Exec(query, id, position, string(data))
	}
	if err != nil {
		t.Fatalf("insert %s doc: %v", table, err)
	}
}

func readDoc(t *testing.T, db *sql.DB, table, id string) map[string]any {
	t.Helper()
	var data string
	if err := db.QueryRow("SELECT data FROM "+table+" WHERE id = ?", id).Scan(&data); err != nil {
		t.Fatalf("read %s doc: %v", table, err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatalf("decode %s doc: %v", table, err)
	}
	return doc
}

func TestFetchMember(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "member", "mem-1", 1, map[string]any{
		"name_he": "דנה",
		"name_en": "Dana",
	})

	doc, err := store.FetchMember(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("FetchMember() error = %v", err)
	}
	if doc["id"] != "mem-1" {
		t.Errorf("id = %v, want mem-1", doc["id"])
	}
	if doc["name_en"] != "Dana" {
		t.Errorf("name_en = %v, want Dana", doc["name_en"])
	}
}

func TestFetchMemberNotFound(t *testing.T) {
	store, _, _ := openTestStore(t, staticVerifier("mem-1"))
	if _, err := store.FetchMember(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchAllOrder(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "member", "b", 2, map[string]any{})
	insertDoc(t, db, "member", "a", 1, map[string]any{})

	docs, err := store.FetchAllMembers(context.Background())
	if err != nil {
		t.Fatalf("FetchAllMembers() error = %v", err)
	}
	if len(docs) != 2 || docs[0]["id"] != "a" || docs[1]["id"] != "b" {
		t.Errorf("order wrong: %v", docs)
	}
}

func TestFetchAllSkipsCorruptDoc(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "member", "good", 1, map[string]any{})
	if _, err := db.Exec("INSERT INTO member (id, position, data) VALUES (?, ?, ?)", "bad", 2, "{not json"); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	docs, err := store.FetchAllMembers(context.Background())
	if err != nil {
		t.Fatalf("FetchAllMembers() error = %v", err)
	}
	if len(docs) != 1 || docs[0]["id"] != "good" {
		t.Errorf("docs = %v, want only the good row", docs)
	}
}

func TestUpdateMemberRewritesDocument(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "member", "mem-1", 1, map[string]any{
		"name_he":  "דנה",
		"name_en":  "Dana",
		"imageUrl": "/images/dana.jpg",
		"category": "teachers",
	})

	fields := member.ProfileFields{
		Name: bilingual.Text{He: "דנה לוי", En: "Dana Levi"},
		Role: bilingual.Text{He: "מורה", En: "Teacher"},
		Bio:  bilingual.Text{He: "ביוגרפיה", En: "Biography"},
	}
	if err := store.UpdateMember(context.Background(), "mem-1", fields, "token"); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}

	doc := readDoc(t, db, "member", "mem-1")
	name, ok := doc["name"].(map[string]any)
	if !ok || name["en"] != "Dana Levi" {
		t.Errorf("name = %v, want nested with en=Dana Levi", doc["name"])
	}
	if _, stale := doc["name_he"]; stale {
		t.Error("legacy flat name_he key survived the rewrite")
	}
	if doc["imageUrl"] != "/images/dana.jpg" || doc["category"] != "teachers" {
		t.Errorf("untouched keys changed: %v", doc)
	}
}

func TestUpdateMemberForbidden(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-2"))
	insertDoc(t, db, "member", "mem-1", 1, map[string]any{})

	err := store.UpdateMember(context.Background(), "mem-1", member.ProfileFields{}, "token")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestUpdateMemberTokenRejected(t *testing.T) {
	store, db, _ := openTestStore(t, failVerifier{})
	insertDoc(t, db, "member", "mem-1", 1, map[string]any{})

	err := store.UpdateMember(context.Background(), "mem-1", member.ProfileFields{}, "token")
	if !errors.Is(err, ErrTokenRejected) {
		t.Errorf("error = %v, want ErrTokenRejected", err)
	}
}

func TestAddCourseTeacherIdempotent(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "course", "c1", 1, map[string]any{
		"teacherIds": []any{"mem-9"},
	})

	ctx := context.Background()
	if err := store.AddCourseTeacher(ctx, "c1", "mem-1", "token"); err != nil {
		t.Fatalf("AddCourseTeacher() error = %v", err)
	}
	if err := store.AddCourseTeacher(ctx, "c1", "mem-1", "token"); err != nil {
		t.Fatalf("second AddCourseTeacher() error = %v", err)
	}

	doc := readDoc(t, db, "course", "c1")
	ids, _ := doc["teacherIds"].([]any)
	if len(ids) != 2 {
		t.Errorf("teacherIds = %v, want [mem-9 mem-1]", ids)
	}
}

func TestRemoveCourseTeacher(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "course", "c1", 1, map[string]any{
		"teacherIds": []any{"mem-1", "mem-9"},
	})

	ctx := context.Background()
	if err := store.RemoveCourseTeacher(ctx, "c1", "mem-1", "token"); err != nil {
		t.Fatalf("RemoveCourseTeacher() error = %v", err)
	}
	// Removing again is a no-op.
	if err := store.RemoveCourseTeacher(ctx, "c1", "mem-1", "token"); err != nil {
		t.Fatalf("second RemoveCourseTeacher() error = %v", err)
	}

	doc := readDoc(t, db, "course", "c1")
	ids, _ := doc["teacherIds"].([]any)
	if len(ids) != 1 || ids[0] != "mem-9" {
		t.Errorf("teacherIds = %v, want [mem-9]", ids)
	}
}

func TestCourseTeacherWrongMember(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-2"))
	insertDoc(t, db, "course", "c1", 1, map[string]any{})

	err := store.AddCourseTeacher(context.Background(), "c1", "mem-1", "token")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestCreateGalleryItem(t *testing.T) {
	store, db, blobs := openTestStore(t, staticVerifier("mem-1"))

	doc, err := store.CreateGalleryItem(context.Background(), "mem-1", gallery.ItemFields{
		Title: bilingual.Text{He: "פסל", En: "Sculpture"},
	}, &orchestrators.ImageUpload{
		Filename:    "work.jpg",
		ContentType: "image/jpeg",
		Content:     strings.NewReader("jpeg-bytes"),
	}, "token")
	if err != nil {
		t.Fatalf("CreateGalleryItem() error = %v", err)
	}

	id, _ := doc["id"].(string)
	if id == "" {
		t.Fatal("created doc has no id")
	}
	if doc["artistId"] != "mem-1" {
		t.Errorf("artistId = %v, want mem-1", doc["artistId"])
	}
	if blobs.Len() != 1 {
		t.Errorf("blob count = %d, want 1", blobs.Len())
	}

	stored := readDoc(t, db, "gallery_item", id)
	if url, _ := stored["imageUrl"].(string); !strings.HasSuffix(url, "/image.jpg") {
		t.Errorf("imageUrl = %v", stored["imageUrl"])
	}
}

func TestCreateGalleryItemAppendsPosition(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "gallery_item", "existing", 7, map[string]any{"artistId": "mem-1"})

	doc, err := store.CreateGalleryItem(context.Background(), "mem-1", gallery.ItemFields{
		Title: bilingual.Text{En: "New"},
	}, &orchestrators.ImageUpload{
		Filename:    "a.png",
		ContentType: "image/png",
		Content:     strings.NewReader("png"),
	}, "token")
	if err != nil {
		t.Fatalf("CreateGalleryItem() error = %v", err)
	}

	var position int
	id, _ := doc["id"].(string)
	if err := db.QueryRow("SELECT position FROM gallery_item WHERE id = ?", id).Scan(&position); err != nil {
		t.Fatalf("read position: %v", err)
	}
	if position != 8 {
		t.Errorf("position = %d, want 8", position)
	}
}

func TestUpdateGalleryItemReplacesImage(t *testing.T) {
	store, db, blobs := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "gallery_item", "item-1", 1, map[string]any{
		"artistId": "mem-1",
		"imageKey": "gallery/item-1/image.png",
		"imageUrl": "/uploads/gallery/item-1/image.png",
	})
	blobs.Put(context.Background(), "gallery/item-1/image.png", "image/png", strings.NewReader("old"))

	doc, err := store.UpdateGalleryItem(context.Background(), "item-1", gallery.ItemFields{
		Title: bilingual.Text{En: "Renamed"},
	}, &orchestrators.ImageUpload{
		Filename:    "new.jpg",
		ContentType: "image/jpeg",
		Content:     strings.NewReader("new-bytes"),
	}, "token")
	if err != nil {
		t.Fatalf("UpdateGalleryItem() error = %v", err)
	}

	if doc["imageKey"] != "gallery/item-1/image.jpg" {
		t.Errorf("imageKey = %v", doc["imageKey"])
	}
	if _, old := blobs.Get("gallery/item-1/image.png"); old {
		t.Error("old blob was not deleted")
	}
	if _, ok := blobs.Get("gallery/item-1/image.jpg"); !ok {
		t.Error("new blob missing")
	}
}

func TestUpdateGalleryItemKeepsImageWhenNil(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "gallery_item", "item-1", 1, map[string]any{
		"artistId": "mem-1",
		"imageUrl": "/uploads/keep.png",
	})

	doc, err := store.UpdateGalleryItem(context.Background(), "item-1", gallery.ItemFields{
		Title: bilingual.Text{En: "Renamed"},
	}, nil, "token")
	if err != nil {
		t.Fatalf("UpdateGalleryItem() error = %v", err)
	}
	if doc["imageUrl"] != "/uploads/keep.png" {
		t.Errorf("imageUrl = %v, want unchanged", doc["imageUrl"])
	}
}

func TestUpdateGalleryItemLegacyWithoutArtist(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "gallery_item", "legacy", 1, map[string]any{})

	_, err := store.UpdateGalleryItem(context.Background(), "legacy", gallery.ItemFields{
		Title: bilingual.Text{En: "X"},
	}, nil, "token")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestDeleteGalleryItem(t *testing.T) {
	store, db, blobs := openTestStore(t, staticVerifier("mem-1"))
	insertDoc(t, db, "gallery_item", "item-1", 1, map[string]any{
		"artistId": "mem-1",
		"imageKey": "gallery/item-1/image.png",
	})
	blobs.Put(context.Background(), "gallery/item-1/image.png", "image/png", strings.NewReader("bytes"))

	if err := store.DeleteGalleryItem(context.Background(), "item-1", "token"); err != nil {
		t.Fatalf("DeleteGalleryItem() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM gallery_item").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Errorf("row count = %d, want 0", count)
	}
	if blobs.Len() != 0 {
		t.Errorf("blob count = %d, want 0", blobs.Len())
	}
}

func TestDeleteGalleryItemWrongOwner(t *testing.T) {
	store, db, _ := openTestStore(t, staticVerifier("mem-2"))
	insertDoc(t, db, "gallery_item", "item-1", 1, map[string]any{"artistId": "mem-1"})

	err := store.DeleteGalleryItem(context.Background(), "item-1", "token")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}
