package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"atelier/internal/adapters/blob"
	"atelier/internal/adapters/storage"
	"atelier/internal/application/normalize"
	"atelier/internal/application/orchestrators"
	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// SQLStore implements Store over SQLite or Postgres. Images attached to
// gallery items go to the blob store; the document keeps the blob key so
// deletion can clean up after itself.
type SQLStore struct {
	db     storage.SQLDB
	driver string
	tokens TokenVerifier
	blobs  blob.Store
}

// Compile-time check that *SQLStore satisfies Store.
var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a new content store.
func NewSQLStore(db storage.SQLDB, driver string, tokens TokenVerifier, blobs blob.Store) *SQLStore {
	return &SQLStore{db: db, driver: driver, tokens: tokens, blobs: blobs}
}

// FetchMember retrieves one member document.
// PRE: id is non-empty
// POST: Returns the raw document with "id" set, or ErrNotFound
func (s *SQLStore) FetchMember(ctx context.Context, id string) (normalize.RawRecord, error) {
	return s.fetchOne(ctx, "member", id)
}

// FetchAllMembers retrieves every member document in display order.
func (s *SQLStore) FetchAllMembers(ctx context.Context) ([]normalize.RawRecord, error) {
	return s.fetchAll(ctx, "member")
}

// FetchAllCourses retrieves every course document in display order.
func (s *SQLStore) FetchAllCourses(ctx context.Context) ([]normalize.RawRecord, error) {
	return s.fetchAll(ctx, "course")
}

// FetchAllGalleryItems retrieves every gallery document in display order.
func (s *SQLStore) FetchAllGalleryItems(ctx context.Context) ([]normalize.RawRecord, error) {
	return s.fetchAll(ctx, "gallery_item")
}

// UpdateMember persists the editable profile fields of a member.
// Nested bilingual objects are written and any legacy flat keys removed,
// so the document converges on the canonical shape over time.
// PRE: token was issued for the member being updated
// POST: Only name, role, and bio change; other document keys survive
func (s *SQLStore) UpdateMember(ctx context.Context, id string, fields member.ProfileFields, token string) error {
	actor, err := s.verify(token)
	if err != nil {
		return err
	}
	if actor != id {
		return fmt.Errorf("%w: member %s cannot edit member %s", ErrForbidden, actor, id)
	}

	return s.mutateDoc(ctx, "member", id, func(doc normalize.RawRecord) error {
		setBilingual(doc, "name", fields.Name)
		setBilingual(doc, "role", fields.Role)
		setBilingual(doc, "bio", fields.Bio)
		return nil
	})
}

// AddCourseTeacher links a member to a course's teacher list.
// Idempotent: adding an already-linked teacher is a no-op.
// PRE: token was issued for memberID
func (s *SQLStore) AddCourseTeacher(ctx context.Context, courseID, memberID, token string) error {
	actor, err := s.verify(token)
	if err != nil {
		return err
	}
	if actor != memberID {
		return fmt.Errorf("%w: member %s cannot link member %s", ErrForbidden, actor, memberID)
	}

	return s.mutateDoc(ctx, "course", courseID, func(doc normalize.RawRecord) error {
		ids := teacherIDs(doc)
		for _, existing := range ids {
			if existing == memberID {
				return nil
			}
		}
		doc["teacherIds"] = append(ids, memberID)
		return nil
	})
}

// RemoveCourseTeacher unlinks a member from a course's teacher list.
// Idempotent: removing an absent teacher is a no-op.
// PRE: token was issued for memberID
func (s *SQLStore) RemoveCourseTeacher(ctx context.Context, courseID, memberID, token string) error {
	actor, err := s.verify(token)
	if err != nil {
		return err
	}
	if actor != memberID {
		return fmt.Errorf("%w: member %s cannot unlink member %s", ErrForbidden, actor, memberID)
	}

	return s.mutateDoc(ctx, "course", courseID, func(doc normalize.RawRecord) error {
		ids := teacherIDs(doc)
		kept := make([]any, 0, len(ids))
		for _, existing := range ids {
			if existing != memberID {
				kept = append(kept, existing)
			}
		}
		doc["teacherIds"] = kept
		return nil
	})
}

// CreateGalleryItem inserts a new item owned by artistID, uploading the
// image first. The new item gets the last display position.
// PRE: token was issued for artistID; image is non-nil
// POST: Returns the stored document including the generated id
func (s *SQLStore) CreateGalleryItem(ctx context.Context, artistID string, fields gallery.ItemFields, image *orchestrators.ImageUpload, token string) (normalize.RawRecord, error) {
	actor, err := s.verify(token)
	if err != nil {
		return nil, err
	}
	if actor != artistID {
		return nil, fmt.Errorf("%w: member %s cannot create items for %s", ErrForbidden, actor, artistID)
	}
	if image == nil {
		return nil, fmt.Errorf("create gallery item: image is required")
	}

	id := uuid.NewString()
	key := imageKey(id, image.Filename)
	url, err := s.blobs.Put(ctx, key, image.ContentType, image.Content)
	if err != nil {
		return nil, fmt.Errorf("upload gallery image: %w", err)
	}

	doc := normalize.RawRecord{
		"id":       id,
		"artistId": artistID,
		"imageUrl": url,
		"imageKey": key,
	}
	setBilingual(doc, "title", fields.Title)
	setBilingual(doc, "description", fields.Description)
	if fields.VideoURL != "" {
		doc["videoUrl"] = fields.VideoURL
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	query := storage.Rebind(s.driver, `
		INSERT INTO gallery_item (id, artist_id, position, data)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM gallery_item), ?)`)
	if _, err := s.db.ExecContext(ctx, query, id, artistID, string(data)); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateGalleryItem rewrites an item's editable fields and, when a new
// image is supplied, replaces the stored image.
// PRE: token was issued for the item's artist
// POST: Returns the stored document; legacy items without an artist are
// never editable
func (s *SQLStore) UpdateGalleryItem(ctx context.Context, itemID string, fields gallery.ItemFields, image *orchestrators.ImageUpload, token string) (normalize.RawRecord, error) {
	actor, err := s.verify(token)
	if err != nil {
		return nil, err
	}

	var updated normalize.RawRecord
	err = s.mutateOwnedItem(ctx, itemID, actor, func(doc normalize.RawRecord) error {
		setBilingual(doc, "title", fields.Title)
		setBilingual(doc, "description", fields.Description)
		if fields.VideoURL != "" {
			doc["videoUrl"] = fields.VideoURL
		} else {
			delete(doc, "videoUrl")
		}
		if image != nil {
			key := imageKey(itemID, image.Filename)
			url, err := s.blobs.Put(ctx, key, image.ContentType, image.Content)
			if err != nil {
				return fmt.Errorf("upload gallery image: %w", err)
			}
			s.dropBlob(ctx, doc, key)
			doc["imageUrl"] = url
			doc["imageKey"] = key
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteGalleryItem removes an item and its stored image.
// PRE: token was issued for the item's artist
// POST: The row is gone; a failed blob cleanup is logged, not fatal
func (s *SQLStore) DeleteGalleryItem(ctx context.Context, itemID string, token string) error {
	actor, err := s.verify(token)
	if err != nil {
		return err
	}

	doc, err := s.fetchOne(ctx, "gallery_item", itemID)
	if err != nil {
		return err
	}
	if err := checkArtist(doc, actor, itemID); err != nil {
		return err
	}

	query := storage.Rebind(s.driver, "DELETE FROM gallery_item WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, itemID); err != nil {
		return err
	}
	s.dropBlob(ctx, doc, "")
	return nil
}

// fetchOne loads a single document by id. The id column is authoritative
// and overwrites whatever the document carries.
func (s *SQLStore) fetchOne(ctx context.Context, table, id string) (normalize.RawRecord, error) {
	query := storage.Rebind(s.driver, "SELECT data FROM "+table+" WHERE id = ?")
	var data string
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
		}
		return nil, err
	}
	doc, err := decodeDoc(data)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", table, id, err)
	}
	doc["id"] = id
	return doc, nil
}

func (s *SQLStore) fetchAll(ctx context.Context, table string) ([]normalize.RawRecord, error) {
	query := "SELECT id, data FROM " + table + " ORDER BY position, id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []normalize.RawRecord
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		doc, err := decodeDoc(data)
		if err != nil {
			// A corrupt document should not take the whole listing down.
			slog.Warn("content_doc_corrupt", "table", table, "id", id, "error", err)
			continue
		}
		doc["id"] = id
		out = append(out, doc)
	}
	return out, rows.Err()
}

// mutateDoc runs a read-modify-write cycle on one document inside a
// transaction.
func (s *SQLStore) mutateDoc(ctx context.Context, table, id string, mutate func(normalize.RawRecord) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := storage.Rebind(s.driver, "SELECT data FROM "+table+" WHERE id = ?")
	var data string
	if err := tx.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
		}
		return err
	}
	doc, err := decodeDoc(data)
	if err != nil {
		return fmt.Errorf("%s %s: %w", table, id, err)
	}
	doc["id"] = id

	if err := mutate(doc); err != nil {
		return err
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	update := storage.Rebind(s.driver, "UPDATE "+table+" SET data = ? WHERE id = ?")
	if _, err := tx.ExecContext(ctx, update, string(encoded), id); err != nil {
		return err
	}
	return tx.Commit()
}

// mutateOwnedItem is mutateDoc for gallery items with an ownership check.
func (s *SQLStore) mutateOwnedItem(ctx context.Context, itemID, actor string, mutate func(normalize.RawRecord) error) error {
	return s.mutateDoc(ctx, "gallery_item", itemID, func(doc normalize.RawRecord) error {
		if err := checkArtist(doc, actor, itemID); err != nil {
			return err
		}
		return mutate(doc)
	})
}

func (s *SQLStore) verify(token string) (string, error) {
	actor, err := s.tokens.Verify(token)
	if err != nil || actor == "" {
		return "", fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	return actor, nil
}

// dropBlob deletes the blob behind a document's imageKey unless it is the
// key we are about to write. Missing blobs and delete failures only warn.
func (s *SQLStore) dropBlob(ctx context.Context, doc normalize.RawRecord, keepKey string) {
	key, _ := doc["imageKey"].(string)
	if key == "" || key == keepKey {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		slog.Warn("blob_cleanup_failed", "key", key, "error", err)
	}
}

func checkArtist(doc normalize.RawRecord, actor, itemID string) error {
	artist, _ := doc["artistId"].(string)
	if artist == "" || artist != actor {
		return fmt.Errorf("%w: member %s does not own item %s", ErrForbidden, actor, itemID)
	}
	return nil
}

func decodeDoc(data string) (normalize.RawRecord, error) {
	var doc normalize.RawRecord
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = normalize.RawRecord{}
	}
	return doc, nil
}

// setBilingual writes the canonical nested shape and strips any legacy
// flat keys for the same field.
func setBilingual(doc normalize.RawRecord, key string, text bilingual.Text) {
	doc[key] = map[string]any{"he": text.He, "en": text.En}
	delete(doc, key+"_he")
	delete(doc, key+"_en")
}

// teacherIDs reads a course's teacher list as a []any of strings,
// dropping anything that is not a string.
func teacherIDs(doc normalize.RawRecord) []any {
	items, _ := doc["teacherIds"].([]any)
	out := make([]any, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// imageKey builds a blob key scoped to the item. Only the filename's
// extension survives; the rest of the name is user input.
func imageKey(itemID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	return "gallery/" + itemID + "/image" + ext
}
