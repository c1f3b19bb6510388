package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"atelier/internal/adapters/http/middleware"
	"atelier/internal/adapters/storage/content"
	"atelier/internal/application/editsession"
	"atelier/internal/application/orchestrators"
	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/gallery"
)

// maxUploadBytes bounds gallery image uploads.
const maxUploadBytes = 10 << 20

// galleryDeps builds the orchestrator dependencies for the current request.
func galleryDeps() orchestrators.GalleryEditorDeps {
	return orchestrators.GalleryEditorDeps{
		ContentStore: stores.ContentStore,
		Tokens:       requestIdentity{},
	}
}

// writeGalleryError maps gallery-editor errors to HTTP status codes.
func writeGalleryError(w http.ResponseWriter, err error) {
	var validation *orchestrators.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": validation.Error(),
			"field": validation.Field,
		})
	case errors.Is(err, orchestrators.ErrAuthenticationRequired),
		errors.Is(err, content.ErrTokenRejected):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication required"})
	case errors.Is(err, content.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "not allowed"})
	case errors.Is(err, content.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	default:
		internalError(w, err)
	}
}

// galleryFieldsFromForm reads the bilingual item fields from a multipart form.
func galleryFieldsFromForm(r *http.Request) gallery.ItemFields {
	return gallery.ItemFields{
		Title: bilingual.Text{
			He: r.FormValue("title_he"),
			En: r.FormValue("title_en"),
		},
		Description: bilingual.Text{
			He: r.FormValue("description_he"),
			En: r.FormValue("description_en"),
		},
		VideoURL: strings.TrimSpace(r.FormValue("video_url")),
	}
}

// imageFromForm reads the optional image file from a multipart form.
func imageFromForm(r *http.Request) (*orchestrators.ImageUpload, func(), error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	upload := &orchestrators.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
	return upload, func() { file.Close() }, nil
}

// mirrorIntoEditSession reflects a successful gallery change into the
// member's active edit session, if one is editing. Changes are persisted
// at operation time; the mirror only keeps the staged view current.
func mirrorIntoEditSession(memberID string, apply func(*editsession.Session) error) {
	if memberID == "" {
		return
	}
	s := editSessions.forMember(memberID)
	if err := apply(s); err != nil && !errors.Is(err, editsession.ErrNotEditing) {
		// The item is already persisted; only the staged view is stale.
		slog.Warn("edit_mirror_failed", "member_id", memberID, "error", err)
	}
}

// handleGalleryCreate creates a gallery item for the logged-in member.
func handleGalleryCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	memberID := middleware.SessionMemberID(r.Context())
	if memberID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	image, closeImage, err := imageFromForm(r)
	if err != nil {
		http.Error(w, "invalid image upload", http.StatusBadRequest)
		return
	}
	defer closeImage()

	item, err := orchestrators.ExecuteCreateGalleryItem(r.Context(), orchestrators.CreateGalleryItemInput{
		ArtistID: memberID,
		Fields:   galleryFieldsFromForm(r),
		Image:    image,
	}, galleryDeps())
	if err != nil {
		writeGalleryError(w, err)
		return
	}

	mirrorIntoEditSession(memberID, func(s *editsession.Session) error {
		return s.ApplyGalleryCreate(item)
	})
	writeJSON(w, http.StatusCreated, itemToJSON(item))
}

// handleGalleryItem dispatches /api/gallery/{id} and /api/gallery/{id}/delete.
func handleGalleryItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/gallery/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	if itemID, found := strings.CutSuffix(rest, "/delete"); found {
		handleGalleryDelete(w, r, itemID)
		return
	}
	if strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	handleGalleryUpdate(w, r, rest)
}

// handleGalleryUpdate updates an item's fields, optionally replacing the image.
func handleGalleryUpdate(w http.ResponseWriter, r *http.Request, itemID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	memberID := middleware.SessionMemberID(r.Context())
	if memberID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	image, closeImage, err := imageFromForm(r)
	if err != nil {
		http.Error(w, "invalid image upload", http.StatusBadRequest)
		return
	}
	defer closeImage()

	item, err := orchestrators.ExecuteUpdateGalleryItem(r.Context(), orchestrators.UpdateGalleryItemInput{
		ItemID: itemID,
		Fields: galleryFieldsFromForm(r),
		Image:  image,
	}, galleryDeps())
	if err != nil {
		writeGalleryError(w, err)
		return
	}

	mirrorIntoEditSession(memberID, func(s *editsession.Session) error {
		return s.ApplyGalleryUpdate(item)
	})
	writeJSON(w, http.StatusOK, itemToJSON(item))
}

// handleGalleryDelete deletes an item after an explicit confirmation flag.
func handleGalleryDelete(w http.ResponseWriter, r *http.Request, itemID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	memberID := middleware.SessionMemberID(r.Context())
	if memberID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	deleted, err := orchestrators.ExecuteDeleteGalleryItem(r.Context(), orchestrators.DeleteGalleryItemInput{
		ItemID:  itemID,
		Confirm: func() bool { return req.Confirm },
	}, galleryDeps())
	if err != nil {
		writeGalleryError(w, err)
		return
	}

	if deleted {
		mirrorIntoEditSession(memberID, func(s *editsession.Session) error {
			return s.ApplyGalleryRemove(itemID)
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
