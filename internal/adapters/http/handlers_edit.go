package web

import (
	"context"
	"errors"
	"net/http"

	"atelier/internal/adapters/http/middleware"
	"atelier/internal/application/editsession"
	"atelier/internal/application/normalize"
	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// memberJSON is the wire shape of a staged member.
type memberJSON struct {
	ID       string         `json:"id"`
	Name     bilingual.Text `json:"name"`
	Role     bilingual.Text `json:"role"`
	Bio      bilingual.Text `json:"bio"`
	ImageURL string         `json:"imageUrl"`
	Category string         `json:"category,omitempty"`
}

func memberToJSON(m member.Member) memberJSON {
	return memberJSON{
		ID:       m.ID,
		Name:     m.Name,
		Role:     m.Role,
		Bio:      m.Bio,
		ImageURL: m.ImageURL,
		Category: m.Category,
	}
}

// itemJSON is the wire shape of a gallery item.
type itemJSON struct {
	ID             string         `json:"id"`
	ArtistID       string         `json:"artistId"`
	Title          bilingual.Text `json:"title"`
	Description    bilingual.Text `json:"description"`
	ImageURL       string         `json:"imageUrl"`
	VideoURL       string         `json:"videoUrl,omitempty"`
	ExtraImageURLs []string       `json:"additionalImages,omitempty"`
}

func itemToJSON(item gallery.Item) itemJSON {
	return itemJSON{
		ID:             item.ID,
		ArtistID:       item.ArtistID,
		Title:          item.Title,
		Description:    item.Description,
		ImageURL:       item.ImageURL,
		VideoURL:       item.VideoURL,
		ExtraImageURLs: item.ExtraImageURLs,
	}
}

// courseTeachJSON is one course row in the edit state, with the effective
// (snapshot plus pending) teaching flag.
type courseTeachJSON struct {
	ID       string         `json:"id"`
	Title    bilingual.Text `json:"title"`
	Teaching bool           `json:"teaching"`
}

// editStateJSON is the full edit-session state returned by the API.
type editStateJSON struct {
	State         editsession.State `json:"state"`
	Member        memberJSON        `json:"member"`
	Courses       []courseTeachJSON `json:"courses"`
	Gallery       []itemJSON        `json:"gallery"`
	InvalidFields []string          `json:"invalidFields,omitempty"`
}

// ownEditSession returns the logged-in member's edit session.
func ownEditSession(ctx context.Context) (*editsession.Session, bool) {
	memberID := middleware.SessionMemberID(ctx)
	if memberID == "" {
		return nil, false
	}
	return editSessions.forMember(memberID), true
}

// editState assembles the wire state for a session.
func editState(ctx context.Context, s *editsession.Session) (editStateJSON, error) {
	rawCourses, err := stores.ContentStore.FetchAllCourses(ctx)
	if err != nil {
		return editStateJSON{}, err
	}
	courses, _ := normalize.Courses(rawCourses)

	courseRows := make([]courseTeachJSON, 0, len(courses))
	for _, c := range courses {
		courseRows = append(courseRows, courseTeachJSON{
			ID:       c.ID,
			Title:    c.Title,
			Teaching: s.Teaching(c.ID),
		})
	}

	items := s.GalleryItems()
	itemRows := make([]itemJSON, 0, len(items))
	for _, item := range items {
		itemRows = append(itemRows, itemToJSON(item))
	}

	return editStateJSON{
		State:         s.State(),
		Member:        memberToJSON(s.StagedMember()),
		Courses:       courseRows,
		Gallery:       itemRows,
		InvalidFields: s.InvalidFields(),
	}, nil
}

// writeEditError maps edit-session errors to HTTP status codes.
func writeEditError(w http.ResponseWriter, err error) {
	var validation *editsession.ValidationError
	var remote *editsession.RemoteOperationError

	switch {
	case errors.Is(err, editsession.ErrUnauthorizedEdit):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": err.Error()})
	case errors.Is(err, editsession.ErrAuthenticationRequired):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
	case errors.Is(err, editsession.ErrNotEditing),
		errors.Is(err, editsession.ErrAlreadyEditing),
		errors.Is(err, editsession.ErrCommitInFlight):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, member.ErrUnknownField):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":         "validation failed",
			"invalidFields": validation.Fields,
		})
	case errors.As(err, &remote):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": remote.Error()})
	default:
		internalError(w, err)
	}
}

// respondEditState writes the session state, or a 500 if assembly fails.
func respondEditState(w http.ResponseWriter, r *http.Request, s *editsession.Session) {
	state, err := editState(r.Context(), s)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleEditEnter starts an edit session for the logged-in member.
func handleEditEnter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := ownEditSession(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err := s.EnterEdit(r.Context()); err != nil {
		writeEditError(w, err)
		return
	}
	respondEditState(w, r, s)
}

// handleEditField stages one language variant of an editable field.
func handleEditField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := ownEditSession(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Field string `json:"field"`
		Lang  string `json:"lang"`
		Value string `json:"value"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.StageField(r.Context(), req.Field, req.Lang, req.Value); err != nil {
		if errors.Is(err, member.ErrUnknownField) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeEditError(w, err)
		return
	}
	respondEditState(w, r, s)
}

// handleEditTeacherToggle flips the pending teach/un-teach intent for a course.
func handleEditTeacherToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := ownEditSession(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		CourseID string `json:"courseId"`
	}
	if err := strictDecode(r, &req); err != nil || req.CourseID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.ToggleTeacher(r.Context(), req.CourseID); err != nil {
		writeEditError(w, err)
		return
	}
	respondEditState(w, r, s)
}

// handleEditState reports the current staged state.
func handleEditState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := ownEditSession(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	respondEditState(w, r, s)
}

// handleEditCommit runs the commit protocol and notifies the admins.
func handleEditCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := ownEditSession(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := s.Commit(r.Context()); err != nil {
		writeEditError(w, err)
		return
	}
	if notifier != nil {
		notifier.ProfileCommitted(r.Context(), s.OriginalSnapshot().Member)
	}
	respondEditState(w, r, s)
}

// handleEditCancel discards staged changes.
func handleEditCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := ownEditSession(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err := s.Cancel(); err != nil {
		writeEditError(w, err)
		return
	}
	respondEditState(w, r, s)
}
