// Package editsession owns the self-edit workflow: a member editing their
// own profile gets a bounded-lifetime session holding a snapshot of the
// persisted state, staged field overrides, and pending teacher-link
// changes, with an all-or-nothing commit protocol.
package editsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"atelier/internal/application/normalize"
	"atelier/internal/application/projections"
	"atelier/internal/domain/audit"
	"atelier/internal/domain/bilingual"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// State names the edit session's lifecycle phase.
type State string

const (
	StateViewOnly   State = "view_only"
	StateEditing    State = "editing"
	StateCommitting State = "committing"
)

// Session errors
var (
	ErrUnauthorizedEdit       = errors.New("edit not permitted: viewer does not own this profile")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotEditing             = errors.New("operation requires an active edit session")
	ErrAlreadyEditing         = errors.New("an edit session is already active")
	ErrCommitInFlight         = errors.New("a commit is already in progress")
)

// ValidationError carries the editable-field keys (e.g. "name_en") that
// failed validation. Staged values are preserved for correction.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile fields: %v", e.Fields)
}

// RemoteOperationError wraps a content-store failure. The session's
// in-memory state is guaranteed unchanged when this is returned.
type RemoteOperationError struct {
	Op  string
	Err error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("remote operation %s failed: %v", e.Op, e.Err)
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

// Identity is the source of truth for the viewer's authenticated identity.
// It is consulted fresh before every mutating operation; results are never
// cached across suspension points.
type Identity interface {
	// AuthenticatedMemberID returns the member id the viewer is logged in
	// as, or "" for anonymous visitors.
	AuthenticatedMemberID(ctx context.Context) string
	// AuthToken returns a token authorizing store writes for the viewer.
	AuthToken(ctx context.Context) (string, error)
}

// ContentStoreForEdit defines the content store interface needed by a Session.
type ContentStoreForEdit interface {
	FetchMember(ctx context.Context, id string) (normalize.RawRecord, error)
	FetchAllCourses(ctx context.Context) ([]normalize.RawRecord, error)
	FetchAllGalleryItems(ctx context.Context) ([]normalize.RawRecord, error)
	UpdateMember(ctx context.Context, id string, fields member.ProfileFields, token string) error
	AddCourseTeacher(ctx context.Context, courseID, memberID, token string) error
	RemoveCourseTeacher(ctx context.Context, courseID, memberID, token string) error
}

// AuditRecorder records edit-session outcomes. Optional: nil skips auditing.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Snapshot is the deep copy of persisted state taken when editing starts.
type Snapshot struct {
	Member          member.Member
	TaughtCourseIDs []string
	GalleryItems    []gallery.Item
}

// Deps holds a Session's collaborators.
type Deps struct {
	Identity     Identity
	ContentStore ContentStoreForEdit
	Audit        AuditRecorder // optional: nil skips audit logging
}

// Session is the edit-session state machine for one profile page load.
// One session exists per page; all methods are safe for the interleaved
// handler calls a single page produces.
type Session struct {
	mu       sync.Mutex
	memberID string
	deps     Deps
	state    State

	snapshot Snapshot
	staged   map[string]bilingual.Text
	invalid  []string
	tracker  *ChangeTracker
	items    []gallery.Item
}

// NewSession creates a session for the given profile in ViewOnly state.
// PRE: memberID is non-empty, deps.Identity and deps.ContentStore are set
func NewSession(memberID string, deps Deps) *Session {
	return &Session{
		memberID: memberID,
		deps:     deps,
		state:    StateViewOnly,
		staged:   make(map[string]bilingual.Text),
		tracker:  NewChangeTracker(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MemberID returns the profile this session is bound to.
func (s *Session) MemberID() string { return s.memberID }

// InvalidFields returns the field keys flagged by the last failed commit.
func (s *Session) InvalidFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.invalid...)
}

// authorize re-derives the viewer's identity. Callers must not reuse a
// previous result across a suspension point.
func (s *Session) authorize(ctx context.Context) error {
	viewerID := s.deps.Identity.AuthenticatedMemberID(ctx)
	if viewerID == "" || viewerID != s.memberID {
		s.recordAudit(ctx, audit.NewEvent(viewerID, audit.CategorySecurity, audit.ActionDenied).
			WithResource(s.memberID).
			WithSeverity(audit.SeverityWarning).
			WithDescription("edit attempted on a profile the viewer does not own"))
		slog.Warn("edit_denied", "viewer_id", viewerID, "profile_id", s.memberID)
		return ErrUnauthorizedEdit
	}
	return nil
}

// EnterEdit transitions ViewOnly -> Editing and takes the snapshot.
// PRE: viewer is authenticated as the profile owner
// POST: Snapshot holds deep copies of the member, taught course ids, and
// gallery items; staged changes and tracker are empty
func (s *Session) EnterEdit(ctx context.Context) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateCommitting {
		s.mu.Unlock()
		return ErrCommitInFlight
	}
	if s.state == StateEditing {
		s.mu.Unlock()
		return ErrAlreadyEditing
	}
	s.mu.Unlock()

	// Snapshot loads happen outside the lock; state is still ViewOnly so
	// no mutating call can interleave.
	result, err := projections.QueryGetMemberProfile(ctx,
		projections.GetMemberProfileQuery{MemberID: s.memberID},
		projections.GetMemberProfileDeps{ContentStore: s.deps.ContentStore})
	if err != nil {
		return &RemoteOperationError{Op: "load_snapshot", Err: err}
	}

	taughtIDs := make([]string, 0, len(result.Courses))
	for _, c := range result.Courses {
		taughtIDs = append(taughtIDs, c.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateViewOnly {
		return ErrAlreadyEditing
	}
	s.snapshot = Snapshot{
		Member:          result.Member.Clone(),
		TaughtCourseIDs: taughtIDs,
		GalleryItems:    gallery.CloneAll(result.GalleryItems),
	}
	s.items = gallery.CloneAll(result.GalleryItems)
	s.staged = make(map[string]bilingual.Text)
	s.invalid = nil
	s.tracker.Reset()
	s.state = StateEditing
	slog.Info("edit_session", "event", "entered", "member_id", s.memberID)
	return nil
}

// StageField stages one language variant of an editable field.
// Validation happens at commit, not here — invalid values stay staged so
// the member can correct them.
// PRE: session is Editing, viewer still owns the profile
func (s *Session) StageField(ctx context.Context, field, lang, value string) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}

	current, ok := s.staged[field]
	if !ok {
		base := s.snapshot.Member.Field(field)
		if base == nil {
			return member.ErrUnknownField
		}
		current = *base
	}
	switch lang {
	case bilingual.LangHebrew:
		current.He = value
	case bilingual.LangEnglish:
		current.En = value
	default:
		return fmt.Errorf("unknown language %q", lang)
	}
	s.staged[field] = current
	return nil
}

// StagedMember returns the snapshot member with staged overrides applied.
// POST: The returned copy shares no state with the session
func (s *Session) StagedMember() member.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagedMemberLocked()
}

func (s *Session) stagedMemberLocked() member.Member {
	m := s.snapshot.Member.Clone()
	for field, text := range s.staged {
		if target := m.Field(field); target != nil {
			*target = text
		}
	}
	return m
}

// ToggleTeacher records a pending teach/un-teach intent for a course.
// PRE: session is Editing, viewer still owns the profile
func (s *Session) ToggleTeacher(ctx context.Context, courseID string) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}
	s.tracker.Toggle(courseID, s.teachesInSnapshot(courseID))
	return nil
}

// Teaching reports the effective (snapshot plus pending) teaching state.
func (s *Session) Teaching(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker.PendingAdd(courseID) {
		return true
	}
	if s.tracker.PendingRemove(courseID) {
		return false
	}
	return s.teachesInSnapshot(courseID)
}

func (s *Session) teachesInSnapshot(courseID string) bool {
	for _, id := range s.snapshot.TaughtCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// GalleryItems returns the staged gallery list (deep copy).
func (s *Session) GalleryItems() []gallery.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gallery.CloneAll(s.items)
}

// ApplyGalleryCreate mirrors a successful gallery create into the staged list.
// PRE: session is Editing; the store call already succeeded
func (s *Session) ApplyGalleryCreate(item gallery.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}
	s.items = append(s.items, item.Clone())
	return nil
}

// ApplyGalleryUpdate mirrors a successful gallery update into the staged list.
func (s *Session) ApplyGalleryUpdate(item gallery.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}
	for idx := range s.items {
		if s.items[idx].ID == item.ID {
			s.items[idx] = item.Clone()
			return nil
		}
	}
	return fmt.Errorf("gallery item %q not in session", item.ID)
}

// ApplyGalleryRemove mirrors a successful gallery delete into the staged list.
func (s *Session) ApplyGalleryRemove(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

// validateLocked checks every editable field of the staged member.
// POST: Returns the offending field keys ("name_he", "bio_en", ...), empty when valid
func (s *Session) validateLocked() []string {
	m := s.stagedMemberLocked()
	var bad []string
	for _, name := range member.EditableFields {
		field := m.Field(name)
		if member.ValidateFieldValue(field.He) != nil {
			bad = append(bad, name+"_he")
		}
		if member.ValidateFieldValue(field.En) != nil {
			bad = append(bad, name+"_en")
		}
	}
	return bad
}

// Commit runs the commit protocol: re-authorize, validate everything,
// one bulk member update, then pending teacher-link calls, then snapshot
// replacement. All-or-nothing for profile fields; on any failure the
// session stays Editing with staged values intact.
// PRE: session is Editing
// POST: On success state is ViewOnly, snapshot reflects the new persisted
// state, staged changes and tracker are empty
func (s *Session) Commit(ctx context.Context) error {
	// Authorization is re-derived here, after any prior suspension.
	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	switch s.state {
	case StateCommitting:
		s.mu.Unlock()
		return ErrCommitInFlight
	case StateEditing:
		// proceed
	default:
		s.mu.Unlock()
		return ErrNotEditing
	}

	if bad := s.validateLocked(); len(bad) > 0 {
		s.invalid = bad
		s.mu.Unlock()
		return &ValidationError{Fields: bad}
	}
	s.invalid = nil

	fields := member.ProfileFieldsOf(s.stagedMemberLocked())
	adds, removes := s.tracker.Pending()
	s.state = StateCommitting
	s.mu.Unlock()

	revert := func() {
		s.mu.Lock()
		s.state = StateEditing
		s.mu.Unlock()
	}

	token, err := s.deps.Identity.AuthToken(ctx)
	if err != nil || token == "" {
		revert()
		return ErrAuthenticationRequired
	}

	if err := s.deps.ContentStore.UpdateMember(ctx, s.memberID, fields, token); err != nil {
		revert()
		s.recordAudit(ctx, audit.NewEvent(s.memberID, audit.CategoryProfile, audit.ActionCommitFail).
			WithResource(s.memberID).
			WithSeverity(audit.SeverityWarning).
			WithDescription(err.Error()))
		slog.Error("edit_commit_failed", "member_id", s.memberID, "op", "update_member", "error", err)
		return &RemoteOperationError{Op: "update_member", Err: err}
	}

	for _, courseID := range adds {
		if err := s.deps.ContentStore.AddCourseTeacher(ctx, courseID, s.memberID, token); err != nil {
			revert()
			slog.Error("edit_commit_failed", "member_id", s.memberID, "op", "add_course_teacher", "course_id", courseID, "error", err)
			return &RemoteOperationError{Op: "add_course_teacher", Err: err}
		}
	}
	for _, courseID := range removes {
		if err := s.deps.ContentStore.RemoveCourseTeacher(ctx, courseID, s.memberID, token); err != nil {
			revert()
			slog.Error("edit_commit_failed", "member_id", s.memberID, "op", "remove_course_teacher", "course_id", courseID, "error", err)
			return &RemoteOperationError{Op: "remove_course_teacher", Err: err}
		}
	}

	// Every remote call succeeded: replace the snapshot, clear staging.
	s.mu.Lock()
	s.snapshot.Member = fields.Apply(s.snapshot.Member)
	s.snapshot.TaughtCourseIDs = applyLinkChanges(s.snapshot.TaughtCourseIDs, adds, removes)
	s.snapshot.GalleryItems = gallery.CloneAll(s.items)
	s.staged = make(map[string]bilingual.Text)
	s.tracker.Flush()
	s.state = StateViewOnly
	s.mu.Unlock()

	s.recordAudit(ctx, audit.NewEvent(s.memberID, audit.CategoryProfile, audit.ActionCommit).
		WithResource(s.memberID).
		WithDescription(fmt.Sprintf("profile committed, %d course links added, %d removed", len(adds), len(removes))))
	slog.Info("edit_session", "event", "committed", "member_id", s.memberID,
		"links_added", len(adds), "links_removed", len(removes))
	return nil
}

// Cancel discards all staged changes without contacting the store.
// PRE: session is Editing (a commit in flight cannot be cancelled)
// POST: State is ViewOnly, staged and tracked changes are gone, the
// gallery list is restored from the snapshot
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCommitting:
		return ErrCommitInFlight
	case StateEditing:
		// proceed
	default:
		return ErrNotEditing
	}
	s.staged = make(map[string]bilingual.Text)
	s.invalid = nil
	s.tracker.Reset()
	s.items = gallery.CloneAll(s.snapshot.GalleryItems)
	s.state = StateViewOnly
	slog.Info("edit_session", "event", "cancelled", "member_id", s.memberID)
	return nil
}

// OriginalSnapshot returns a deep copy of the snapshot for inspection.
func (s *Session) OriginalSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Member:          s.snapshot.Member.Clone(),
		TaughtCourseIDs: append([]string(nil), s.snapshot.TaughtCourseIDs...),
		GalleryItems:    gallery.CloneAll(s.snapshot.GalleryItems),
	}
}

func (s *Session) recordAudit(ctx context.Context, event audit.Event) {
	if s.deps.Audit != nil {
		s.deps.Audit.Record(ctx, event)
	}
}

func applyLinkChanges(ids, adds, removes []string) []string {
	out := make([]string, 0, len(ids)+len(adds))
	removed := make(map[string]struct{}, len(removes))
	for _, id := range removes {
		removed[id] = struct{}{}
	}
	for _, id := range ids {
		if _, gone := removed[id]; !gone {
			out = append(out, id)
		}
	}
	for _, id := range adds {
		already := false
		for _, existing := range out {
			if existing == id {
				already = true
				break
			}
		}
		if !already {
			out = append(out, id)
		}
	}
	return out
}
