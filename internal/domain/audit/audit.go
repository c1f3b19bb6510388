package audit

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Category represents the type of audit event.
type Category string

const (
	CategoryProfile  Category = "profile"
	CategoryCourse   Category = "course"
	CategoryGallery  Category = "gallery"
	CategorySecurity Category = "security"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCommit     Action = "commit"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionDenied     Action = "denied"
	ActionCommitFail Action = "commit_failed"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is a single audit log entry. Unauthorized edit attempts and every
// commit outcome are recorded here so self-edits leave a trail.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	Severity    Severity  `json:"severity"`
	ActorID     string    `json:"actor_id"`
	ResourceID  string    `json:"resource_id"`
	Description string    `json:"description"`
}

// NewEvent creates an audit event with the current timestamp.
// PRE: actorID may be empty (anonymous visitor)
// POST: Returns an Event with a fresh id and the provided fields
func NewEvent(actorID string, category Category, action Action) Event {
	return Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
		ActorID:   actorID,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource attaches the affected resource id.
func (e Event) WithResource(resourceID string) Event {
	e.ResourceID = resourceID
	return e
}

// WithDescription attaches a human-readable description.
func (e Event) WithDescription(description string) Event {
	e.Description = description
	return e
}

func generateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
