package member

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"atelier/internal/domain/bilingual"
)

// Editable field name constants. Each editable field exists in both languages.
const (
	FieldName = "name"
	FieldRole = "role"
	FieldBio  = "bio"
)

// MinFieldLength is the minimum trimmed length for an edited profile field.
const MinFieldLength = 2

// DefaultImageURL is served when a member has no profile image.
const DefaultImageURL = "/assets/defaults/profile.svg"

// Domain errors
var (
	ErrEmptyID      = errors.New("member id cannot be empty")
	ErrUnknownField = errors.New("unknown editable field")
)

// Member is the canonical member record every other component works with.
type Member struct {
	ID       string
	Name     bilingual.Text
	Role     bilingual.Text
	Bio      bilingual.Text
	ImageURL string
	Category string
}

// EditableFields lists the profile fields a member may edit, in display order.
var EditableFields = []string{FieldName, FieldRole, FieldBio}

// Field returns a pointer to the named editable bilingual field.
// POST: Returns nil if the field name is unknown
func (m *Member) Field(name string) *bilingual.Text {
	switch name {
	case FieldName:
		return &m.Name
	case FieldRole:
		return &m.Role
	case FieldBio:
		return &m.Bio
	}
	return nil
}

// SetField writes one language variant of an editable field.
// PRE: name is an editable field, lang is "he" or "en"
// POST: The variant is replaced; returns ErrUnknownField for unknown names
func (m *Member) SetField(name, lang, value string) error {
	field := m.Field(name)
	if field == nil {
		return ErrUnknownField
	}
	switch lang {
	case bilingual.LangHebrew:
		field.He = value
	case bilingual.LangEnglish:
		field.En = value
	default:
		return fmt.Errorf("unknown language %q", lang)
	}
	return nil
}

// Validate checks the member's identity and editable fields.
// PRE: Member struct is initialized
// POST: Returns error naming the first invalid field, nil otherwise
func (m *Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyID
	}
	for _, name := range EditableFields {
		field := m.Field(name)
		if err := ValidateFieldValue(field.He); err != nil {
			return fmt.Errorf("%s_he: %w", name, err)
		}
		if err := ValidateFieldValue(field.En); err != nil {
			return fmt.Errorf("%s_en: %w", name, err)
		}
	}
	return nil
}

// ValidateFieldValue applies the editable-field rule: trimmed length >= 2 runes.
// POST: Returns nil for valid values, descriptive error otherwise
func ValidateFieldValue(value string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < MinFieldLength {
		return fmt.Errorf("must be at least %d characters", MinFieldLength)
	}
	return nil
}

// Clone returns a copy of the member that shares no mutable state.
// POST: Mutating the copy never affects the receiver
func (m Member) Clone() Member {
	// All fields are value types, so the receiver copy is already deep.
	return m
}
