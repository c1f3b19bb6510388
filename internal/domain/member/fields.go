package member

import "atelier/internal/domain/bilingual"

// ProfileFields is the full set of editable profile fields, sent as one
// atomic update (never a per-field patch).
type ProfileFields struct {
	Name bilingual.Text
	Role bilingual.Text
	Bio  bilingual.Text
}

// ProfileFieldsOf extracts the editable fields from a member.
func ProfileFieldsOf(m Member) ProfileFields {
	return ProfileFields{Name: m.Name, Role: m.Role, Bio: m.Bio}
}

// Apply writes the fields onto a member copy and returns it.
// POST: The receiver's non-editable fields are preserved
func (f ProfileFields) Apply(m Member) Member {
	m.Name = f.Name
	m.Role = f.Role
	m.Bio = f.Bio
	return m
}
