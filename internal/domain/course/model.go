package course

import (
	"errors"
	"strings"

	"atelier/internal/domain/bilingual"
)

// Difficulty constants.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Domain errors
var (
	ErrEmptyID = errors.New("course id cannot be empty")
)

// Course describes one course offered by the community.
// TeacherIDs is a set of member ids; order carries no meaning.
type Course struct {
	ID          string
	Title       bilingual.Text
	Description bilingual.Text
	Difficulty  string
	Duration    bilingual.Text
	TeacherIDs  []string
	SubTopics   []bilingual.Text
}

// HasTeacher reports whether the member id is among the course's teachers.
// INVARIANT: Course fields are not mutated
func (c *Course) HasTeacher(memberID string) bool {
	if memberID == "" {
		return false
	}
	for _, id := range c.TeacherIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

// AddTeacher inserts a member id into the teacher set if absent.
// POST: memberID appears exactly once in TeacherIDs
func (c *Course) AddTeacher(memberID string) {
	if memberID == "" || c.HasTeacher(memberID) {
		return
	}
	c.TeacherIDs = append(c.TeacherIDs, memberID)
}

// RemoveTeacher deletes a member id from the teacher set.
// POST: memberID does not appear in TeacherIDs
func (c *Course) RemoveTeacher(memberID string) {
	kept := c.TeacherIDs[:0]
	for _, id := range c.TeacherIDs {
		if id != memberID {
			kept = append(kept, id)
		}
	}
	c.TeacherIDs = kept
}

// Validate checks the course's identity.
// POST: Returns nil if valid, error otherwise
func (c *Course) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	return nil
}

// Clone returns a deep copy of the course.
// POST: Mutating the copy (including its slices) never affects the receiver
func (c Course) Clone() Course {
	copied := c
	copied.TeacherIDs = append([]string(nil), c.TeacherIDs...)
	copied.SubTopics = append([]bilingual.Text(nil), c.SubTopics...)
	return copied
}
