package course

import (
	"testing"

	"atelier/internal/domain/bilingual"
)

func TestHasTeacher(t *testing.T) {
	c := Course{ID: "c1", TeacherIDs: []string{"m1", "m2"}}
	if !c.HasTeacher("m1") {
		t.Error("expected m1 to be a teacher")
	}
	if c.HasTeacher("m3") {
		t.Error("did not expect m3 to be a teacher")
	}
	if c.HasTeacher("") {
		t.Error("empty id must never match")
	}
}

func TestAddTeacher_NoDuplicates(t *testing.T) {
	c := Course{ID: "c1"}
	c.AddTeacher("m1")
	c.AddTeacher("m1")
	if len(c.TeacherIDs) != 1 {
		t.Errorf("TeacherIDs = %v, want exactly one entry", c.TeacherIDs)
	}
}

func TestRemoveTeacher(t *testing.T) {
	c := Course{ID: "c1", TeacherIDs: []string{"m1", "m2", "m3"}}
	c.RemoveTeacher("m2")
	if c.HasTeacher("m2") {
		t.Error("m2 should have been removed")
	}
	if len(c.TeacherIDs) != 2 {
		t.Errorf("TeacherIDs = %v, want 2 entries", c.TeacherIDs)
	}
	// Removing an absent id is a no-op.
	c.RemoveTeacher("m9")
	if len(c.TeacherIDs) != 2 {
		t.Errorf("TeacherIDs = %v after no-op removal", c.TeacherIDs)
	}
}

func TestClone_Independent(t *testing.T) {
	c := Course{
		ID:         "c1",
		Title:      bilingual.Text{En: "Ceramics"},
		TeacherIDs: []string{"m1"},
		SubTopics:  []bilingual.Text{{En: "Glazing"}},
	}
	copied := c.Clone()
	copied.TeacherIDs[0] = "mX"
	copied.SubTopics[0].En = "Changed"
	if c.TeacherIDs[0] != "m1" {
		t.Error("clone shares TeacherIDs backing array")
	}
	if c.SubTopics[0].En != "Glazing" {
		t.Error("clone shares SubTopics backing array")
	}
}
