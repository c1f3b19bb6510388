package projections

import (
	"atelier/internal/domain/course"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// CoursesTaughtBy returns the courses whose teacher set contains memberID.
// PRE: allCourses are normalized
// POST: Input order preserved; empty memberID matches nothing
func CoursesTaughtBy(memberID string, allCourses []course.Course) []course.Course {
	if memberID == "" {
		return []course.Course{}
	}
	taught := []course.Course{}
	for _, c := range allCourses {
		if c.HasTeacher(memberID) {
			taught = append(taught, c)
		}
	}
	return taught
}

// TeachersOf resolves a course's teacher ids to member entities.
// POST: Teacher-list order preserved; ids with no matching member are
// skipped silently (stale links never break a page)
func TeachersOf(c course.Course, allMembers []member.Member) []member.Member {
	byID := make(map[string]member.Member, len(allMembers))
	for _, m := range allMembers {
		byID[m.ID] = m
	}
	teachers := []member.Member{}
	for _, id := range c.TeacherIDs {
		if m, ok := byID[id]; ok {
			teachers = append(teachers, m)
		}
	}
	return teachers
}

// GalleryByArtist returns the gallery items attributed to memberID.
// PRE: allItems are normalized
// POST: Input order preserved; empty memberID matches nothing, items with
// no artist match nothing
func GalleryByArtist(memberID string, allItems []gallery.Item) []gallery.Item {
	if memberID == "" {
		return []gallery.Item{}
	}
	owned := []gallery.Item{}
	for _, item := range allItems {
		if item.ArtistID == memberID {
			owned = append(owned, item)
		}
	}
	return owned
}
