package projections

import (
	"context"
	"log/slog"

	"atelier/internal/application/normalize"
	"atelier/internal/domain/course"
	"atelier/internal/domain/gallery"
	"atelier/internal/domain/member"
)

// ProfileContentStore defines the content store interface needed by GetMemberProfile.
type ProfileContentStore interface {
	FetchMember(ctx context.Context, id string) (normalize.RawRecord, error)
	FetchAllCourses(ctx context.Context) ([]normalize.RawRecord, error)
	FetchAllGalleryItems(ctx context.Context) ([]normalize.RawRecord, error)
}

// GetMemberProfileQuery carries query parameters.
type GetMemberProfileQuery struct {
	MemberID string
}

// GetMemberProfileDeps holds dependencies for GetMemberProfile.
type GetMemberProfileDeps struct {
	ContentStore ProfileContentStore
}

// GetMemberProfileResult carries the assembled profile view data.
// Relationships are computed fresh on every call, never cached.
type GetMemberProfileResult struct {
	Member       member.Member
	Courses      []course.Course
	GalleryItems []gallery.Item
}

// QueryGetMemberProfile loads a member with their taught courses and artworks.
// PRE: query.MemberID is non-empty
// POST: Returns the member plus related collections in store order;
// malformed related records are skipped and logged, never fatal
func QueryGetMemberProfile(ctx context.Context, query GetMemberProfileQuery, deps GetMemberProfileDeps) (GetMemberProfileResult, error) {
	rawMember, err := deps.ContentStore.FetchMember(ctx, query.MemberID)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	m, err := normalize.Member(rawMember)
	if err != nil {
		return GetMemberProfileResult{}, err
	}

	rawCourses, err := deps.ContentStore.FetchAllCourses(ctx)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	courses, skippedCourses := normalize.Courses(rawCourses)

	rawItems, err := deps.ContentStore.FetchAllGalleryItems(ctx)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	items, skippedItems := normalize.GalleryItems(rawItems)

	if skippedCourses > 0 || skippedItems > 0 {
		slog.Warn("profile_records_skipped", "member_id", query.MemberID,
			"courses", skippedCourses, "gallery_items", skippedItems)
	}

	return GetMemberProfileResult{
		Member:       m,
		Courses:      CoursesTaughtBy(m.ID, courses),
		GalleryItems: GalleryByArtist(m.ID, items),
	}, nil
}
