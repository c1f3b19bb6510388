package editsession

import "sort"

// ChangeTracker accumulates pending course-teacher association changes for
// one edit session. A course id is never in both sets at once; the
// most recent toggle wins.
type ChangeTracker struct {
	add    map[string]struct{}
	remove map[string]struct{}
}

// NewChangeTracker creates an empty tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{
		add:    make(map[string]struct{}),
		remove: make(map[string]struct{}),
	}
}

// Toggle records a teach/un-teach intent for a course.
// currentlyTeaching is the persisted state (the snapshot, not the pending view),
// so toggling twice from the same starting state cancels out.
// POST: courseID appears in at most one of the two sets
func (t *ChangeTracker) Toggle(courseID string, currentlyTeaching bool) {
	if courseID == "" {
		return
	}
	if currentlyTeaching {
		delete(t.add, courseID)
		if _, pending := t.remove[courseID]; pending {
			delete(t.remove, courseID)
		} else {
			t.remove[courseID] = struct{}{}
		}
		return
	}
	delete(t.remove, courseID)
	if _, pending := t.add[courseID]; pending {
		delete(t.add, courseID)
	} else {
		t.add[courseID] = struct{}{}
	}
}

// PendingAdd reports whether courseID has a pending addition.
func (t *ChangeTracker) PendingAdd(courseID string) bool {
	_, ok := t.add[courseID]
	return ok
}

// PendingRemove reports whether courseID has a pending removal.
func (t *ChangeTracker) PendingRemove(courseID string) bool {
	_, ok := t.remove[courseID]
	return ok
}

// Empty returns true when no changes are pending.
func (t *ChangeTracker) Empty() bool {
	return len(t.add) == 0 && len(t.remove) == 0
}

// Pending returns copies of both sets without clearing them. Sorted so
// commit issues calls in a deterministic order.
func (t *ChangeTracker) Pending() (adds, removes []string) {
	return sortedKeys(t.add), sortedKeys(t.remove)
}

// Flush returns both sets and clears the tracker.
// POST: Tracker is empty
func (t *ChangeTracker) Flush() (adds, removes []string) {
	adds, removes = t.Pending()
	t.Reset()
	return adds, removes
}

// Reset discards all pending changes.
func (t *ChangeTracker) Reset() {
	t.add = make(map[string]struct{})
	t.remove = make(map[string]struct{})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
