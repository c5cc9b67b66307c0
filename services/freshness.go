package services

import "github.com/campusdesk/portal/models"

// The checks below are pure: they read the viewer's seen sets and never
// mutate them, so the result for a fixed input never depends on call order.

// IsResourceUnread reports whether r is flagged new and not yet opened.
func IsResourceUnread(r models.Resource, seenResources models.IDSet) bool {
	return r.New && !seenResources.Has(r.ID)
}

// IsPublicResourceUnread is IsResourceUnread against the public-resource set,
// which is tracked apart from the batch resources.
func IsPublicResourceUnread(r models.Resource, seenPublicResources models.IDSet) bool {
	return r.New && !seenPublicResources.Has(r.ID)
}

// IsChapterUnread reports whether the chapter itself is new and unseen, or
// any resource belonging to it is unread. Resources of other chapters in
// the slice are ignored.
func IsChapterUnread(ch models.Chapter, resources []models.Resource, seenChapters, seenResources models.IDSet) bool {
	if ch.New && !seenChapters.Has(ch.ID) {
		return true
	}
	for _, r := range resources {
		if r.ChapterID != ch.ID {
			continue
		}
		if IsResourceUnread(r, seenResources) {
			return true
		}
	}
	return false
}

// IsSubjectOrBatchUnread folds IsChapterUnread over chapters.
func IsSubjectOrBatchUnread(chapters []models.Chapter, resources []models.Resource, seenChapters, seenResources models.IDSet) bool {
	for _, ch := range chapters {
		if IsChapterUnread(ch, resources, seenChapters, seenResources) {
			return true
		}
	}
	return false
}

// IsSubjectUnread is IsSubjectOrBatchUnread restricted to the chapters of
// one subject. An empty subjectID considers every chapter.
func IsSubjectUnread(subjectID string, chapters []models.Chapter, resources []models.Resource, seenChapters, seenResources models.IDSet) bool {
	if subjectID == "" {
		return IsSubjectOrBatchUnread(chapters, resources, seenChapters, seenResources)
	}
	for _, ch := range chapters {
		if ch.SubjectID != subjectID {
			continue
		}
		if IsChapterUnread(ch, resources, seenChapters, seenResources) {
			return true
		}
	}
	return false
}

// CountUnreadResources returns how many of resources are unread.
func CountUnreadResources(resources []models.Resource, seenResources models.IDSet) int {
	n := 0
	for _, r := range resources {
		if IsResourceUnread(r, seenResources) {
			n++
		}
	}
	return n
}
