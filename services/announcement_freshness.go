package services

import "github.com/campusdesk/portal/models"

// IsAnnouncementUnread reports whether a was posted after the viewer last
// opened its batch. A batch never opened counts as last seen at epoch 0.
// Announcements without a batch are never unread.
func IsAnnouncementUnread(a models.Announcement, lastSeenByBatch map[string]int64) bool {
	if a.BatchID == "" {
		return false
	}
	return createdAtMillis(a) > lastSeenByBatch[a.BatchID]
}

// HasUnreadAnnouncements reports whether any announcement of batchID is
// unread. Announcements of other batches are ignored.
func HasUnreadAnnouncements(batchID string, announcements []models.Announcement, lastSeenByBatch map[string]int64) bool {
	if batchID == "" {
		return false
	}
	for _, a := range announcements {
		if a.BatchID == batchID && IsAnnouncementUnread(a, lastSeenByBatch) {
			return true
		}
	}
	return false
}

// createdAtMillis maps an unknown creation time to epoch 0, which is never
// after any last-seen value.
func createdAtMillis(a models.Announcement) int64 {
	if a.CreatedAt.IsZero() {
		return 0
	}
	return a.CreatedAt.UnixMilli()
}
