package models

import "time"

// SessionInfo describes one execution context (an open view of the
// portal). Each session holds its own in-memory copy of the read state.
type SessionInfo struct {
	ID       string    `json:"session_id"`
	Scope    ScopeKey  `json:"scope"`
	OpenedAt time.Time `json:"opened_at"`
}

// MarkResult is returned by every mark operation.
// Persisted is false when the durable write failed; the in-memory state
// was updated anyway and Warning carries the reason.
type MarkResult struct {
	ID        string `json:"id"`
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
}

// BatchSeenResult is returned by the mark-batch-seen operation.
type BatchSeenResult struct {
	BatchID    string `json:"batch_id"`
	LastSeenAt int64  `json:"last_seen_at"` // epoch ms
	Persisted  bool   `json:"persisted"`
	Warning    string `json:"warning,omitempty"`
}

// UnreadResult answers every unread query.
type UnreadResult struct {
	Unread bool `json:"unread"`
}

// ChapterUnreadRequest is the body of the chapter unread query.
type ChapterUnreadRequest struct {
	Chapter   ChapterPayload    `json:"chapter"`
	Resources []ResourcePayload `json:"resources"`
}

// SubjectUnreadRequest is the body of the subject/batch unread query.
// With SubjectID set only chapters of that subject are considered.
type SubjectUnreadRequest struct {
	SubjectID string            `json:"subject_id"`
	Chapters  []ChapterPayload  `json:"chapters"`
	Resources []ResourcePayload `json:"resources"`
}

// AnnouncementsUnreadRequest is the body of the batch announcements query.
type AnnouncementsUnreadRequest struct {
	Announcements []AnnouncementPayload `json:"announcements"`
}
