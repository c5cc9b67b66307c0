// Package models holds the types shared by every layer: the content
// items whose freshness is tracked, the per-viewer read state and the
// request/response shapes of the API.
package models

import "time"

// Resource is a study resource (notes, DPP, mind map) inside a chapter.
// New is set upstream when the resource was published, never by this service.
type Resource struct {
	ID        string `json:"id"`
	ChapterID string `json:"chapter_id"`
	New       bool   `json:"is_new"`
}

// Chapter groups resources under a subject of a batch.
type Chapter struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	BatchID   string `json:"batch_id"`
	New       bool   `json:"is_new"`
}

// Announcement is one post on a batch timeline. Its freshness comes from
// comparing CreatedAt with the viewer's last visit of the batch.
type Announcement struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	CreatedAt time.Time `json:"created_at"`
}
