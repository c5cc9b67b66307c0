package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Upstream content arrives with two naming conventions (snake_case from the
// REST backend, camelCase from older clients). The payload types below
// accept both and Normalize them once, at the boundary, so nothing past
// this file ever looks at alternate field names.

// ResourcePayload is a resource as sent by clients.
type ResourcePayload struct {
	ID             string `json:"id"`
	ChapterID      string `json:"chapter_id"`
	ChapterIDCamel string `json:"chapterId"`
	IsNew          *bool  `json:"is_new"`
	IsNewCamel     *bool  `json:"isNew"`
}

// Normalize returns the canonical Resource.
func (p ResourcePayload) Normalize() Resource {
	return Resource{
		ID:        strings.TrimSpace(p.ID),
		ChapterID: firstNonEmpty(p.ChapterID, p.ChapterIDCamel),
		New:       anyTrue(p.IsNew, p.IsNewCamel),
	}
}

// ChapterPayload is a chapter as sent by clients.
type ChapterPayload struct {
	ID             string `json:"id"`
	SubjectID      string `json:"subject_id"`
	SubjectIDCamel string `json:"subjectId"`
	BatchID        string `json:"batch_id"`
	BatchIDCamel   string `json:"batchId"`
	IsNew          *bool  `json:"is_new"`
	IsNewCamel     *bool  `json:"isNew"`
}

// Normalize returns the canonical Chapter.
func (p ChapterPayload) Normalize() Chapter {
	return Chapter{
		ID:        strings.TrimSpace(p.ID),
		SubjectID: firstNonEmpty(p.SubjectID, p.SubjectIDCamel),
		BatchID:   firstNonEmpty(p.BatchID, p.BatchIDCamel),
		New:       anyTrue(p.IsNew, p.IsNewCamel),
	}
}

// AnnouncementPayload is an announcement as sent by clients. The creation
// time is either a machine timestamp (created_at / createdAt) or only the
// display date string (date).
type AnnouncementPayload struct {
	ID             string    `json:"id"`
	BatchID        string    `json:"batch_id"`
	BatchIDCamel   string    `json:"batchId"`
	CreatedAt      LooseTime `json:"created_at"`
	CreatedAtCamel LooseTime `json:"createdAt"`
	Date           LooseTime `json:"date"`
}

// Normalize returns the canonical Announcement. The machine timestamp wins
// when both are present; with neither, CreatedAt is the zero time.
func (p AnnouncementPayload) Normalize() Announcement {
	a := Announcement{
		ID:      strings.TrimSpace(p.ID),
		BatchID: firstNonEmpty(p.BatchID, p.BatchIDCamel),
	}
	for _, t := range []LooseTime{p.CreatedAt, p.CreatedAtCamel, p.Date} {
		if !t.IsZero() {
			a.CreatedAt = t.Time
			break
		}
	}
	return a
}

// NormalizeResources normalizes a slice of payloads.
func NormalizeResources(in []ResourcePayload) []Resource {
	out := make([]Resource, 0, len(in))
	for _, p := range in {
		out = append(out, p.Normalize())
	}
	return out
}

// NormalizeChapters normalizes a slice of payloads.
func NormalizeChapters(in []ChapterPayload) []Chapter {
	out := make([]Chapter, 0, len(in))
	for _, p := range in {
		out = append(out, p.Normalize())
	}
	return out
}

// NormalizeAnnouncements normalizes a slice of payloads.
func NormalizeAnnouncements(in []AnnouncementPayload) []Announcement {
	out := make([]Announcement, 0, len(in))
	for _, p := range in {
		out = append(out, p.Normalize())
	}
	return out
}

// dateLayouts are tried in order for string timestamps.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// LooseTime decodes a JSON string in any of dateLayouts or a number of epoch
// milliseconds. Anything it cannot read decodes to the zero time instead
// of failing the whole payload.
type LooseTime struct {
	time.Time
}

func (t *LooseTime) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		if ms, err := strconv.ParseFloat(string(data), 64); err == nil && ms > 0 {
			t.Time = time.UnixMilli(int64(ms)).UTC()
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	t.Time = ParseLooseTime(s)
	return nil
}

// ParseLooseTime parses s with the first matching layout, or returns the
// zero time.
func ParseLooseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// anyTrue mirrors how upstream flags were always read: either name set to
// true counts.
func anyTrue(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil && *f {
			return true
		}
	}
	return false
}
