package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePayloadAcceptsBothConventions(t *testing.T) {
	cases := map[string]struct {
		body string
		want Resource
	}{
		"snake case": {
			body: `{"id":"r1","chapter_id":"c1","is_new":true}`,
			want: Resource{ID: "r1", ChapterID: "c1", New: true},
		},
		"camel case": {
			body: `{"id":"r1","chapterId":"c1","isNew":true}`,
			want: Resource{ID: "r1", ChapterID: "c1", New: true},
		},
		"snake wins for ids": {
			body: `{"id":"r1","chapter_id":"c1","chapterId":"c2"}`,
			want: Resource{ID: "r1", ChapterID: "c1"},
		},
		"either flag set counts": {
			body: `{"id":"r1","is_new":false,"isNew":true}`,
			want: Resource{ID: "r1", New: true},
		},
		"missing fields default": {
			body: `{"id":"r1"}`,
			want: Resource{ID: "r1"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var p ResourcePayload
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))
			assert.Equal(t, tc.want, p.Normalize())
		})
	}
}

func TestChapterPayloadNormalize(t *testing.T) {
	var p ChapterPayload
	require.NoError(t, json.Unmarshal([]byte(`{"id":" ch1 ","subjectId":"phy","batch_id":"b1","isNew":true}`), &p))

	assert.Equal(t, Chapter{ID: "ch1", SubjectID: "phy", BatchID: "b1", New: true}, p.Normalize())
}

func TestAnnouncementPayloadTimestamps(t *testing.T) {
	cases := map[string]struct {
		body string
		want time.Time
	}{
		"rfc3339 created_at": {
			body: `{"id":"a","batch_id":"b","created_at":"2024-05-12T10:00:00Z"}`,
			want: time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC),
		},
		"epoch millis": {
			body: `{"id":"a","batchId":"b","createdAt":1001}`,
			want: time.UnixMilli(1001).UTC(),
		},
		"date string only": {
			body: `{"id":"a","batch_id":"b","date":"2024-05-12"}`,
			want: time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
		},
		"machine timestamp preferred": {
			body: `{"id":"a","batch_id":"b","created_at":"2024-05-12T10:00:00Z","date":"2020-01-01"}`,
			want: time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC),
		},
		"unparseable machine timestamp falls back to date": {
			body: `{"id":"a","batch_id":"b","created_at":"yesterday","date":"Jan 2, 2024"}`,
			want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		"nothing usable": {
			body: `{"id":"a","batch_id":"b","date":"soon","created_at":null}`,
			want: time.Time{},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var p AnnouncementPayload
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))

			a := p.Normalize()
			assert.Equal(t, "b", a.BatchID)
			assert.True(t, tc.want.Equal(a.CreatedAt), "want %s, got %s", tc.want, a.CreatedAt)
		})
	}
}

func TestNormalizeSlices(t *testing.T) {
	rs := NormalizeResources([]ResourcePayload{{ID: "r1"}, {ID: "r2", ChapterIDCamel: "c"}})
	require.Len(t, rs, 2)
	assert.Equal(t, "c", rs[1].ChapterID)

	assert.Empty(t, NormalizeChapters(nil))
	assert.Empty(t, NormalizeAnnouncements(nil))
}
