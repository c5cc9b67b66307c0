package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusdesk/portal/models"
)

func TestResolveScope(t *testing.T) {
	assert.Equal(t, models.GuestScope, ResolveScope(""))
	assert.Equal(t, models.GuestScope, ResolveScope("   "))
	assert.Equal(t, models.ScopeKey("u42"), ResolveScope(" u42 "))
}

func TestIsResourceUnread(t *testing.T) {
	seen := models.NewIDSet("r1")

	assert.False(t, IsResourceUnread(models.Resource{ID: "r1", New: true}, seen))
	assert.True(t, IsResourceUnread(models.Resource{ID: "r2", New: true}, seen))
	assert.False(t, IsResourceUnread(models.Resource{ID: "r3", New: false}, seen))
	assert.True(t, IsResourceUnread(models.Resource{ID: "r2", New: true}, nil))
}

func TestPublicResourcesUseTheirOwnSet(t *testing.T) {
	r := models.Resource{ID: "p1", New: true}

	assert.True(t, IsPublicResourceUnread(r, models.NewIDSet()))
	assert.False(t, IsPublicResourceUnread(r, models.NewIDSet("p1")))
	assert.True(t, IsPublicResourceUnread(r, nil))
}

func TestChapterUnreadBubblesFromResource(t *testing.T) {
	ch := models.Chapter{ID: "c", New: false}
	r := models.Resource{ID: "r", ChapterID: "c", New: true}

	assert.True(t, IsChapterUnread(ch, []models.Resource{r}, models.NewIDSet("c"), models.NewIDSet()))
	assert.False(t, IsChapterUnread(ch, []models.Resource{r}, models.NewIDSet("c"), models.NewIDSet("r")))
}

func TestChapterUnreadWhenItselfNew(t *testing.T) {
	ch := models.Chapter{ID: "c", New: true}

	assert.True(t, IsChapterUnread(ch, nil, models.NewIDSet(), models.NewIDSet()))
	assert.False(t, IsChapterUnread(ch, nil, models.NewIDSet("c"), models.NewIDSet()))
}

func TestChapterIgnoresResourcesOfOtherChapters(t *testing.T) {
	ch := models.Chapter{ID: "c1"}
	other := models.Resource{ID: "r", ChapterID: "c2", New: true}

	assert.False(t, IsChapterUnread(ch, []models.Resource{other}, nil, nil))
}

func TestChapterUnreadOrderIndependent(t *testing.T) {
	ch := models.Chapter{ID: "c"}
	resources := []models.Resource{
		{ID: "a", ChapterID: "c", New: true},
		{ID: "b", ChapterID: "c", New: false},
		{ID: "x", ChapterID: "other", New: true},
		{ID: "d", ChapterID: "c", New: true},
	}

	for _, seen := range []models.IDSet{
		models.NewIDSet(),
		models.NewIDSet("a"),
		models.NewIDSet("a", "d"),
		models.NewIDSet("a", "b", "d"),
	} {
		want := IsChapterUnread(ch, resources, nil, seen)
		for _, perm := range permutations(resources) {
			assert.Equal(t, want, IsChapterUnread(ch, perm, nil, seen), "seen=%v order=%v", seen.IDs(), perm)
		}
	}
}

func TestPhysicsSubjectScenario(t *testing.T) {
	chapters := []models.Chapter{
		{ID: "ch1", SubjectID: "physics", New: false},
		{ID: "ch2", SubjectID: "physics", New: true},
	}
	resources := []models.Resource{{ID: "res1", ChapterID: "ch2", New: true}}
	seenChapters := models.NewIDSet("ch1")
	seenResources := models.NewIDSet()

	assert.True(t, IsSubjectOrBatchUnread(chapters, resources, seenChapters, seenResources))
	assert.True(t, IsSubjectUnread("physics", chapters, resources, seenChapters, seenResources))
	assert.False(t, IsSubjectUnread("chemistry", chapters, resources, seenChapters, seenResources))

	// opening ch2 alone is not enough while res1 is unread
	seenChapters.Add("ch2")
	assert.True(t, IsSubjectOrBatchUnread(chapters, resources, seenChapters, seenResources))

	seenResources.Add("res1")
	assert.False(t, IsSubjectOrBatchUnread(chapters, resources, seenChapters, seenResources))
}

func TestSubjectUnreadEmptySubjectMeansAll(t *testing.T) {
	chapters := []models.Chapter{{ID: "c", SubjectID: "math", New: true}}

	assert.True(t, IsSubjectUnread("", chapters, nil, nil, nil))
}

func TestCountUnreadResources(t *testing.T) {
	resources := []models.Resource{
		{ID: "a", New: true},
		{ID: "b", New: true},
		{ID: "c", New: false},
	}
	assert.Equal(t, 1, CountUnreadResources(resources, models.NewIDSet("a")))
	assert.Equal(t, 0, CountUnreadResources(nil, nil))
}

func TestAnnouncementBoundary(t *testing.T) {
	lastSeen := map[string]int64{"B": 1000}
	at := func(ms int64) models.Announcement {
		return models.Announcement{ID: "a", BatchID: "B", CreatedAt: time.UnixMilli(ms)}
	}

	assert.False(t, IsAnnouncementUnread(at(999), lastSeen))
	assert.False(t, IsAnnouncementUnread(at(1000), lastSeen))
	assert.True(t, IsAnnouncementUnread(at(1001), lastSeen))
}

func TestAnnouncementDefaultFreshness(t *testing.T) {
	a := models.Announcement{ID: "a", BatchID: "never-visited", CreatedAt: time.UnixMilli(1)}

	assert.True(t, IsAnnouncementUnread(a, map[string]int64{}))
	assert.True(t, IsAnnouncementUnread(a, nil))
}

func TestAnnouncementWithoutTimestampOrBatch(t *testing.T) {
	assert.False(t, IsAnnouncementUnread(models.Announcement{ID: "a", BatchID: "B"}, nil))
	assert.False(t, IsAnnouncementUnread(models.Announcement{ID: "a", CreatedAt: time.UnixMilli(5000)}, nil))
}

func TestHasUnreadAnnouncementsFiltersByBatch(t *testing.T) {
	anns := []models.Announcement{
		{ID: "1", BatchID: "A", CreatedAt: time.UnixMilli(500)},
		{ID: "2", BatchID: "B", CreatedAt: time.UnixMilli(3000)},
	}
	lastSeen := map[string]int64{"A": 1000, "B": 1000}

	assert.False(t, HasUnreadAnnouncements("A", anns, lastSeen))
	assert.True(t, HasUnreadAnnouncements("B", anns, lastSeen))
	assert.False(t, HasUnreadAnnouncements("C", anns, lastSeen))
	assert.False(t, HasUnreadAnnouncements("", anns, lastSeen))
}

func permutations(in []models.Resource) [][]models.Resource {
	if len(in) <= 1 {
		return [][]models.Resource{append([]models.Resource(nil), in...)}
	}
	var out [][]models.Resource
	for i := range in {
		rest := make([]models.Resource, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]models.Resource{in[i]}, p...))
		}
	}
	return out
}
