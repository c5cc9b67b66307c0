package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/campusdesk/portal/models"
)

// Category is one of the four persisted read-state collections.
type Category string

const (
	CategoryResources       Category = "seen_res"
	CategoryChapters        Category = "seen_ch"
	CategoryPublicResources Category = "seen_public_res"
	CategoryBatchLastSeen   Category = "batch_last_seen"
)

// Categories lists every collection, in load order.
var Categories = []Category{
	CategoryResources,
	CategoryChapters,
	CategoryPublicResources,
	CategoryBatchLastSeen,
}

// Key returns the record key of this category for scope, e.g. "seen_res_u42".
func (c Category) Key(scope models.ScopeKey) string {
	return string(c) + "_" + string(scope)
}

// ReadError reports a record the backend failed to read. Unlike a malformed
// record, the stored value may still be intact.
type ReadError struct {
	Category Category
	Key      string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// UnreadableCategories lists the categories err reports as unreadable.
func UnreadableCategories(err error) []Category {
	var out []Category
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if re, ok := err.(*ReadError); ok {
			out = append(out, re.Category)
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		walk(errors.Unwrap(err))
	}
	walk(err)
	return out
}

// ReadStateRepository persists the four read-state collections of a scope.
//
// Load never fails hard: a record that is missing, unreadable or malformed
// loads as an empty collection, and the problems are returned joined in
// err next to a fully usable state. Read failures are reported as
// *ReadError so callers can avoid overwriting a record they never saw.
type ReadStateRepository interface {
	Load(ctx context.Context, scope models.ScopeKey) (models.ReadState, error)
	SaveSet(ctx context.Context, scope models.ScopeKey, category Category, ids models.IDSet) error
	SaveBatchLastSeen(ctx context.Context, scope models.ScopeKey, lastSeen map[string]int64) error
	Clear(ctx context.Context, scope models.ScopeKey) error
}

type kvReadStateRepo struct {
	kv KVStore
}

// NewReadStateRepo returns a ReadStateRepository storing JSON documents in kv.
func NewReadStateRepo(kv KVStore) ReadStateRepository {
	return &kvReadStateRepo{kv: kv}
}

func (r *kvReadStateRepo) Load(ctx context.Context, scope models.ScopeKey) (models.ReadState, error) {
	state := models.NewReadState()
	var problems []error

	for _, category := range Categories {
		raw, found, err := r.kv.Get(ctx, category.Key(scope))
		if err != nil {
			problems = append(problems, &ReadError{Category: category, Key: category.Key(scope), Err: err})
			continue
		}
		if !found {
			continue
		}

		switch category {
		case CategoryResources:
			err = decodeSet(raw, &state.SeenResources)
		case CategoryChapters:
			err = decodeSet(raw, &state.SeenChapters)
		case CategoryPublicResources:
			err = decodeSet(raw, &state.SeenPublicResources)
		case CategoryBatchLastSeen:
			err = decodeBatchLastSeen(raw, &state.LastSeenByBatch)
		}
		if err != nil {
			problems = append(problems, fmt.Errorf("malformed %s: %w", category.Key(scope), err))
		}
	}

	return state, errors.Join(problems...)
}

func (r *kvReadStateRepo) SaveSet(ctx context.Context, scope models.ScopeKey, category Category, ids models.IDSet) error {
	if category == CategoryBatchLastSeen {
		return fmt.Errorf("category %s is not a set", category)
	}

	payload, err := json.Marshal(ids.IDs())
	if err != nil {
		return fmt.Errorf("marshal %s: %w", category, err)
	}
	return r.kv.Set(ctx, category.Key(scope), payload)
}

func (r *kvReadStateRepo) SaveBatchLastSeen(ctx context.Context, scope models.ScopeKey, lastSeen map[string]int64) error {
	if lastSeen == nil {
		lastSeen = map[string]int64{}
	}
	payload, err := json.Marshal(lastSeen)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", CategoryBatchLastSeen, err)
	}
	return r.kv.Set(ctx, CategoryBatchLastSeen.Key(scope), payload)
}

// Clear deletes every record of scope. Only operator tooling calls it.
func (r *kvReadStateRepo) Clear(ctx context.Context, scope models.ScopeKey) error {
	keys := make([]string, 0, len(Categories))
	for _, category := range Categories {
		keys = append(keys, category.Key(scope))
	}
	return r.kv.Delete(ctx, keys...)
}

// decodeSet only replaces dst when the whole document is a JSON array of
// strings; on error dst keeps its empty value.
func decodeSet(raw []byte, dst *models.IDSet) error {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	*dst = models.NewIDSet(ids...)
	return nil
}

// decodeBatchLastSeen accepts any JSON number as milliseconds; fractions
// are truncated. Entries outside the int64 range are dropped and reported,
// the rest of the record still loads.
func decodeBatchLastSeen(raw []byte, dst *map[string]int64) error {
	var parsed map[string]float64
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return err
	}
	out := make(map[string]int64, len(parsed))
	var dropped []string
	for batchID, ms := range parsed {
		if batchID == "" {
			continue
		}
		if math.IsNaN(ms) || ms < math.MinInt64 || ms >= math.MaxInt64 {
			dropped = append(dropped, batchID)
			continue
		}
		out[batchID] = int64(ms)
	}
	*dst = out
	if len(dropped) > 0 {
		sort.Strings(dropped)
		return fmt.Errorf("timestamp out of range for batches %v", dropped)
	}
	return nil
}
