package models

import (
	"encoding/json"
	"maps"
	"slices"
)

// ScopeKey namespaces every persisted read-state record of one viewer.
type ScopeKey string

// GuestScope is the scope of a viewer who is not authenticated.
const GuestScope ScopeKey = "guest"

// IDSet is a set of item ids. It serializes as a sorted JSON array.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, skipping empty strings.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether the set changed.
func (s IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the members in ascending order, never nil.
func (s IDSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// ReadState is everything one viewer has acknowledged.
//
// The seen sets only grow: there is no way to mark an item unread again.
// Clearing a viewer's records is an operator action outside the service.
type ReadState struct {
	SeenResources       IDSet            `json:"seen_resources"`
	SeenChapters        IDSet            `json:"seen_chapters"`
	SeenPublicResources IDSet            `json:"seen_public_resources"`
	LastSeenByBatch     map[string]int64 `json:"last_seen_by_batch"` // epoch ms
}

// NewReadState returns a state with empty, non-nil collections.
func NewReadState() ReadState {
	return ReadState{
		SeenResources:       IDSet{},
		SeenChapters:        IDSet{},
		SeenPublicResources: IDSet{},
		LastSeenByBatch:     map[string]int64{},
	}
}

// Clone returns a deep copy, so callers can hold a snapshot while the
// owner keeps mutating its own copy.
func (rs ReadState) Clone() ReadState {
	return ReadState{
		SeenResources:       rs.SeenResources.Clone(),
		SeenChapters:        rs.SeenChapters.Clone(),
		SeenPublicResources: rs.SeenPublicResources.Clone(),
		LastSeenByBatch:     maps.Clone(rs.LastSeenByBatch),
	}
}
