package domain

import (
	"encoding/json"
	"sort"
)

// StringSet is an unordered collection of distinct strings.
// It encodes as a sorted JSON array.
type StringSet map[string]struct{}

// NewStringSet builds a set from values, dropping duplicates.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was absent.
func (s StringSet) Add(v string) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Remove deletes v and reports whether it was present.
func (s StringSet) Remove(v string) bool {
	if _, ok := s[v]; !ok {
		return false
	}
	delete(s, v)
	return true
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Len() int {
	return len(s)
}

// Values returns the members in sorted order.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}
