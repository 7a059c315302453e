package state

import "time"

// State is the persisted record of what a pipeline already published. Keys
// only ever grow.
type State struct {
	keys     []string
	index    map[string]bool
	LastSync *time.Time
}

func New() *State {
	return &State{index: make(map[string]bool)}
}

func (s *State) Contains(key string) bool {
	return s.index[key]
}

// Record adds key. Recording a known key is a no-op.
func (s *State) Record(key string) {
	if s.index[key] {
		return
	}
	s.index[key] = true
	s.keys = append(s.keys, key)
}

// Keys returns the recorded keys in insertion order.
func (s *State) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

func (s *State) Len() int {
	return len(s.keys)
}
