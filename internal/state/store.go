// Package state holds per-tool state in isolation. Each tool key owns an
// independent ToolState; switching the active key never resets another
// key's in-progress selections.
package state

import (
	"sync"

	"github.com/pmarinho/analisador-fiscal/internal/model"
)

// Patch is a partial state update merged shallowly onto the current
// value. Nil fields are left untouched; Inputs and Parameters entries
// replace the slot or parameter they name.
type Patch struct {
	Inputs       map[string]model.FileSlot
	Parameters   map[string]string
	Status       *model.ToolStatus
	Results      *[]model.ResultRecord
	ErrorMessage *string
}

// Status wraps a lifecycle value for use in a Patch.
func Status(s model.ToolStatus) *model.ToolStatus {
	return &s
}

// Results wraps a result set for use in a Patch. Passing a nil slice
// clears the stored results.
func Results(r []model.ResultRecord) *[]model.ResultRecord {
	return &r
}

// Message wraps an error message for use in a Patch. The empty string
// clears the stored message.
func Message(m string) *string {
	return &m
}

// Store is the keyed container of per-tool state. All access is
// serialized through one mutex; snapshots returned by Get are
// structurally independent of the stored values.
type Store struct {
	mu       sync.Mutex
	states   map[model.ToolKey]model.ToolState
	template func(model.ToolKey) model.ToolState
}

// NewStore creates a store whose initial per-key state is produced by
// template. A nil template yields an empty state with initialized maps.
func NewStore(template func(model.ToolKey) model.ToolState) *Store {
	return &Store{
		states:   make(map[model.ToolKey]model.ToolState),
		template: template,
	}
}

// Get returns a snapshot of the state for key, materializing the
// template on first access.
func (s *Store) Get(key model.ToolKey) model.ToolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(key).Clone()
}

// Update merges patch onto the current state for key.
func (s *Store) Update(key model.ToolKey, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(key, patch)
}

// UpdateFunc evaluates fn against the current state at update time, not
// a stale snapshot, so multi-step updates issued in rapid succession
// observe each other correctly.
func (s *Store) UpdateFunc(key model.ToolKey, fn func(prev model.ToolState) Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch := fn(s.loadLocked(key).Clone())
	s.applyLocked(key, patch)
}

func (s *Store) loadLocked(key model.ToolKey) model.ToolState {
	if cur, ok := s.states[key]; ok {
		return cur
	}
	var cur model.ToolState
	if s.template != nil {
		cur = s.template(key)
	}
	if cur.Inputs == nil {
		cur.Inputs = make(map[string]model.FileSlot)
	}
	if cur.Parameters == nil {
		cur.Parameters = make(map[string]string)
	}
	s.states[key] = cur
	return cur
}

func (s *Store) applyLocked(key model.ToolKey, patch Patch) {
	cur := s.loadLocked(key).Clone()
	for name, slot := range patch.Inputs {
		cur.Inputs[name] = slot
	}
	for name, value := range patch.Parameters {
		cur.Parameters[name] = value
	}
	if patch.Status != nil {
		cur.Status = *patch.Status
	}
	if patch.Results != nil {
		cur.Results = *patch.Results
	}
	if patch.ErrorMessage != nil {
		cur.ErrorMessage = *patch.ErrorMessage
	}
	s.states[key] = cur
}
