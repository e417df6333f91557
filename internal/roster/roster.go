// Package roster manages council and chairman selection and the invariants
// gating turn submission.
package roster

import (
	"fmt"

	"github.com/llm-council/council-client/internal/model"
)

const (
	// MinCouncilSize is the smallest confirmable council.
	MinCouncilSize = 5
	// MaxCouncilSize is the cap; toggles past it are no-ops, never errors.
	MaxCouncilSize = 8
)

// ValidationError is a user-facing selection problem. It is reported
// synchronously before any network call and is never sent to the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Selection is an in-progress roster choice: an ordered council set and a
// single chairman. The chairman may also sit on the council; there is no
// exclusivity constraint.
type Selection struct {
	Council  []string
	Chairman string
}

// ToggleCouncil adds or removes a council member, preserving order. Adding
// past MaxCouncilSize leaves the selection unchanged: the UI must never be
// allowed to exceed the cap.
func (s *Selection) ToggleCouncil(id string) {
	for i, existing := range s.Council {
		if existing == id {
			s.Council = append(s.Council[:i], s.Council[i+1:]...)
			return
		}
	}
	if len(s.Council) >= MaxCouncilSize {
		return
	}
	s.Council = append(s.Council, id)
}

// SetChairman replaces the chairman selection.
func (s *Selection) SetChairman(id string) {
	s.Chairman = id
}

// HasCouncil reports whether id is currently selected.
func (s Selection) HasCouncil(id string) bool {
	for _, existing := range s.Council {
		if existing == id {
			return true
		}
	}
	return false
}

// Confirm validates the selection for submission: council size within
// [MinCouncilSize, MaxCouncilSize], entries unique, chairman chosen.
func (s Selection) Confirm() error {
	if len(s.Council) < MinCouncilSize || len(s.Council) > MaxCouncilSize {
		return &ValidationError{
			Field: "council",
			Reason: fmt.Sprintf("select between %d and %d members (have %d)",
				MinCouncilSize, MaxCouncilSize, len(s.Council)),
		}
	}
	seen := make(map[string]struct{}, len(s.Council))
	for _, id := range s.Council {
		if _, dup := seen[id]; dup {
			return &ValidationError{Field: "council", Reason: fmt.Sprintf("duplicate member %q", id)}
		}
		seen[id] = struct{}{}
	}
	if s.Chairman == "" {
		return &ValidationError{Field: "chairman", Reason: "select a chairman"}
	}
	return nil
}

// Metadata converts a confirmed selection into conversation metadata.
func (s Selection) Metadata() model.ConversationMetadata {
	council := make([]string, len(s.Council))
	copy(council, s.Council)
	return model.ConversationMetadata{
		CouncilModels: council,
		ChairmanModel: s.Chairman,
	}
}

// Default builds the opening selection when no prior roster exists: the first
// MinCouncilSize models capable of sitting on the council, and the first
// model capable of chairing. If no capable model exists the relevant field is
// left empty and the user must choose explicitly.
func Default(models []model.ModelInfo) Selection {
	var sel Selection
	for _, m := range models {
		if len(sel.Council) < MinCouncilSize && m.CanSitOnCouncil() {
			sel.Council = append(sel.Council, m.ID)
		}
		if sel.Chairman == "" && m.CanChair() {
			sel.Chairman = m.ID
		}
	}
	return sel
}
