package session

import (
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Snapshot is a serializable view of a session, sent to front ends after
// every key.
type Snapshot struct {
	ID        string              `json:"id"`
	State     State               `json:"state"`
	Display   string              `json:"display"`
	Buffer    string              `json:"buffer"`
	History   string              `json:"history"`
	Memory    float64             `json:"memory"`
	AngleMode evaluator.AngleMode `json:"angle_mode"`
	Error     *types.Error        `json:"error,omitempty"`
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Display:   s.Display(),
		Buffer:    s.buffer,
		History:   s.history,
		Memory:    s.ctx.MemoryRecall(),
		AngleMode: s.ctx.AngleMode(),
	}
	if err := s.LastError(); err != nil {
		if diag, ok := types.AsDiagnostic(err); ok {
			snap.Error = diag
		} else {
			snap.Error = types.NewError(types.ErrInternal, err.Error(), -1)
		}
	}
	return snap
}
