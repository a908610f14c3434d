package orchestrator

import (
	"github.com/backpack455/hack-mit-sub000/internal/state"
)

// Journal persists sets and results across processes. *state.DB satisfies it.
type Journal interface {
	state.SetStore
	state.ResultStore
}

var _ Journal = (*state.DB)(nil)
