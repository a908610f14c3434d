package orchestrator

import (
	"sync"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// PipelineState holds the current recommendation set and the generation
// ticket counter. Sets are immutable once installed, so readers share the
// pointer without copying.
type PipelineState struct {
	mu        sync.RWMutex
	current   *models.RecommendationSet
	installed uint64
	next      uint64
}

// Ticket returns a fresh generation ticket, strictly greater than every
// ticket handed out or restored before.
func (s *PipelineState) Ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// Install makes set current if its generation is newer than the installed
// one. It reports whether the set was installed. Older tickets lose, so the
// last generation to start wins regardless of completion order.
func (s *PipelineState) Install(set *models.RecommendationSet) bool {
	if set == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && set.Generation <= s.installed {
		return false
	}
	s.current = set
	s.installed = set.Generation
	return true
}

// Restore installs a set loaded from the journal when nothing is current
// and moves the ticket counter past its generation.
func (s *PipelineState) Restore(set *models.RecommendationSet) bool {
	if set == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return false
	}
	if set.Generation > s.next {
		s.next = set.Generation
	}
	s.current = set
	s.installed = set.Generation
	return true
}

// Current returns the installed set, or nil before the first generation.
func (s *PipelineState) Current() *models.RecommendationSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// InstalledGeneration returns the ticket of the current set.
func (s *PipelineState) InstalledGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.installed
}
