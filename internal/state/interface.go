package state

import (
	"io"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// SetStore handles recommendation-set persistence.
type SetStore interface {
	SaveSet(set *models.RecommendationSet) error
	LatestSet() (*models.RecommendationSet, error)
}

// ResultStore handles execution-result persistence.
type ResultStore interface {
	SaveResult(res models.ExecutionResult) error
	GetResult(actionID string) (models.ExecutionResult, bool, error)
	RecentResults(limit int) ([]models.ExecutionResult, error)
	ClearResults() (int64, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Journal is the full persistence surface used by the orchestrator.
type Journal interface {
	io.Closer
	Migrator
	SetStore
	ResultStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Journal     = (*DB)(nil)
	_ Migrator    = (*DB)(nil)
	_ SetStore    = (*DB)(nil)
	_ ResultStore = (*DB)(nil)
)
