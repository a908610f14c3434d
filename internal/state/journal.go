package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

// SaveSet records a recommendation set. Saving the same set id twice
// replaces the stored payload.
func (db *DB) SaveSet(set *models.RecommendationSet) error {
	if set == nil {
		return errors.New("save set: nil set")
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode set: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.conn.Exec(`
		INSERT INTO recommendation_sets (id, generation, payload, is_fallback, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generation = excluded.generation,
			payload = excluded.payload,
			is_fallback = excluded.is_fallback,
			created_at = excluded.created_at
	`, set.ID, int64(set.Generation), string(payload), set.IsFallback, formatTime(set.Timestamp))
	if err != nil {
		return fmt.Errorf("save set %s: %w", set.ID, err)
	}
	return nil
}

// LatestSet returns the most recently saved set, or nil if none exists.
func (db *DB) LatestSet() (*models.RecommendationSet, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var payload, createdAt string
	err := db.conn.QueryRow(`SELECT payload, created_at FROM recommendation_sets ORDER BY seq DESC LIMIT 1`).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest set: %w", err)
	}

	var set models.RecommendationSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, fmt.Errorf("decode set: %w", err)
	}
	if set.Timestamp.IsZero() {
		if ts, err := parseTime(createdAt); err == nil {
			set.Timestamp = ts
		}
	}
	return &set, nil
}

// CountSets returns how many sets have been journaled.
func (db *DB) CountSets() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM recommendation_sets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sets: %w", err)
	}
	return n, nil
}

// SaveResult upserts an execution result keyed by its action id.
func (db *DB) SaveResult(res models.ExecutionResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.conn.Exec(`
		INSERT INTO execution_results (action_id, payload, kind, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(action_id) DO UPDATE SET
			payload = excluded.payload,
			kind = excluded.kind,
			created_at = excluded.created_at
	`, res.ActionID, string(payload), string(res.Kind), formatTime(res.Timestamp))
	if err != nil {
		return fmt.Errorf("save result %s: %w", res.ActionID, err)
	}
	return nil
}

// GetResult returns the stored result for actionID.
func (db *DB) GetResult(actionID string) (models.ExecutionResult, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var payload string
	err := db.conn.QueryRow(`SELECT payload FROM execution_results WHERE action_id = ?`, actionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExecutionResult{}, false, nil
	}
	if err != nil {
		return models.ExecutionResult{}, false, fmt.Errorf("query result %s: %w", actionID, err)
	}

	var res models.ExecutionResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return models.ExecutionResult{}, false, fmt.Errorf("decode result %s: %w", actionID, err)
	}
	return res, true, nil
}

// RecentResults returns up to limit results, newest first.
// A limit of zero or less returns every stored result.
func (db *DB) RecentResults(limit int) ([]models.ExecutionResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `SELECT payload FROM execution_results ORDER BY created_at DESC, action_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []models.ExecutionResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var res models.ExecutionResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// ClearResults deletes every stored result and returns how many were removed.
func (db *DB) ClearResults() (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.Exec(`DELETE FROM execution_results`)
	if err != nil {
		return 0, fmt.Errorf("clear results: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}
