package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Operation names recorded in the metrics table.
const (
	OpGenerate   = "generate"
	OpSwap       = "swap"
	OpSwapWith   = "swap_with"
	OpRegenerate = "regenerate"
	OpReplan     = "replan"
	OpGrocery    = "grocery"
	OpClip       = "clip"
	OpPublish    = "publish"
)

// ExecutionMetric records one planning operation.
type ExecutionMetric struct {
	Operation  string
	Changed    int
	CostBefore float64
	CostAfter  float64
	LatencyMS  int64
	Timestamp  time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_metrics (operation, changed, cost_before, cost_after, latency_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Operation, m.Changed, m.CostBefore, m.CostAfter, m.LatencyMS, ts.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// timeLayout keeps timestamps sortable and groupable with SQLite's date().
const timeLayout = "2006-01-02 15:04:05"

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DailyUsage aggregates the operations of a single day.
type DailyUsage struct {
	Date         string  `json:"date"`
	Operations   int     `json:"operations"`
	Changed      int     `json:"changed"`
	Savings      float64 `json:"savings"`
	AvgLatencyMS float64 `json:"avgLatencyMs"`
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(timestamp) AS day, COUNT(*), COALESCE(SUM(changed), 0),
		        COALESCE(SUM(cost_before - cost_after), 0), COALESCE(AVG(latency_ms), 0)
		 FROM execution_metrics
		 WHERE timestamp >= ?
		 GROUP BY day
		 ORDER BY day DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var (
			u   DailyUsage
			day sql.NullString
		)
		if err := rows.Scan(&day, &u.Operations, &u.Changed, &u.Savings, &u.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.Date = "Unknown"
		if day.Valid {
			u.Date = day.String
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// reports how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM execution_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}

// Since builds a metric for an operation that started at start.
func Since(op string, start time.Time, changed int, costBefore, costAfter float64) ExecutionMetric {
	return ExecutionMetric{
		Operation:  op,
		Changed:    changed,
		CostBefore: costBefore,
		CostAfter:  costAfter,
		LatencyMS:  time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
}
