package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"smartmeal/internal/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to create db: %v", err)
	}
	s := NewStore(db.SQL)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	records := []ExecutionMetric{
		{Operation: OpReplan, Changed: 3, CostBefore: 110, CostAfter: 98, LatencyMS: 4, Timestamp: now},
		{Operation: OpGenerate, LatencyMS: 2, Timestamp: now},
		{Operation: OpSwap, Changed: 1, Timestamp: now.AddDate(0, 0, -40)},
	}
	for _, r := range records {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	t.Run("GetDailyUsage", func(t *testing.T) {
		usage, err := s.GetDailyUsage(ctx, 7)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		if len(usage) != 1 {
			t.Fatalf("Expected 1 day, got %d", len(usage))
		}
		u := usage[0]
		if u.Date != now.Format("2006-01-02") {
			t.Errorf("Expected date %s, got %s", now.Format("2006-01-02"), u.Date)
		}
		if u.Operations != 2 || u.Changed != 3 || u.Savings != 12 || u.AvgLatencyMS != 3 {
			t.Errorf("Unexpected usage: %+v", u)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		n, err := s.Cleanup(ctx, 30)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 row removed, got %d", n)
		}
		usage, _ := s.GetDailyUsage(ctx, 365)
		if len(usage) != 1 {
			t.Errorf("Expected only today left, got %d days", len(usage))
		}
	})
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.Observe(ExecutionMetric{Operation: OpReplan, Changed: 4, LatencyMS: 12})
	c.Observe(ExecutionMetric{Operation: OpReplan})
	c.Observe(ExecutionMetric{Operation: OpSwap, Changed: 1})

	if got := testutil.ToFloat64(c.operations.WithLabelValues(OpReplan)); got != 2 {
		t.Errorf("Expected 2 replans, got %v", got)
	}
	if got := testutil.ToFloat64(c.swaps); got != 4 {
		t.Errorf("Expected 4 swaps, got %v", got)
	}
	if n := testutil.CollectAndCount(c.duration); n != 2 {
		t.Errorf("Expected 2 duration series, got %d", n)
	}
}

func TestGetSysHealth(t *testing.T) {
	h := GetSysHealth(t.TempDir())
	if h.Goroutines == 0 {
		t.Error("Expected at least one goroutine")
	}
	if h.DataDiskSize != "0 B" {
		t.Errorf("Expected empty dir to be 0 B, got %s", h.DataDiskSize)
	}
}
