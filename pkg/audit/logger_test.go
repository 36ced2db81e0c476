package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

func tempCfg(t *testing.T) models.AuditConfig {
	t.Helper()
	return models.AuditConfig{
		Enabled:       true,
		DBPath:        filepath.Join(t.TempDir(), "audit_test.db"),
		RetentionDays: 30,
	}
}

func mustNew(t *testing.T, cfg models.AuditConfig) *Logger {
	t.Helper()
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleEntry() models.AuditEntry {
	return models.AuditEntry{
		RunID:       "run-001",
		TripID:      "trip-1",
		Destination: "Paris",
		Section:     models.SectionRestaurants,
		Status:      models.StatusSuccess,
		LatencyMs:   150,
		CreatedAt:   time.Now(),
	}
}

func TestLogAndQuery(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	if err := l.Log(ctx, sampleEntry()); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := l.Query(ctx, models.AuditQueryOpts{Section: models.SectionRestaurants})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].RunID != "run-001" || entries[0].TripID != "trip-1" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[0].Status != models.StatusSuccess {
		t.Errorf("expected success, got %s", entries[0].Status)
	}
}

func TestLogRunAndFilter(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	failed := sampleEntry()
	failed.Section = models.SectionWeather
	failed.Status = models.StatusFailure
	failed.ErrorKind = "auth_missing"
	failed.Reason = "provider auth error"

	other := sampleEntry()
	other.RunID = "run-002"

	if err := l.LogRun(ctx, []models.AuditEntry{sampleEntry(), failed, other}); err != nil {
		t.Fatalf("LogRun: %v", err)
	}

	byRun, err := l.Query(ctx, models.AuditQueryOpts{RunID: "run-001"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(byRun) != 2 {
		t.Fatalf("expected 2 entries for run-001, got %d", len(byRun))
	}

	failures, err := l.Query(ctx, models.AuditQueryOpts{Status: models.StatusFailure})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Reason != "provider auth error" || failures[0].ErrorKind != "auth_missing" {
		t.Errorf("unexpected failure entry %+v", failures[0])
	}
}

func TestLogReplacesSameRunSection(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	_ = l.Log(ctx, sampleEntry())
	e := sampleEntry()
	e.Status = models.StatusCacheHit
	_ = l.Log(ctx, e)

	entries, _ := l.Query(ctx, models.AuditQueryOpts{RunID: "run-001"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Status != models.StatusCacheHit {
		t.Errorf("expected cache_hit, got %s", entries[0].Status)
	}
}

func TestQuerySince(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	old := sampleEntry()
	old.RunID = "run-old"
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	_ = l.Log(ctx, old)
	_ = l.Log(ctx, sampleEntry())

	entries, err := l.Query(ctx, models.AuditQueryOpts{Since: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != "run-001" {
		t.Fatalf("expected only run-001, got %+v", entries)
	}
}

func TestCleanup(t *testing.T) {
	cfg := tempCfg(t)
	cfg.RetentionDays = 0 // everything is old
	l := mustNew(t, cfg)
	ctx := context.Background()

	entry := sampleEntry()
	entry.CreatedAt = time.Now().AddDate(0, 0, -1)
	_ = l.Log(ctx, entry)

	deleted, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	_ = l.Log(ctx, sampleEntry())
	e2 := sampleEntry()
	e2.RunID = "run-002"
	_ = l.Log(ctx, e2)

	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat row, got %d", len(stats))
	}
	if stats[0].Count != 2 || stats[0].Section != models.SectionRestaurants {
		t.Errorf("unexpected stat %+v", stats[0])
	}
}

func TestNilLoggerSafe(t *testing.T) {
	var l *Logger
	if err := l.Log(context.Background(), sampleEntry()); err != nil {
		t.Errorf("nil logger should be safe: %v", err)
	}
	if err := l.LogRun(context.Background(), []models.AuditEntry{sampleEntry()}); err != nil {
		t.Errorf("nil logger should be safe: %v", err)
	}
}

func TestNewInvalidPath(t *testing.T) {
	cfg := models.AuditConfig{
		Enabled: true,
		DBPath:  filepath.Join(os.TempDir(), "nonexistent", "deep", "path", "audit.db"),
	}
	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for invalid path")
	}
}
