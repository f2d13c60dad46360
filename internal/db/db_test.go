package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/crux-data/vitals.report/internal/vitals"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("expected clean migration state")
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

func TestMigrateDownRemovesSchema(t *testing.T) {
	db := setupTestDB(t)

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("expected clean migration state")
	}
	if version != 0 {
		t.Errorf("expected version 0 after down, got %d", version)
	}

	if _, err := db.CountSamples(); err == nil {
		t.Error("expected CountSamples to fail after schema removal")
	}
}

func TestEntityUpsertAndList(t *testing.T) {
	db := setupTestDB(t)

	err := db.UpsertEntities([]Entity{
		{Name: "Canal5", Group: "broadcast"},
		{Name: "Azteca7", Group: "broadcast"},
	})
	if err != nil {
		t.Fatalf("UpsertEntities failed: %v", err)
	}

	// Re-upsert with a changed group; should replace, not duplicate.
	err = db.UpsertEntities([]Entity{{Name: "Canal5", Group: "news"}})
	if err != nil {
		t.Fatalf("second UpsertEntities failed: %v", err)
	}

	entities, err := db.ListEntities()
	if err != nil {
		t.Fatalf("ListEntities failed: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if entities[0].Name != "Azteca7" {
		t.Errorf("expected entities ordered by name, got %q first", entities[0].Name)
	}
	if entities[1].Group != "news" {
		t.Errorf("expected updated group %q, got %q", "news", entities[1].Group)
	}
}

func TestSampleRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	samples := []vitals.Sample{
		{Entity: "Azteca7", Date: "2024-01-01", Variant: "phone", Metric: vitals.MetricLCP, Value: vitals.Float(2500)},
		{Entity: "Azteca7", Date: "2024-01-02", Variant: "phone", Metric: vitals.MetricLCP, Value: nil},
		{Entity: "Azteca7", Date: "2024-01-01", Variant: "phone", Metric: vitals.MetricScore, Value: vitals.Float(72.5)},
	}
	if err := db.InsertSamples(samples); err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}

	loaded, err := db.LoadSamples()
	if err != nil {
		t.Fatalf("LoadSamples failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(loaded))
	}

	// Ordered by day first, so the absent Jan 2 sample comes last.
	absent := loaded[2]
	if absent.Date != "2024-01-02" {
		t.Fatalf("expected absent sample on 2024-01-02, got %s", absent.Date)
	}
	if absent.Value != nil {
		t.Errorf("expected NULL value to load as nil, got %v", *absent.Value)
	}

	for _, s := range loaded[:2] {
		if s.Value == nil {
			t.Errorf("expected present value for %s/%s", s.Date, s.Metric)
		}
	}
}

func TestInsertSamplesReplacesExisting(t *testing.T) {
	db := setupTestDB(t)

	key := vitals.Sample{Entity: "Canal5", Date: "2024-01-01", Variant: "phone", Metric: vitals.MetricCLS}
	first := key
	first.Value = vitals.Float(0.25)
	second := key
	second.Value = vitals.Float(0.1)

	if err := db.InsertSamples([]vitals.Sample{first}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := db.InsertSamples([]vitals.Sample{second}); err != nil {
		t.Fatalf("second insert failed: %v", err)
	}

	n, err := db.CountSamples()
	if err != nil {
		t.Fatalf("CountSamples failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 sample after replace, got %d", n)
	}

	loaded, err := db.LoadSamples()
	if err != nil {
		t.Fatalf("LoadSamples failed: %v", err)
	}
	if got := *loaded[0].Value; got != 0.1 {
		t.Errorf("expected replaced value 0.1, got %v", got)
	}
}

func TestReportRunCRUD(t *testing.T) {
	db := setupTestDB(t)

	run := &ReportRun{
		Entity:     "Azteca7",
		Variant:    "phone",
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
		RunID:      "f2a1d9c0-1111-2222-3333-444455556666",
		OutputPath: "/tmp/reports/azteca7.html",
	}
	if err := db.CreateReportRun(run); err != nil {
		t.Fatalf("CreateReportRun failed: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected CreateReportRun to assign an ID")
	}

	got, err := db.GetReportRun(run.ID)
	if err != nil {
		t.Fatalf("GetReportRun failed: %v", err)
	}
	if got.Entity != run.Entity || got.RunID != run.RunID || got.OutputPath != run.OutputPath {
		t.Errorf("retrieved run does not match: got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	runs, err := db.ListRecentReportRuns(10)
	if err != nil {
		t.Fatalf("ListRecentReportRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	if err := db.DeleteReportRun(run.ID); err != nil {
		t.Fatalf("DeleteReportRun failed: %v", err)
	}

	if _, err := db.GetReportRun(run.ID); err == nil {
		t.Error("expected GetReportRun to fail after delete")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got: %v", err)
	}

	if err := db.DeleteReportRun(run.ID); err == nil {
		t.Error("expected second delete to fail")
	}
}

func TestLoadSamplesFeedsStore(t *testing.T) {
	db := setupTestDB(t)

	samples := []vitals.Sample{
		{Entity: "Canal5", Date: "2024-01-02", Variant: "phone", Metric: vitals.MetricScore, Value: vitals.Float(80)},
		{Entity: "Canal5", Date: "2024-01-01", Variant: "phone", Metric: vitals.MetricScore, Value: vitals.Float(70)},
	}
	if err := db.InsertSamples(samples); err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}

	loaded, err := db.LoadSamples()
	if err != nil {
		t.Fatalf("LoadSamples failed: %v", err)
	}

	store := vitals.NewStore(loaded)
	cal := store.Calendar()
	if len(cal) != 2 || cal[0] != "2024-01-01" {
		t.Fatalf("expected sorted calendar of 2 dates, got %v", cal)
	}
	if got := store.Impute("Canal5", "phone", vitals.MetricScore, "2024-01-02"); got != 80 {
		t.Errorf("expected imputed passthrough 80, got %v", got)
	}
}
