package vitals

import "testing"

func testSamples() []Sample {
	return []Sample{
		{Entity: "Azteca7", Date: "2024-01-03", Variant: "phone", Metric: MetricScore, Value: Float(70)},
		{Entity: "Azteca7", Date: "2024-01-01", Variant: "phone", Metric: MetricScore, Value: Float(60)},
		{Entity: "Azteca7", Date: "2024-01-02", Variant: "phone", Metric: MetricScore, Value: nil},
		{Entity: "Canal5", Date: "2024-01-02", Variant: "phone", Metric: MetricScore, Value: Float(80)},
		{Entity: "Canal5", Date: "2024-01-01", Variant: "phone", Metric: MetricScore, Value: Float(75)},
	}
}

func TestStoreCalendarSortedDistinct(t *testing.T) {
	st := NewStore(testSamples())

	want := []Date{"2024-01-01", "2024-01-02", "2024-01-03"}
	got := st.Calendar()
	if len(got) != len(want) {
		t.Fatalf("expected %d calendar dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("calendar[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestStoreValuePresence(t *testing.T) {
	st := NewStore(testSamples())

	if v, ok := st.Value("Azteca7", "phone", MetricScore, "2024-01-01"); !ok || v != 60 {
		t.Errorf("expected (60, true), got (%v, %v)", v, ok)
	}
	// Recorded but absent.
	if _, ok := st.Value("Azteca7", "phone", MetricScore, "2024-01-02"); ok {
		t.Error("absent sample should not be present")
	}
	// Never recorded.
	if _, ok := st.Value("Canal5", "phone", MetricScore, "2024-01-03"); ok {
		t.Error("unrecorded sample should not be present")
	}
	// Wrong variant.
	if _, ok := st.Value("Azteca7", "desktop", MetricScore, "2024-01-01"); ok {
		t.Error("variant should be part of the key")
	}
}

func TestStoreEntities(t *testing.T) {
	st := NewStore(testSamples())
	got := st.Entities()
	if len(got) != 2 || got[0] != "Azteca7" || got[1] != "Canal5" {
		t.Errorf("expected sorted [Azteca7 Canal5], got %v", got)
	}
}

func TestStoreDateIndex(t *testing.T) {
	st := NewStore(testSamples())

	if i := st.DateIndex("2024-01-02"); i != 1 {
		t.Errorf("expected index 1, got %d", i)
	}
	// Unknown dates get their insertion position so regression can still
	// evaluate at them.
	if i := st.DateIndex("2024-01-04"); i != 3 {
		t.Errorf("expected insertion index 3, got %d", i)
	}
	if i := st.DateIndex("2023-12-31"); i != 0 {
		t.Errorf("expected insertion index 0, got %d", i)
	}
}

func TestStoreDropsInvalidDates(t *testing.T) {
	st := NewStore([]Sample{
		{Entity: "A", Date: "not-a-date", Variant: "phone", Metric: MetricScore, Value: Float(50)},
		{Entity: "A", Date: "2024-01-01", Variant: "phone", Metric: MetricScore, Value: Float(50)},
	})
	if len(st.Calendar()) != 1 {
		t.Errorf("expected 1 calendar date, got %d", len(st.Calendar()))
	}
}

func TestStoreLastDate(t *testing.T) {
	if d := NewStore(nil).LastDate(); d != "" {
		t.Errorf("empty store LastDate should be empty, got %s", d)
	}
	if d := NewStore(testSamples()).LastDate(); d != "2024-01-03" {
		t.Errorf("expected 2024-01-03, got %s", d)
	}
}
