package vitals

import (
	"math"
	"testing"
)

func pairedSamples(lcp, score []float64) []Sample {
	var samples []Sample
	d := Date("2024-01-01")
	for i := range lcp {
		var lv, sv *float64
		if !math.IsNaN(lcp[i]) {
			lv = Float(lcp[i])
		}
		if !math.IsNaN(score[i]) {
			sv = Float(score[i])
		}
		samples = append(samples,
			Sample{Entity: "A", Date: d, Variant: "phone", Metric: MetricLCP, Value: lv},
			Sample{Entity: "A", Date: d, Variant: "phone", Metric: MetricScore, Value: sv},
		)
		d = d.AddDays(1)
	}
	return samples
}

func TestCorrelateTooFewPairs(t *testing.T) {
	nan := math.NaN()

	// Two complete pairs.
	st := NewStore(pairedSamples([]float64{3000, 2500}, []float64{50, 60}))
	if c := st.Correlate(DefaultScorer(), "A", "phone", MetricLCP, st.Calendar()); c != nil {
		t.Errorf("2 pairs should yield nil, got %+v", c)
	}

	// Three days but only two days where both sides are present.
	st = NewStore(pairedSamples([]float64{3000, 2500, 2000}, []float64{50, nan, 70}))
	if c := st.Correlate(DefaultScorer(), "A", "phone", MetricLCP, st.Calendar()); c != nil {
		t.Errorf("2 complete pairs should yield nil, got %+v", c)
	}
}

// Three collinear pairs moving in lockstep: LCP improving (falling) while
// the score rises. After the lower-is-better inversion, r must be 1.
func TestCorrelateCollinear(t *testing.T) {
	st := NewStore(pairedSamples([]float64{3000, 2500, 2000}, []float64{50, 60, 70}))
	sc := DefaultScorer()

	c := st.Correlate(sc, "A", "phone", MetricLCP, st.Calendar())
	if c == nil {
		t.Fatal("expected a correlation")
	}
	if math.Abs(c.R-1) > 1e-9 {
		t.Errorf("expected r = 1, got %v", c.R)
	}
	if math.Abs(c.R2-1) > 1e-9 {
		t.Errorf("expected r2 = 1, got %v", c.R2)
	}
	if c.SampleCount != 3 {
		t.Errorf("expected 3 samples, got %d", c.SampleCount)
	}
	if c.AvgValue != 2500 {
		t.Errorf("expected avg 2500, got %v", c.AvgValue)
	}
	wantSub := sc.SubScore(MetricLCP, 2500)
	if math.Abs(c.CurrentSubScore-wantSub) > 1e-9 {
		t.Errorf("expected current sub-score %v, got %v", wantSub, c.CurrentSubScore)
	}
	wantGain := (100 - wantSub) * sc.Weight(MetricLCP)
	if math.Abs(c.WeightedPotentialGain-wantGain) > 1e-9 {
		t.Errorf("expected weighted gain %v, got %v", wantGain, c.WeightedPotentialGain)
	}
}

// LCP getting worse while the score rises correlates negatively after the
// inversion.
func TestCorrelateNegative(t *testing.T) {
	st := NewStore(pairedSamples([]float64{2000, 2500, 3000}, []float64{50, 60, 70}))
	c := st.Correlate(DefaultScorer(), "A", "phone", MetricLCP, st.Calendar())
	if c == nil {
		t.Fatal("expected a correlation")
	}
	if c.R >= 0 {
		t.Errorf("expected negative r, got %v", c.R)
	}
}

// A constant side has no variance; Pearson r is undefined there and the
// correlation is reported as absent rather than NaN.
func TestCorrelateNoVariance(t *testing.T) {
	st := NewStore(pairedSamples([]float64{2500, 2500, 2500}, []float64{50, 60, 70}))
	if c := st.Correlate(DefaultScorer(), "A", "phone", MetricLCP, st.Calendar()); c != nil {
		t.Errorf("constant metric should yield nil, got %+v", c)
	}
}

// Imputed values never enter a correlation: only days where both sides were
// actually observed count.
func TestCorrelateIgnoresAbsentDays(t *testing.T) {
	nan := math.NaN()
	st := NewStore(pairedSamples(
		[]float64{3000, nan, 2500, 2000},
		[]float64{50, 55, 60, 70},
	))
	c := st.Correlate(DefaultScorer(), "A", "phone", MetricLCP, st.Calendar())
	if c == nil {
		t.Fatal("expected a correlation")
	}
	if c.SampleCount != 3 {
		t.Errorf("expected 3 paired samples, got %d", c.SampleCount)
	}
}

func TestCorrelateAll(t *testing.T) {
	// Only LCP has enough paired data; the other metrics drop out instead
	// of failing the whole analysis.
	samples := pairedSamples([]float64{3000, 2500, 2000}, []float64{50, 60, 70})
	samples = append(samples, Sample{
		Entity: "A", Date: "2024-01-01", Variant: "phone", Metric: MetricTBT, Value: Float(300),
	})
	st := NewStore(samples)

	out := st.CorrelateAll(DefaultScorer(), "A", "phone", st.Calendar())
	if len(out) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(out))
	}
	if out[0].Metric != MetricLCP {
		t.Errorf("expected lcp, got %s", out[0].Metric)
	}
}
