// Package report assembles per-entity performance reports: score series,
// trend, correlation ranking and an improvement plan, rendered as an HTML
// dashboard plus a PNG trend chart.
package report

import (
	"fmt"

	"github.com/crux-data/vitals.report/internal/config"
	"github.com/crux-data/vitals.report/internal/vitals"
)

// Result is one entity's assembled report for a date window.
type Result struct {
	Entity    string         `json:"entity"`
	Variant   vitals.Variant `json:"variant"`
	StartDate vitals.Date    `json:"start_date"`
	EndDate   vitals.Date    `json:"end_date"`

	Score        vitals.TimeSeries                   `json:"score"`
	Trend        vitals.Trend                        `json:"trend"`
	SubScores    map[vitals.Metric]vitals.TimeSeries `json:"sub_scores"`
	Correlations []*vitals.Correlation               `json:"correlations"`
	Plan         vitals.Plan                         `json:"plan"`
}

// Builder computes Results from the sample store.
type Builder struct {
	memo *vitals.Memo
	cfg  *config.Config
	sc   *vitals.Scorer
}

func NewBuilder(store *vitals.Store, cfg *config.Config) *Builder {
	return &Builder{
		memo: vitals.NewMemo(store),
		cfg:  cfg,
		sc:   cfg.Scorer(),
	}
}

// Build assembles the report for one entity over the selected window,
// planning toward targetScore.
func (b *Builder) Build(entity string, variant vitals.Variant, sel vitals.RangeSelector, targetScore float64) (*Result, error) {
	dates := b.memo.Resolve(sel)
	if len(dates) == 0 {
		return nil, fmt.Errorf("date range for %q resolves to no dates", entity)
	}

	st := b.memo.Store()
	score := b.memo.Series(entity, variant, vitals.MetricScore, sel)

	subScores := make(map[vitals.Metric]vitals.TimeSeries, len(vitals.SubMetrics))
	for _, m := range vitals.SubMetrics {
		subScores[m] = b.memo.SubScoreSeries(b.sc, entity, variant, m, sel)
	}

	correlations := st.CorrelateAll(b.sc, entity, variant, dates)
	current := st.Impute(entity, variant, vitals.MetricScore, dates[len(dates)-1])

	return &Result{
		Entity:       entity,
		Variant:      variant,
		StartDate:    dates[0],
		EndDate:      dates[len(dates)-1],
		Score:        score,
		Trend:        vitals.AnalyzeTrend(score.Values()),
		SubScores:    subScores,
		Correlations: correlations,
		Plan:         vitals.BuildPlan(b.sc, current, targetScore, correlations),
	}, nil
}
