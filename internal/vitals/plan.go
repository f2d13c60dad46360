package vitals

import "sort"

// Requirement is one metric's share of an improvement plan: bring the raw
// value from CurrentValue to TargetValue to earn ScoreGain composite points.
type Requirement struct {
	Metric        Metric  `json:"metric"`
	CurrentValue  float64 `json:"current_value"`
	TargetValue   float64 `json:"target_value"`
	PercentChange float64 `json:"percent_change"`
	ScoreGain     float64 `json:"score_gain"`
}

// Plan is the answer to "what do I have to fix to reach this score".
// An unreachable target is a legitimate business answer, not an error:
// Achievable goes false and MaxReachableScore reports the ceiling.
type Plan struct {
	CurrentScore      float64       `json:"current_score"`
	TargetScore       float64       `json:"target_score"`
	GapNeeded         float64       `json:"gap_needed"`
	Requirements      []Requirement `json:"requirements"`
	Achievable        bool          `json:"achievable"`
	AlreadyAchieved   bool          `json:"already_achieved"`
	MaxReachableScore float64       `json:"max_reachable_score,omitempty"`
}

// gainEpsilon absorbs float64 noise when deciding whether a gap is closed.
const gainEpsilon = 1e-9

// BuildPlan allocates the score gap between currentScore and targetScore
// across sub-metrics, cheapest points first. It is a fractional greedy
// knapsack: metrics are consumed in descending weighted-potential-gain
// order, each either taken whole (target = the metric's "good" threshold) or
// split, with the partial raw target solved from the inverse scoring curve.
//
// The model treats each weighted sub-score as additive and each metric's
// improvement as independent of the others. That separability is a known
// simplification carried from the scoring model; do not "fix" it here, the
// recommendations are defined in its terms.
//
// Correlations with nil entries are skipped, so a metric that lacked data
// simply cannot contribute to the plan.
func BuildPlan(sc *Scorer, currentScore, targetScore float64, correlations []*Correlation) Plan {
	plan := Plan{
		CurrentScore: currentScore,
		TargetScore:  targetScore,
		GapNeeded:    targetScore - currentScore,
	}
	if plan.GapNeeded <= 0 {
		plan.GapNeeded = 0
		plan.Achievable = true
		plan.AlreadyAchieved = true
		return plan
	}

	ranked := make([]*Correlation, 0, len(correlations))
	for _, c := range correlations {
		if c != nil {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedPotentialGain > ranked[j].WeightedPotentialGain
	})

	remaining := plan.GapNeeded
	for _, c := range ranked {
		if remaining <= gainEpsilon {
			break
		}
		if c.WeightedPotentialGain <= 0 {
			continue
		}

		var req Requirement
		if c.WeightedPotentialGain <= remaining {
			// Take the whole metric: push it to its good threshold.
			req = Requirement{
				Metric:       c.Metric,
				CurrentValue: c.AvgValue,
				TargetValue:  sc.GoodThreshold(c.Metric),
				ScoreGain:    c.WeightedPotentialGain,
			}
			remaining -= c.WeightedPotentialGain
		} else {
			// Partial take: solve the raw value whose sub-score supplies
			// exactly the remaining gap.
			neededSub := c.CurrentSubScore + remaining/sc.Weight(c.Metric)
			req = Requirement{
				Metric:       c.Metric,
				CurrentValue: c.AvgValue,
				TargetValue:  sc.RawValue(c.Metric, neededSub),
				ScoreGain:    remaining,
			}
			remaining = 0
		}
		if req.CurrentValue != 0 {
			req.PercentChange = (req.TargetValue - req.CurrentValue) / req.CurrentValue * 100
		}
		plan.Requirements = append(plan.Requirements, req)
	}

	plan.Achievable = remaining <= gainEpsilon
	if !plan.Achievable {
		plan.MaxReachableScore = targetScore - remaining
	}
	return plan
}
