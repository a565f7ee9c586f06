package pipeline

import "github.com/theirongolddev/opsdash/internal/model"

// GoalProgress measures every active, unachieved goal against the current
// month. Progress is a percentage in [0, 100].
func GoalProgress(goals []model.FinancialGoal, month model.MonthMetrics) []model.GoalProgress {
	out := make([]model.GoalProgress, 0, len(goals))
	for _, g := range goals {
		if !g.IsActive || g.Achieved {
			continue
		}

		var current float64
		switch g.GoalType {
		case model.GoalRevenue:
			current = month.Revenue
		case model.GoalProfit:
			current = month.Profit
		default:
			current = goalCurrentOf(g)
		}

		progress := goalPercent(current, g.TargetAmount)
		out = append(out, model.GoalProgress{
			GoalID:       g.ID,
			Title:        g.Title,
			GoalType:     g.GoalType,
			TargetAmount: g.TargetAmount,
			CurrentValue: current,
			Progress:     progress,
			OnTrack:      progress >= OnTrackThreshold,
		})
	}
	return out
}

// goalPercent is current/target as a percentage clamped to [0, 100].
// A non-positive target counts as fully met once anything is recorded.
func goalPercent(current, target float64) float64 {
	if target <= 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	p := current / target * 100
	switch {
	case p > 100:
		return 100
	case p < 0:
		return 0
	}
	return p
}
