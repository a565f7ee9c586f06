package pipeline

import "github.com/theirongolddev/opsdash/internal/model"

// ProjectProfitability computes one profitability row per project, in input
// order, pricing tracked time at hourlyRate.
//
// Profit is nil when the project has no budget. Effective rate is budget per
// tracked hour and is 0 when no time was tracked.
func ProjectProfitability(projects []model.Project, entries []model.TimeEntry, hourlyRate float64) []model.ProjectProfit {
	minutes := make(map[string]float64, len(projects))
	for _, e := range entries {
		minutes[e.ProjectID] += minutesOf(e)
	}

	rows := make([]model.ProjectProfit, 0, len(projects))
	for _, p := range projects {
		hours := minutes[p.ID] / 60
		cost := hours * hourlyRate

		row := model.ProjectProfit{
			ProjectID:   p.ID,
			Name:        p.Name,
			Budget:      p.Budget,
			ActualHours: hours,
			Cost:        cost,
			Status:      model.ProfitNA,
		}
		if p.Budget != nil {
			profit := *p.Budget - cost
			row.Profit = &profit
			row.Status = classifyProfit(profit)
		}
		if hours > 0 {
			row.EffectiveRate = budgetOr(p, 0) / hours
		}
		if p.EstimatedHours != nil {
			v := hours - *p.EstimatedHours
			row.HoursVariance = &v
		}
		rows = append(rows, row)
	}
	return rows
}

func classifyProfit(profit float64) model.ProfitStatus {
	switch {
	case profit > 0:
		return model.ProfitProfitable
	case profit < 0:
		return model.ProfitUnprofitable
	default:
		return model.ProfitBreakeven
	}
}
