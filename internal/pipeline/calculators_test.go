package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/opsdash/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestRevenueTrend_FillsEmptyMonths(t *testing.T) {
	payments := []model.Payment{
		{ID: "p1", Amount: 100, PaymentDate: "2024-01-15"},
		{ID: "p2", Amount: 200, PaymentDate: "2024-02-10"},
	}

	pts, skipped := RevenueTrend(payments, local(2024, 2, 20, 0, 0), 6)
	require.Len(t, pts, 6)
	assert.Empty(t, skipped)

	want := []float64{0, 0, 0, 0, 100, 200}
	for i, p := range pts {
		assert.InDelta(t, want[i], p.Revenue, 1e-9, p.Label)
	}
	assert.Equal(t, "Sep 2023", pts[0].Label)
	assert.Equal(t, "Feb 2024", pts[5].Label)
	assert.Equal(t, 1, pts[5].PaymentCount)
}

func TestRevenueTrend_ConservesInWindowTotal(t *testing.T) {
	payments := []model.Payment{
		{ID: "a", Amount: 0.1, PaymentDate: "2024-06-01"},
		{ID: "b", Amount: 0.2, PaymentDate: "2024-06-30T23:59:59"},
		{ID: "c", Amount: 1000, PaymentDate: "2023-06-30"}, // outside 12 months
		{ID: "d", Amount: 55.55, PaymentDate: "2023-07-01"},
		{ID: "e", Amount: 9, PaymentDate: "2024-07-01"}, // future month
	}

	pts, _ := RevenueTrend(payments, local(2024, 6, 15, 0, 0), 12)
	var sum float64
	for _, p := range pts {
		sum += p.Revenue
	}
	assert.InDelta(t, 55.85, sum, 1e-9)
	assert.Equal(t, 0.3, pts[11].Revenue)
}

func TestRevenueTrend_ReportsBadDates(t *testing.T) {
	payments := []model.Payment{{ID: "x", Amount: 5, PaymentDate: "yesterday"}}
	_, skipped := RevenueTrend(payments, local(2024, 2, 20, 0, 0), 6)
	require.Len(t, skipped, 1)
	assert.Equal(t, "x", skipped[0].ID)
}

func TestExpenseBreakdown_Shares(t *testing.T) {
	expenses := []model.Expense{
		{ID: "1", Category: "software", Amount: 50, Date: "2024-03-02"},
		{ID: "2", Category: "software", Amount: 30, Date: "2024-03-15"},
		{ID: "3", Category: "travel", Amount: 20, Date: "2024-03-20"},
		{ID: "4", Category: "travel", Amount: 999, Date: "2024-02-28"},
	}

	shares, _ := ExpenseBreakdown(expenses, local(2024, 3, 25, 0, 0))
	require.Len(t, shares, 2)
	assert.Equal(t, "software", shares[0].Category)
	assert.InDelta(t, 80, shares[0].Amount, 1e-9)
	assert.InDelta(t, 0.8, shares[0].Percent, 1e-9)
	assert.Equal(t, "travel", shares[1].Category)
	assert.InDelta(t, 0.2, shares[1].Percent, 1e-9)
	assert.Equal(t, "Software", shares[0].Label)
}

func TestExpenseBreakdown_DefaultsAndZeroTotal(t *testing.T) {
	expenses := []model.Expense{
		{ID: "1", Amount: 0, Date: "2024-03-02"},
		{ID: "2", Category: "home_office", Amount: 0, Date: "2024-03-03"},
	}

	shares, _ := ExpenseBreakdown(expenses, local(2024, 3, 25, 0, 0))
	require.Len(t, shares, 2)
	assert.Equal(t, "home_office", shares[0].Category)
	assert.Equal(t, "Home Office", shares[0].Label)
	assert.Equal(t, DefaultCategory, shares[1].Category)
	for _, s := range shares {
		assert.Zero(t, s.Percent)
	}
}

func TestExpenseBreakdown_Empty(t *testing.T) {
	shares, skipped := ExpenseBreakdown(nil, local(2024, 3, 25, 0, 0))
	assert.NotNil(t, shares)
	assert.Empty(t, shares)
	assert.Empty(t, skipped)
}

func TestCashFlowForecast(t *testing.T) {
	invoices := []model.Invoice{
		{ID: "i1", Status: model.InvoiceSent, TotalAmount: 1000, RemainingAmount: f64(400), DueDate: "2024-04-10"},
		{ID: "i2", Status: model.InvoiceOverdue, TotalAmount: 300, DueDate: "2024-05-01"},
		{ID: "i3", Status: model.InvoicePaid, TotalAmount: 700, RemainingAmount: f64(0), DueDate: "2024-04-15"},
		{ID: "i4", Status: model.InvoiceDraft, TotalAmount: 50, DueDate: "2024-11-01"}, // beyond horizon
	}
	expenses := []model.Expense{
		{ID: "e1", Amount: 300, Date: "2024-01-05"},
		{ID: "e2", Amount: 600, Date: "2024-03-31"},
		{ID: "e3", Amount: 5000, Date: "2023-12-31"}, // before trailing window
		{ID: "e4", Amount: 7000, Date: "2024-04-02"}, // current month
	}

	months, skipped := CashFlowForecast(invoices, expenses, local(2024, 4, 5, 0, 0))
	require.Len(t, months, ForecastMonths)
	assert.Empty(t, skipped)
	assert.Equal(t, "Apr 2024", months[0].Label)
	assert.Equal(t, "Sep 2024", months[5].Label)

	assert.InDelta(t, 400, months[0].ExpectedIncome, 1e-9)
	assert.Equal(t, 1, months[0].InvoiceCount)
	assert.InDelta(t, 300, months[1].ExpectedIncome, 1e-9)

	for _, m := range months {
		assert.InDelta(t, 300, m.ProjectedExpenses, 1e-9, m.Label)
		assert.InDelta(t, m.ExpectedIncome-m.ProjectedExpenses, m.NetCashFlow, 1e-9)
	}
}

func TestProjectProfitability_Profitable(t *testing.T) {
	projects := []model.Project{{ID: "p1", Name: "Site", Budget: f64(1000), EstimatedHours: f64(8)}}
	entries := []model.TimeEntry{
		{ID: "t1", ProjectID: "p1", DurationMinutes: 240},
		{ID: "t2", ProjectID: "p1", DurationMinutes: 360},
		{ID: "t3", ProjectID: "other", DurationMinutes: 999},
	}

	rows := ProjectProfitability(projects, entries, 50)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.InDelta(t, 10, r.ActualHours, 1e-9)
	assert.InDelta(t, 500, r.Cost, 1e-9)
	require.NotNil(t, r.Profit)
	assert.InDelta(t, 500, *r.Profit, 1e-9)
	assert.InDelta(t, 100, r.EffectiveRate, 1e-9)
	assert.Equal(t, model.ProfitProfitable, r.Status)
	require.NotNil(t, r.HoursVariance)
	assert.InDelta(t, 2, *r.HoursVariance, 1e-9)
}

func TestProjectProfitability_Classification(t *testing.T) {
	projects := []model.Project{
		{ID: "even", Budget: f64(100)},
		{ID: "loss", Budget: f64(50)},
		{ID: "none"},
		{ID: "idle", Budget: f64(300)},
	}
	entries := []model.TimeEntry{
		{ProjectID: "even", DurationMinutes: 120},
		{ProjectID: "loss", DurationMinutes: 120},
		{ProjectID: "none", DurationMinutes: 60},
	}

	rows := ProjectProfitability(projects, entries, 50)
	require.Len(t, rows, 4)
	assert.Equal(t, model.ProfitBreakeven, rows[0].Status)
	assert.Equal(t, model.ProfitUnprofitable, rows[1].Status)

	assert.Equal(t, model.ProfitNA, rows[2].Status)
	assert.Nil(t, rows[2].Profit)
	assert.Zero(t, rows[2].EffectiveRate)

	assert.Zero(t, rows[3].ActualHours)
	assert.Zero(t, rows[3].EffectiveRate)
	assert.Equal(t, model.ProfitProfitable, rows[3].Status)

	for _, r := range rows {
		if r.Budget != nil {
			assert.InDelta(t, *r.Budget-r.Cost, *r.Profit, 1e-9, r.ProjectID)
		}
	}
}

func TestProductivityHeatmap_SingleEntry(t *testing.T) {
	// 2024-01-15 is a Monday.
	h, skipped := ProductivityHeatmap([]model.TimeEntry{
		{ID: "t1", StartTime: "2024-01-15T09:00:00", DurationMinutes: 90},
	})
	assert.Empty(t, skipped)
	assert.InDelta(t, 90, h[1][9], 1e-9)
	assert.InDelta(t, 90, h.Total(), 1e-9)

	d, hr, ok := PeakCell(h)
	assert.True(t, ok)
	assert.Equal(t, 1, d)
	assert.Equal(t, 9, hr)
}

func TestProductivityHeatmap_ConservesMinutes(t *testing.T) {
	entries := []model.TimeEntry{
		{ID: "a", StartTime: "2024-01-14T23:30:00", DurationMinutes: 45},
		{ID: "b", StartTime: "2024-01-20T00:00:00", DurationMinutes: 15},
		{ID: "c", StartTime: "2024-01-20T00:10:00", DurationMinutes: 20},
		{ID: "d", StartTime: "", CreatedDate: "2024-01-20", DurationMinutes: 60},
		{ID: "e", StartTime: "noon", DurationMinutes: 30},
	}

	h, skipped := ProductivityHeatmap(entries)
	assert.InDelta(t, 80, h.Total(), 1e-9)
	assert.InDelta(t, 45, h[0][23], 1e-9)
	assert.InDelta(t, 35, h[6][0], 1e-9)

	require.Len(t, skipped, 2)
	assert.Equal(t, "d", skipped[0].ID)
	assert.Equal(t, "start_time", skipped[0].Field)
	assert.Empty(t, skipped[0].Value)
	assert.Equal(t, "e", skipped[1].ID)

	// Every input minute lands in the grid or on a skipped entry.
	minutes := map[string]float64{}
	var in float64
	for _, e := range entries {
		minutes[e.ID] = e.DurationMinutes
		in += e.DurationMinutes
	}
	out := h.Total()
	for _, s := range skipped {
		out += minutes[s.ID]
	}
	assert.InDelta(t, in, out, 1e-9)
}

func TestHeatTiers(t *testing.T) {
	assert.Equal(t, model.HeatEmpty, Tier(0))
	assert.Equal(t, model.HeatLow, Tier(10))
	assert.Equal(t, model.HeatMedium, Tier(30))
	assert.Equal(t, model.HeatHigh, Tier(40))
	assert.Equal(t, model.HeatPeak, Tier(240))
	assert.Equal(t, 1.0, Intensity(600))

	_, _, ok := PeakCell(model.Heatmap{})
	assert.False(t, ok)
}

func TestTimeTrackingSummary(t *testing.T) {
	// Week of Monday 2024-03-04.
	entries := []model.TimeEntry{
		{ID: "a", StartTime: "2024-03-04T09:00:00", DurationMinutes: 480, IsBillable: true},
		{ID: "b", StartTime: "2024-03-06T13:00:00", DurationMinutes: 240, IsBillable: false},
		{ID: "c", CreatedDate: "2024-03-10", DurationMinutes: 120, IsBillable: true},
		{ID: "d", StartTime: "2024-03-03T22:00:00", DurationMinutes: 60, IsBillable: true}, // prior Sunday
		{ID: "e", StartTime: "2024-03-11T00:00:00", DurationMinutes: 60, IsBillable: true}, // next Monday
	}

	w, skipped := TimeTrackingSummary(entries, local(2024, 3, 7, 15, 0))
	assert.Empty(t, skipped)
	assert.Equal(t, local(2024, 3, 4, 0, 0), w.WeekStart)
	assert.InDelta(t, 14, w.TotalHours, 1e-9)
	assert.InDelta(t, 10, w.BillableHours, 1e-9)
	assert.InDelta(t, 10.0/14.0, w.BillableRatio, 1e-9)
	assert.InDelta(t, 35, w.CompletionRate, 1e-9)
	assert.InDelta(t, 8, w.Daily[0], 1e-9)
	assert.InDelta(t, 2, w.Daily[6], 1e-9)
	assert.Equal(t, 3, w.EntryCount)
}

func TestTimeTrackingSummary_ReportsFieldRead(t *testing.T) {
	entries := []model.TimeEntry{
		{ID: "a", StartTime: "soon", DurationMinutes: 30},
		{ID: "b", StartTime: " ", CreatedDate: "garbage", DurationMinutes: 30},
	}

	_, skipped := TimeTrackingSummary(entries, local(2024, 3, 7, 15, 0))
	require.Len(t, skipped, 2)
	assert.Equal(t, model.SkippedRecord{Entity: "time_entry", ID: "a", Field: "start_time", Value: "soon"}, skipped[0])
	assert.Equal(t, model.SkippedRecord{Entity: "time_entry", ID: "b", Field: "created_date", Value: "garbage"}, skipped[1])
}

func TestTimeTrackingSummary_EmptyAndOvertime(t *testing.T) {
	w, _ := TimeTrackingSummary(nil, local(2024, 3, 7, 0, 0))
	assert.Zero(t, w.TotalHours)
	assert.Zero(t, w.BillableRatio)
	assert.False(t, math.IsNaN(w.BillableRatio))

	w, _ = TimeTrackingSummary([]model.TimeEntry{
		{StartTime: "2024-03-05T08:00:00", DurationMinutes: 50 * 60},
	}, local(2024, 3, 7, 0, 0))
	assert.InDelta(t, 125, w.CompletionRate, 1e-9)
}

func TestGoalProgress(t *testing.T) {
	goals := []model.FinancialGoal{
		{ID: "rev", GoalType: model.GoalRevenue, TargetAmount: 5000, IsActive: true},
		{ID: "profit", GoalType: model.GoalProfit, TargetAmount: 4000, IsActive: true},
		{ID: "save", GoalType: model.GoalOther, TargetAmount: 1000, CurrentAmount: f64(700), IsActive: true},
		{ID: "bare", GoalType: model.GoalOther, TargetAmount: 1000, IsActive: true},
		{ID: "off", GoalType: model.GoalRevenue, TargetAmount: 1, IsActive: false},
		{ID: "done", GoalType: model.GoalRevenue, TargetAmount: 1, IsActive: true, Achieved: true},
	}

	got := GoalProgress(goals, model.MonthMetrics{Revenue: 6000, Profit: -200})
	require.Len(t, got, 4)

	assert.Equal(t, "rev", got[0].GoalID)
	assert.InDelta(t, 100, got[0].Progress, 1e-9)
	assert.True(t, got[0].OnTrack)

	assert.Zero(t, got[1].Progress)
	assert.False(t, got[1].OnTrack)
	assert.InDelta(t, -200, got[1].CurrentValue, 1e-9)

	assert.InDelta(t, 70, got[2].Progress, 1e-9)
	assert.False(t, got[2].OnTrack)

	assert.Zero(t, got[3].CurrentValue)

	for _, g := range got {
		assert.GreaterOrEqual(t, g.Progress, 0.0)
		assert.LessOrEqual(t, g.Progress, 100.0)
	}
}

func TestGoalPercent_Threshold(t *testing.T) {
	assert.InDelta(t, 75, goalPercent(750, 1000), 1e-9)
	assert.Equal(t, 0.0, goalPercent(0, 0))
	assert.Equal(t, 100.0, goalPercent(5, 0))
}

func TestDeadlineTriage(t *testing.T) {
	now := local(2024, 3, 10, 12, 0)
	tasks := []model.Task{
		{ID: "soon", Title: "Soon", DueDate: "2024-03-12", Status: "todo"},
		{ID: "today", Title: "Today", DueDate: "2024-03-10", Status: "in_progress"},
		{ID: "late", Title: "Late", DueDate: "2024-02-29", Status: "todo"},
		{ID: "closed", Title: "Closed", DueDate: "2024-03-01", Status: "Completed"},
		{ID: "undated", Title: "Whenever", Status: "todo"},
	}
	projects := []model.Project{
		{ID: "proj", Name: "Launch", DueDate: "2024-03-20", Status: "active"},
		{ID: "gone", Name: "Old", DueDate: "2024-03-11", Status: "archived"},
	}

	got, skipped := DeadlineTriage(tasks, projects, now)
	assert.Empty(t, skipped)
	require.Len(t, got, 4)

	assert.Equal(t, "late", got[0].ID)
	assert.Equal(t, model.UrgencyOverdue, got[0].Urgency)
	assert.Equal(t, 10, got[0].DaysOverdue)

	assert.Equal(t, "today", got[1].ID)
	assert.Equal(t, model.UrgencyToday, got[1].Urgency)

	assert.Equal(t, "soon", got[2].ID)
	assert.Equal(t, model.UrgencySoon, got[2].Urgency)
	assert.Equal(t, 2, got[2].DaysUntil)

	assert.Equal(t, "proj", got[3].ID)
	assert.Equal(t, model.DeadlineProject, got[3].Kind)
	assert.Equal(t, model.UrgencyUpcoming, got[3].Urgency)
}

func TestDeadlineTriage_Boundaries(t *testing.T) {
	now := local(2024, 3, 10, 23, 59)
	tasks := []model.Task{
		{ID: "d3", DueDate: "2024-03-13", Status: "todo"},
		{ID: "d4", DueDate: "2024-03-14", Status: "todo"},
		{ID: "bad", DueDate: "next week", Status: "todo"},
	}

	got, skipped := DeadlineTriage(tasks, nil, now)
	require.Len(t, got, 2)
	assert.Equal(t, model.UrgencySoon, got[0].Urgency)
	assert.Equal(t, model.UrgencyUpcoming, got[1].Urgency)
	require.Len(t, skipped, 1)
	assert.Equal(t, model.SkippedRecord{Entity: "task", ID: "bad", Field: "due_date", Value: "next week"}, skipped[0])
}

func TestThisMonthMetrics(t *testing.T) {
	m, _ := ThisMonthMetrics(
		[]model.Payment{{Amount: 1200, PaymentDate: "2024-05-02"}, {Amount: 10, PaymentDate: "2024-04-30"}},
		[]model.Expense{{Amount: 200.5, Date: "2024-05-31"}},
		local(2024, 5, 15, 0, 0),
	)
	assert.InDelta(t, 1200, m.Revenue, 1e-9)
	assert.InDelta(t, 999.5, m.Profit, 1e-9)
}
