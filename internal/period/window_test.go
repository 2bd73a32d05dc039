package period

import (
	"testing"
	"time"

	"dompet/internal/core"
)

func TestRecurringDaily(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 45, 0, time.UTC)
	w := Recurring(now, core.Daily)

	wantStart := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", w.Start, wantStart)
	}
	if got := w.End.Sub(w.Start); got != 24*time.Hour {
		t.Errorf("window length = %v, want 24h", got)
	}
}

func TestRecurringWeeklyStartsOnSunday(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "mid week",
			now:       time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "on sunday",
			now:       time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC),
			wantStart: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "saturday end of week",
			now:       time.Date(2025, 3, 15, 0, 0, 1, 0, time.UTC),
			wantStart: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "week crossing month boundary",
			now:       time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC), // Wednesday
			wantStart: time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Recurring(tt.now, core.Weekly)
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Equal(tt.wantStart.AddDate(0, 0, 7)) {
				t.Errorf("end = %v, want start+7d", w.End)
			}
		})
	}
}

func TestRecurringMonthlyCalendarCorrect(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantDays int
	}{
		{"january has 31 days", time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC), 31},
		{"february non leap", time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), 28},
		{"february leap year", time.Date(2024, 2, 29, 6, 0, 0, 0, time.UTC), 29},
		{"april has 30 days", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 30},
		{"december rolls to january", time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Recurring(tt.now, core.Monthly)
			if w.Start.Day() != 1 {
				t.Errorf("start day = %d, want 1", w.Start.Day())
			}
			if w.End.Day() != 1 {
				t.Errorf("end day = %d, want first of next month", w.End.Day())
			}
			if got := int(w.End.Sub(w.Start).Hours() / 24); got != tt.wantDays {
				t.Errorf("window days = %d, want %d", got, tt.wantDays)
			}
		})
	}
}

func TestRecurringIdempotent(t *testing.T) {
	now := time.Date(2025, 7, 20, 9, 15, 0, 0, time.UTC)
	for _, p := range []core.Period{core.Daily, core.Weekly, core.Monthly} {
		a := Recurring(now, p)
		b := Recurring(now, p)
		if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
			t.Errorf("%s window not idempotent: %v vs %v", p, a, b)
		}
	}
}

func TestResolveCustom(t *testing.T) {
	start := core.NewDate(2025, 1, 1)
	end := core.NewDate(2025, 6, 30)

	b := core.Budget{Period: core.Custom, StartDate: start, EndDate: &end}
	w := Resolve(time.Now(), b)
	if !w.Start.Equal(start.Time) || !w.End.Equal(end.Time) {
		t.Errorf("custom window = %v, want [%v, %v)", w, start, end)
	}

	open := core.Budget{Period: core.Custom, StartDate: start}
	w = Resolve(time.Now(), open)
	if !w.End.Equal(FarFuture) {
		t.Errorf("open-ended window end = %v, want far-future sentinel", w.End)
	}
	if !w.Contains(core.NewDate(2060, 1, 1)) {
		t.Error("open-ended window must be unbounded forward")
	}
}

func TestWindowHalfOpenBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	w := Recurring(now, core.Monthly)

	if !w.Contains(core.NewDate(2025, 3, 1)) {
		t.Error("transaction dated at windowStart must be included")
	}
	if !w.Contains(core.NewDate(2025, 3, 31)) {
		t.Error("last day of month must be included")
	}
	if w.Contains(core.NewDate(2025, 4, 1)) {
		t.Error("transaction dated at windowEnd must be excluded")
	}
	if w.Contains(core.NewDate(2025, 2, 28)) {
		t.Error("day before windowStart must be excluded")
	}
}
