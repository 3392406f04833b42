package journal

import (
	"testing"
	"time"
)

func TestWeekAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	tests := []struct {
		name          string
		now           time.Time
		wantWeek      int
		wantCompleted bool
	}{
		{name: "before start", now: start.Add(-time.Hour), wantWeek: 1},
		{name: "start", now: start, wantWeek: 1},
		{name: "day six", now: start.Add(6*day + 23*time.Hour), wantWeek: 1},
		{name: "day seven", now: start.Add(7 * day), wantWeek: 2},
		{name: "day fifteen", now: start.Add(15 * day), wantWeek: 3},
		{name: "day twenty seven", now: start.Add(27 * day), wantWeek: 4},
		{name: "day twenty eight", now: start.Add(28 * day), wantWeek: 4, wantCompleted: true},
		{name: "day sixty", now: start.Add(60 * day), wantWeek: 4, wantCompleted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, completed := WeekAt(start, tt.now)
			if week != tt.wantWeek || completed != tt.wantCompleted {
				t.Fatalf("WeekAt = (%d, %v), want (%d, %v)", week, completed, tt.wantWeek, tt.wantCompleted)
			}
		})
	}
}
