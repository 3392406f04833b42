package journal

import "time"

// WeekLength is the time one journal week stays open.
const WeekLength = 7 * 24 * time.Hour

// WeekAt returns the week open at now for a program started at startedAt:
// 1 + whole weeks elapsed, capped at Weeks. The program is complete once
// Weeks full weeks have passed. A now before startedAt is week one.
func WeekAt(startedAt, now time.Time) (week int, completed bool) {
	elapsed := now.Sub(startedAt)
	if elapsed < 0 {
		return FirstWeek, false
	}
	weeks := int(elapsed / WeekLength)
	week = weeks + 1
	if week > Weeks {
		week = Weeks
	}
	return week, weeks >= Weeks
}
