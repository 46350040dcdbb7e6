package repository

import (
	"testing"
	"time"
)

func TestNextDailyCountSameDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	if got := NextDailyCount(0, now, now, 10); got != 1 {
		t.Errorf("first request of the day = %d, want 1", got)
	}
	if got := NextDailyCount(9, now.Add(-time.Hour), now, 10); got != 10 {
		t.Errorf("last allowed request = %d, want 10", got)
	}
	if got := NextDailyCount(10, now.Add(-time.Hour), now, 10); got != -1 {
		t.Errorf("over-limit request = %d, want -1 (denied)", got)
	}
}

func TestNextDailyCountCalendarReset(t *testing.T) {
	yesterday := time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, 3, 14, 0, 1, 0, 0, time.UTC)

	// A spent allowance resets at midnight, not after 24 hours.
	if got := NextDailyCount(10, yesterday, today, 10); got != 1 {
		t.Errorf("post-midnight request = %d, want 1", got)
	}
}

func TestNextDailyCountResetAcrossTimezones(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	// 00:30 CET is still the previous day in UTC; day boundaries are UTC.
	lastUTC := time.Date(2026, 3, 13, 23, 0, 0, 0, time.UTC)
	nowCET := time.Date(2026, 3, 14, 0, 30, 0, 0, paris)

	if got := NextDailyCount(5, lastUTC, nowCET, 10); got != 6 {
		t.Errorf("same UTC day seen from CET = %d, want 6", got)
	}
}

func TestNextDailyCountUnlimited(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	if got := NextDailyCount(100000, now, now, 0); got != 100001 {
		t.Errorf("unlimited plan = %d, want 100001", got)
	}
	if got := NextDailyCount(50, now, now, -1); got != 51 {
		t.Errorf("negative limit treated as unlimited, got %d", got)
	}
}

func TestNextDailyCountStaleLastDate(t *testing.T) {
	lastWeek := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if got := NextDailyCount(10, lastWeek, now, 10); got != 1 {
		t.Errorf("week-old counter = %d, want 1 after reset", got)
	}
}
