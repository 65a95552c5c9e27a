package activity

// ComputeStreak returns the number of consecutive active days ending at
// today, or at yesterday when today has no activity yet. With neither day
// active the streak is 0.
func ComputeStreak(l *Ledger, today DayKey) int {
	if l == nil {
		return 0
	}

	anchor := today
	if !l.Active(today) {
		anchor = today.AddDays(-1)
		if !l.Active(anchor) {
			return 0
		}
	}

	streak := 0
	for day := anchor; l.Active(day); day = day.AddDays(-1) {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive active days ever recorded.
func LongestStreak(l *Ledger) int {
	if l == nil {
		return 0
	}

	best, run := 0, 0
	var prev DayKey
	for _, day := range l.Days() {
		if !l.Active(day) || !day.IsValid() {
			continue
		}
		if prev != "" && prev.AddDays(1) == day {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = day
	}
	return best
}
