package domain

import "time"

// Defaults for the slot calculator. Tables start on half-hour boundaries;
// a boundary closer than the skip threshold is excluded so a joiner always
// has a little setup margin before the table begins.
const (
	DefaultSlotCount  = 6
	SlotInterval      = 30 * time.Minute
	SlotSkipThreshold = 3 * time.Minute
)

// TimeSlot is the value object returned by slot listing. It is never
// persisted: QueueCount comes from the live redis counters and
// EstimatedCount from the historical heuristic.
type TimeSlot struct {
	StartTime      time.Time `json:"start_time"`
	QueueCount     int       `json:"queue_count"`
	EstimatedCount int       `json:"estimated_count"`
	HasUserSession bool      `json:"has_user_session"`
}

// NextSlotTimes rounds now up to the next interval boundary and returns
// count consecutive boundaries. A boundary less than skipThreshold away is
// skipped. Pure and deterministic.
func NextSlotTimes(now time.Time, count int, interval, skipThreshold time.Duration) []time.Time {
	first := now.Truncate(interval)
	if first.Before(now) || first.Equal(now) {
		first = first.Add(interval)
	}
	if first.Sub(now) < skipThreshold {
		first = first.Add(interval)
	}
	times := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		times = append(times, first.Add(time.Duration(i)*interval))
	}
	return times
}

// EstimateSignups is the historical demand heuristic for a slot. It is a
// deterministic function of the slot's position in the week: evenings and
// weekday mornings see more traffic than the small hours.
func EstimateSignups(slot time.Time) int {
	hour := slot.Hour()
	weekday := slot.Weekday()

	base := 1
	switch {
	case hour >= 8 && hour < 12:
		base = 4
	case hour >= 12 && hour < 18:
		base = 3
	case hour >= 18 && hour < 23:
		base = 5
	}
	if weekday == time.Saturday || weekday == time.Sunday {
		base = base / 2
	}
	return base
}
