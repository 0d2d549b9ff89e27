package reminder

import "time"

// All day-delta arithmetic in this package is anchored to midnight UTC.
// The daily run fires at a fixed UTC hour, so using any other reference
// would silently shift every trigger by a day between hosts.

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the whole number of days from today until deadline,
// both normalized to midnight UTC. Positive means the deadline is in
// the future, zero means today is the deadline, negative means it has
// passed.
func DaysUntil(deadline, today time.Time) int {
	d := StartOfDayUTC(deadline)
	t := StartOfDayUTC(today)
	return int(d.Sub(t) / (24 * time.Hour))
}
