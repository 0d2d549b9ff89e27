package reminder

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		today    time.Time
		want     int
	}{
		{
			name:     "same day",
			deadline: date(2026, time.June, 5),
			today:    date(2026, time.June, 5),
			want:     0,
		},
		{
			name:     "seven days ahead",
			deadline: date(2026, time.June, 5),
			today:    date(2026, time.May, 29),
			want:     7,
		},
		{
			name:     "three days ahead",
			deadline: date(2026, time.June, 5),
			today:    date(2026, time.June, 2),
			want:     3,
		},
		{
			name:     "day after deadline",
			deadline: date(2026, time.June, 5),
			today:    date(2026, time.June, 6),
			want:     -1,
		},
		{
			name:     "time of day is irrelevant",
			deadline: time.Date(2026, time.June, 5, 23, 59, 0, 0, time.UTC),
			today:    time.Date(2026, time.June, 5, 0, 1, 0, 0, time.UTC),
			want:     0,
		},
		{
			name:     "crosses a month boundary",
			deadline: date(2026, time.July, 2),
			today:    date(2026, time.June, 25),
			want:     7,
		},
		{
			name: "non-UTC input is normalized to the UTC day",
			// 01:00 on June 6 in UTC+5:30 is still June 5 in UTC.
			deadline: date(2026, time.June, 5),
			today:    time.Date(2026, time.June, 6, 1, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.deadline, tt.today); got != tt.want {
				t.Errorf("DaysUntil() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2026, time.June, 5, 17, 45, 12, 999, time.UTC)
	got := StartOfDayUTC(in)
	want := date(2026, time.June, 5)
	if !got.Equal(want) {
		t.Errorf("StartOfDayUTC() = %v, want %v", got, want)
	}
}
