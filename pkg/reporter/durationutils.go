package reporter

import "time"

// roundings are ordered from the coarsest, durations above a threshold are rounded to its precision.
var roundings = []struct {
	above     time.Duration
	precision time.Duration
}{
	{above: time.Minute, precision: 10 * time.Second},
	{above: time.Second, precision: 10 * time.Millisecond},
	{above: time.Millisecond, precision: 10 * time.Microsecond},
	{above: time.Microsecond, precision: 10 * time.Nanosecond},
}

func roundDuration(dur time.Duration) time.Duration {
	for _, r := range roundings {
		if dur > r.above {
			return dur.Round(r.precision)
		}
	}
	return dur
}
