// Package capacity holds the pure admission-count arithmetic shared by the
// virtual queue and the check-in pipeline. No side effects; callers pass in
// raw admission-event timestamps and get counts back.
package capacity

import (
	"math"
	"sort"
	"time"
)

// Count returns how many events fall inside [start, end).
func Count(events []time.Time, start, end time.Time) int {
	n := 0
	for _, e := range events {
		if !e.Before(start) && e.Before(end) {
			n++
		}
	}
	return n
}

// CountLastHour returns how many events fall in the trailing 60 minutes
// ending at now, inclusive of now itself.
func CountLastHour(events []time.Time, now time.Time) int {
	cutoff := now.Add(-time.Hour)
	n := 0
	for _, e := range events {
		if e.After(cutoff) && !e.After(now) {
			n++
		}
	}
	return n
}

// HourlyHistogram buckets events by truncating each timestamp to its hour.
func HourlyHistogram(events []time.Time) map[time.Time]int {
	hist := make(map[time.Time]int)
	for _, e := range events {
		hist[e.Truncate(time.Hour)]++
	}
	return hist
}

// PeakHour returns the bucket with the highest count, ties broken by the
// earliest bucket. ok is false for an empty histogram.
func PeakHour(hist map[time.Time]int) (bucket time.Time, count int, ok bool) {
	buckets := make([]time.Time, 0, len(hist))
	for b := range hist {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	for _, b := range buckets {
		if hist[b] > count {
			bucket, count, ok = b, hist[b], true
		}
	}
	return bucket, count, ok
}

// CheckInRate returns round(checkedIn / expected * 100). A zero expected
// count degrades to 0 rather than dividing by zero.
func CheckInRate(checkedIn, expected int) int {
	if expected == 0 {
		return 0
	}
	return int(math.Round(float64(checkedIn) / float64(expected) * 100))
}

// EstimatedWaitMinutes is the queue's wait formula: the number of full
// batches that must be admitted before the guest's own batch, times the
// batch interval. peopleAhead sums party sizes, not entries, so a guest
// whose predecessors all fit in the next batch waits zero minutes.
func EstimatedWaitMinutes(peopleAhead, capacityPerBatch, batchIntervalMinutes int) int {
	if capacityPerBatch <= 0 || peopleAhead <= 0 {
		return 0
	}
	return (peopleAhead / capacityPerBatch) * batchIntervalMinutes
}
