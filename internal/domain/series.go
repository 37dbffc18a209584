package domain

import (
	"fmt"
	"time"
)

// Bucket is the fixed-width period used to group pull request creation
// timestamps into a time series.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket validates a bucket name supplied by configuration or flags.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketDay, BucketWeek, BucketMonth:
		return Bucket(s), nil
	}
	return "", fmt.Errorf("invalid bucket %q: want day, week or month", s)
}

// Truncate maps a timestamp to the start of its bucket, in UTC.
// Weeks start on Monday.
func (b Bucket) Truncate(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch b {
	case BucketWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Next returns the start of the bucket following t. t must already be a
// bucket start.
func (b Bucket) Next(t time.Time) time.Time {
	switch b {
	case BucketWeek:
		return t.AddDate(0, 0, 7)
	case BucketMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Point is one (period, count) pair of a time series.
type Point struct {
	Period time.Time `json:"period"`
	Count  int       `json:"count"`
}

// TimeSeries is an ordered sequence of bucket counts for one repository.
// Buckets inside the observed date range are always present, so a zero
// count means zero activity rather than missing data.
type TimeSeries []Point

// Total returns the sum of all bucket counts.
func (ts TimeSeries) Total() int {
	var total int
	for _, p := range ts {
		total += p.Count
	}
	return total
}

// Counts returns the bucket counts as floats, in series order.
func (ts TimeSeries) Counts() []float64 {
	counts := make([]float64, len(ts))
	for i, p := range ts {
		counts[i] = float64(p.Count)
	}
	return counts
}
