package core

import (
	"time"
)

// TimestampLayout is the layout written into results.csv rows.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// String formats the timestamp as local ISO-8601 with microseconds
func (t Timestamp) String() string {
	return time.Time(t).Format(TimestampLayout)
}
