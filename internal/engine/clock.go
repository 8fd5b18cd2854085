package engine

import "time"

// Clock supplies the wall time that selects the current period.
//
// Periods are the only place the engine reads time; generation, increments
// and settlement are otherwise time-independent.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
