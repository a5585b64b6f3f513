package billing

import "time"

// Clock abstracts wall-clock time so reconciliation can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time
type SystemClock struct{}

// Now returns the current system time
func (SystemClock) Now() time.Time {
	return time.Now()
}
