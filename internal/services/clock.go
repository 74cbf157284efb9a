package services

import "time"

// Clock returns the current instant. Services never call time.Now directly so
// expiry and timestamps can be pinned in tests.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
