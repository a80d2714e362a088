package auth

import "time"

// IsWithinThresholdPeriod checks if the given time is no older than the
// threshold duration
func IsWithinThresholdPeriod(t time.Time, d time.Duration) bool {
	return t.After(time.Now().Add(-d))
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(t time.Time, d time.Duration) bool {
	return !IsWithinThresholdPeriod(t, d)
}
