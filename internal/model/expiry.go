package model

import "time"

type ExpiryUnit string

const (
	ExpiryMinutes ExpiryUnit = "minutes"
	ExpiryHours   ExpiryUnit = "hours"
	ExpiryDays    ExpiryUnit = "days"
)

// After returns from shifted by n units. Unknown or empty units count as days.
func (u ExpiryUnit) After(from time.Time, n int) time.Time {
	switch u {
	case ExpiryMinutes:
		return from.Add(time.Duration(n) * time.Minute)
	case ExpiryHours:
		return from.Add(time.Duration(n) * time.Hour)
	default:
		return from.AddDate(0, 0, n)
	}
}
