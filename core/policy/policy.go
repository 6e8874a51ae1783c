package policy

import "time"

// Config holds the circulation policy knobs.
type Config struct {
	// ReservationTTLHours is how long a reservation holds a copy before the
	// sweeper expires it.
	ReservationTTLHours int `mapstructure:"reservation_ttl_hours" default:"24"`
	// LoanDurationDays is the standard loan duration.
	LoanDurationDays int `mapstructure:"loan_duration_days" default:"15"`
	// DefaultMaxActiveItems is the fallback member limit used when a member
	// record carries no usable limit of its own.
	DefaultMaxActiveItems int `mapstructure:"default_max_active_items" default:"2"`
}

// ReservationTTL returns the reservation time-to-live as a duration.
func (c Config) ReservationTTL() time.Duration {
	hours := c.ReservationTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// LoanDuration returns the standard loan duration.
func (c Config) LoanDuration() time.Duration {
	days := c.LoanDurationDays
	if days <= 0 {
		days = 15
	}
	return time.Duration(days) * 24 * time.Hour
}

// MemberLimit resolves the effective max-active-items limit for a member.
// A missing or non-positive per-member limit falls back to the configured
// default, never below 1. Unlimited acquisition is never permitted.
func (c Config) MemberLimit(memberLimit int) int {
	if memberLimit > 0 {
		return memberLimit
	}
	if c.DefaultMaxActiveItems > 0 {
		return c.DefaultMaxActiveItems
	}
	return 1
}
