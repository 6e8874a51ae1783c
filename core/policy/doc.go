// Package policy is the configuration-driven policy source for the
// circulation lifecycle engine.
//
// It supplies the reservation time-to-live, the standard loan duration and
// the fallback per-member limit on simultaneous active items. Values are
// loaded through the application configuration (environment variables or
// .env) and default to 24h reservations, 15 day loans and a limit of 2.
//
// MemberLimit deliberately clamps to a safe minimum of 1 instead of treating
// an unset limit as unlimited.
package policy
