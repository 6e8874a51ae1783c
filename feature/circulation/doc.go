// Package circulation implements the library's circulation lifecycle engine.
//
// It keeps three related entities mutually consistent under concurrent
// requests: a physical Copy, a time-boxed Reservation holding it, and a Loan
// borrowing it. A copy has at most one active holder at any time.
//
// # Concurrency discipline
//
// Every multi-entity mutation runs in one transaction. Races are resolved
// optimistically, never with row locks:
//   - copy state changes compare-and-swap on the copy's version counter
//   - the nullable-unique active_copy_id columns on reservation and loan
//     reject a second active holder at commit time
//
// Duplicate-key and stale-version outcomes surface as business Conflict
// errors; the engine never retries on its own.
//
// # Components
//
//   - Registry: atomic copy state transitions
//   - Service: reservation and loan managers, limit enforcement, catalog
//     intake and member registration
//   - Sweeper: scheduled expiry of overdue reservations
//   - Reconcile: idempotent repair of copies orphaned by partial failures
//   - Handler: admin HTTP endpoints for manual sweep and reconcile
//
// # HTTP Endpoints
//
//   - POST /circulation/admin/sweep : expire overdue reservations now
//   - POST /circulation/admin/reconcile : run the consistency repair now
package circulation
