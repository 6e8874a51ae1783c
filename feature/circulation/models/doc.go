// Package models defines the persistent entities of the circulation
// lifecycle: Title, Copy, Reservation, Loan and Member.
//
// Entities are plain structs holding foreign-key identifiers; relations are
// resolved by explicit lookups in the service layer rather than through a
// managed object graph.
//
// Two storage-level rules back the engine's invariants:
//   - Copy.Version is compared-and-swapped on every state change.
//   - Reservation.ActiveCopyID and Loan.ActiveCopyID are nullable-unique
//     columns set while the row is ACTIVE, enforcing at most one active
//     reservation and one active loan per copy.
package models
