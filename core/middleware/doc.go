// Package middleware groups the HTTP middleware used by the admin surface.
//
// Subpackages:
//   - rayid: assigns a unique ray id to every request for log correlation
//   - auth: API key guard for the admin endpoints
package middleware
