// Package server holds configuration for the admin HTTP surface.
//
// The circulation service exposes only operational endpoints over HTTP
// (health, manual sweep and reconcile triggers); the full catalog and
// member-facing API lives in an external collaborator. The ApiKey guards
// the admin routes via the auth middleware.
package server
