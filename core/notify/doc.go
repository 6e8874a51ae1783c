// Package notify decouples the circulation lifecycle engine from outbound
// notification delivery.
//
// The engine publishes post-commit facts (reservation created, loan created,
// late return) to a Dispatcher, which delivers them to registered Notifier
// implementations on a separate goroutine. Publish is non-blocking and
// failure of a notifier is logged and swallowed: a successful lifecycle
// transition is never converted into a user-visible failure by a slow or
// broken collaborator.
//
// The concrete chat/webhook transports live outside this service; the
// LogNotifier included here is the default stand-in.
package notify
