// Package conversation holds the storefront dialog: its states, the events
// that drive it, the per-chat session record and the transition table.
//
// Step is pure. Callers execute the returned Action and commit the returned
// session only when the action succeeded.
package conversation
