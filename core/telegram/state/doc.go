// Package state holds per-user dialogue state: the State type, the Manager
// persistence contract, an in-memory Manager, and a Machine that routes
// free text to the handler registered for the sender's current state.
package state
