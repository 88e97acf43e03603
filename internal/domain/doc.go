// Package domain holds the entities, dialogue states and error taxonomy
// shared by the store, the upstream client and the session engine.
package domain
