// Package auth provides password hashing, random id generation, and
// session-key authentication for the catalog.
//
// Every public pkg/catalog operation that requires a logged-in caller
// takes a session key of the shape user_id '.' random and calls
// Authenticate to resolve it to a user id before touching the store.
package auth
