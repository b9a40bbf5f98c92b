// Package users exposes the user directory as a small JSON search endpoint
// for the dashboard's user picker inputs.
//
// The handler responds to GET and HEAD requests and supports query and limit
// parameters. Results come from a store.UserDirectory, so both the in-memory
// and Postgres stores can back it.
package users
