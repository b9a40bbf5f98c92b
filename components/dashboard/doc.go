// Package dashboard mounts the account management pages: listing with
// search, create and edit forms, account detail with transaction history,
// freeze/thaw and top-up actions, and transfer views.
//
// The component renders through pkg/renderers/dashboard and persists through
// internal/store, so it works unchanged against the in-memory and Postgres
// stores. Routes are registered on a chi router under a configurable base
// path, and an optional guard middleware protects every page.
package dashboard
