// Package client contains the client-side building blocks that talk to the
// outside world on behalf of twosync.
//
// # Overview
//
// The package provides:
//  1. The contract of the remote Twos export API (see the Client interface)
//     and its HTTPS implementation (HTTPClient). The export is a single POST
//     with {user_id, token, page: 0} returning {entries, posts}.
//  2. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     wiring a SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Every failed fetch matches ErrFetch. Transport failures and 5xx responses
// also match ErrUnavailable; 401/403 also match ErrUnauthorized.
//
// See Also
//
//   - Interface:  Client
//   - HTTP impl:  HTTPClient
//   - DB helpers: InitDatabase, RunMigrations
package client
