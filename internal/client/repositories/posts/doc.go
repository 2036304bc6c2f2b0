// Package posts provides the client-side persistence layer for cached Twos
// posts, the items that belong to an entry.
//
// Posts reference their entry through entry_id. The reference is not
// enforced: orphan posts are stored as-is and simply never match an entry.
// Tags are stored as a JSON array, url as NULL when absent.
//
// Key Types
//
//   - type Repository        — contract used by the cache service
//   - type SQLiteRepository  — SQLite implementation over dbx.DBTX
package posts
