// Package entries provides the client-side persistence layer for cached Twos
// entries.
//
// # Overview
//
// The package defines a Repository interface for the operations the cache
// needs on the entries table: clearing it, inserting records from a fresh
// export, iterating the whole table, and primary-key lookup. A SQLite-backed
// implementation (SQLiteRepository) works over a dbx.DBTX, so the same code
// runs against *sql.DB or inside a *sql.Tx.
//
// # Ordering
//
// All iterates in insertion order (rowid), which is the order of the last
// export.
//
// Typical Usage
//
//	repo := entries.NewSQLiteRepository(tx)
//	_ = repo.Clear(ctx)
//	_ = repo.Insert(ctx, &entry)
//	for e, err := range repo.All(ctx) { ... }
//	one, err := repo.GetByID(ctx, id) // common.ErrNotFound when absent
package entries
