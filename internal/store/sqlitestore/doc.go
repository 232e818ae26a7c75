// Package sqlitestore implements the cache layer on an embedded SQLite
// database (modernc.org/sqlite, WAL journal). Payloads are stored as JSON.
// Writes retry briefly when the database reports SQLITE_BUSY.
package sqlitestore
