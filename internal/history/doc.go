// Package history stores a record of every download run in SQLite.
//
// The store keeps one row per run (URL, outcome, output paths and timing)
// and one row per saved asset. It is written by the command line tool after
// each run and read by "pageloader history"; the download core never uses
// it, so a page is never skipped or altered because of past runs.
//
// SQLite is accessed through modernc.org/sqlite, which needs no cgo. The
// database lives in a single file, pageloader.db, in the directory passed to
// Open.
package history
