// Package sqlite provides a sqlquery.Database over an embedded SQLite
// database, using the pure Go modernc.org/sqlite driver.
package sqlite
