/*
Package sqlquery holds the shared vocabulary for executing SQL statements
against SQLite-style databases that hand back untyped, text-oriented rows.

The package defines the Database handle contract (Run for effect-only
statements, All for row-fetching ones), the Row and Mutation shapes those
calls return, and the RuntimeConfig shared by the host-backed components
(sql, logging, metrics). DefaultNamespace is used when a namespace is not
explicitly provided.

Statement classification, serial execution and result materialization live in
the query package.
*/
package sqlquery
