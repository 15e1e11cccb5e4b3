/*
Package query executes SQL statements against a sqlquery.Database and turns
the untyped rows it returns into typed application values.

A statement goes through four steps:

 1. Classify decides the execution mode (Run for inserts, updates, temporary
    tables and bulk deletes; All for everything else) and the result Kind,
    from the SQL text, the type hint and the Delegate's predicates.
 2. Conn queues the statement behind everything submitted before it. For
    row-fetching statements it first loads a Catalog of declared column types
    with one PRAGMA table_info per referenced table, one after another, before
    the statement itself runs. Failed introspection is skipped.
 3. Materialize shapes the result for its Kind: DATETIME and BLOB coercion
    for selects, pragma reshaping, affected-row counts for bulk statements,
    insert id propagation to the callee.
 4. The Completion reports exactly one outcome, through Wait and through the
    optional Listener.

Basic usage:

	db, _ := sqlite.Open(sqlite.Config{Path: "app.sqlite3"})
	conn, _ := query.NewConn(query.ConnConfig{Database: db})
	defer conn.Close()

	users, err := query.New(conn, nil, query.Options{Type: query.TypeSelect}).
		Run("SELECT * FROM `users`")

A statement whose text starts with "-- " is treated as a comment: it succeeds
with a nil value without touching the database.
*/
package query
