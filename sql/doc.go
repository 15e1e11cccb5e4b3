/*
Package sql provides a Database handle that executes SQL through the Tarmac
host runtime's sql capability.

Exec and Query mirror the protobuf SQLExec/SQLQuery messages one to one. Run
and All adapt them to the sqlquery.Database contract: Run reports the
mutation context (last insert id, affected rows) and All decodes the host's
JSON row payload into untyped rows, so a query.Conn can sit directly on top
of a DBClient.
*/
package sql
