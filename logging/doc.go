/*
Package logging defines the log sink used while executing statements and a
client that forwards entries to the Tarmac host runtime.

The query package logs the "Executing (<uuid>): <sql>" line for every
statement and warns about absorbed schema introspection failures. Any Client
works; New returns one backed by the host logging capability and Func adapts a
plain function for in-process use.
*/
package logging
