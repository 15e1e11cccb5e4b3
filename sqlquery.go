package sqlquery

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

// RuntimeConfig carries configuration that is used during creation of host-backed components.
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// Row is a single result row as returned by the database, keyed by column name.
//
// Values keep the driver's native shape: nil, string, []byte, int64 or float64.
type Row map[string]any

// Mutation is the context reported by an effect-only statement.
type Mutation struct {
	// LastInsertID is the ID of the last inserted row, when available.
	LastInsertID int64

	// RowsAffected is the number of rows changed by the statement.
	RowsAffected int64
}

// Database is a connection handle exposing the two execution primitives.
//
// Both calls block until the driver completes. Implementations are not
// required to serialize statements; the query package does that.
type Database interface {
	// Run executes a statement that does not return rows.
	Run(query string) (Mutation, error)

	// All executes a statement and returns every row it produced.
	All(query string) ([]Row, error)
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
