package query

import (
	"strings"

	"golang.org/x/text/cases"

	sqlquery "github.com/tarmac-project/sqlquery"
)

// Delegate carries the model-level knowledge the executor needs but does not
// own: which statements insert, update, select or describe, and how selected
// rows become application values.
//
// Model layers usually embed DefaultDelegate and override a few methods.
type Delegate interface {
	// IsInsertQuery reports whether st inserts a row. m is nil while
	// classifying and set once the database reported a mutation context.
	IsInsertQuery(st Statement, m *sqlquery.Mutation) bool

	IsUpdateQuery(st Statement) bool
	IsSelectQuery(st Statement) bool
	IsShowOrDescribeQuery(st Statement) bool

	// HandleInsertQuery propagates the generated id to callee.
	HandleInsertQuery(st Statement, m sqlquery.Mutation, callee Callee)

	// HandleSelectQuery turns coerced rows into application values.
	HandleSelectQuery(st Statement, rows []sqlquery.Row) []any
}

// DefaultDelegate decides from the statement's type hint and SQL prefix.
type DefaultDelegate struct{}

var _ Delegate = DefaultDelegate{}

// IsInsertQuery is true for TypeInsert or SQL starting with "insert into".
func (DefaultDelegate) IsInsertQuery(st Statement, _ *sqlquery.Mutation) bool {
	return st.Type == TypeInsert || hasPrefixFold(st.SQL, "insert into")
}

// IsUpdateQuery is true for TypeUpdate or SQL starting with "update".
func (DefaultDelegate) IsUpdateQuery(st Statement) bool {
	return st.Type == TypeUpdate || hasPrefixFold(st.SQL, "update")
}

// IsSelectQuery is true for TypeSelect only.
func (DefaultDelegate) IsSelectQuery(st Statement) bool {
	return st.Type == TypeSelect
}

// IsShowOrDescribeQuery is true for the show/describe hints or SQL starting
// with "show" or "describe".
func (DefaultDelegate) IsShowOrDescribeQuery(st Statement) bool {
	switch st.Type {
	case TypeShowTables, TypeDescribe:
		return true
	}
	return hasPrefixFold(st.SQL, "show") || hasPrefixFold(st.SQL, "describe")
}

// HandleInsertQuery sets the callee's id to the last inserted row id.
func (DefaultDelegate) HandleInsertQuery(_ Statement, m sqlquery.Mutation, callee Callee) {
	if callee != nil {
		callee.SetInsertID(m.LastInsertID)
	}
}

// HandleSelectQuery returns the rows unchanged.
func (DefaultDelegate) HandleSelectQuery(_ Statement, rows []sqlquery.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(fold(s), prefix)
}

func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), substr)
}
