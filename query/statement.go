package query

import (
	"github.com/google/uuid"

	"github.com/tarmac-project/sqlquery/logging"
)

// QueryType is the caller's hint about what a statement does.
type QueryType int

const (
	TypeUnknown QueryType = iota
	TypeSelect
	TypeInsert
	TypeUpdate
	TypeBulkUpdate
	TypeBulkDelete
	TypeShowTables
	TypeDescribe
	TypeRaw
)

var typeNames = [...]string{
	TypeUnknown:    "UNKNOWN",
	TypeSelect:     "SELECT",
	TypeInsert:     "INSERT",
	TypeUpdate:     "UPDATE",
	TypeBulkUpdate: "BULKUPDATE",
	TypeBulkDelete: "BULKDELETE",
	TypeShowTables: "SHOWTABLES",
	TypeDescribe:   "DESCRIBE",
	TypeRaw:        "RAW",
}

func (t QueryType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// Callee is the object a statement runs on behalf of. INSERT statements
// report the generated row id back to it.
type Callee interface {
	SetInsertID(id int64)
}

// Listener observes the lifecycle of one statement. Every field is optional.
//
// SQL fires once per invocation, then exactly one of Success or Error.
// Listeners are called from a goroutine owned by the statement, never from
// the connection worker, so they may submit new statements.
type Listener struct {
	SQL     func(sql string)
	Success func(value any)
	Error   func(err error, callee Callee)
}

// Options controls how a single statement is executed and shaped.
type Options struct {
	// Logging receives the "Executing (<uuid>): <sql>" line. Nil disables it.
	Logging logging.Client

	// Plain returns only the first row of a select.
	Plain bool

	// Raw skips type coercion of selected rows.
	Raw bool

	// UUID correlates log lines for this statement. A random one is used when empty.
	UUID string

	// Type hints at the statement's purpose.
	Type QueryType

	// TableNames lists the tables whose column types are loaded before a
	// row-fetching statement is materialized. When empty the first
	// FROM `name` in the SQL is used.
	TableNames []string

	// Delegate supplies model-level predicates. DefaultDelegate when nil.
	Delegate Delegate

	// Listener observes the statement's events.
	Listener Listener
}

// Statement is one SQL text plus the options it was submitted with.
// It is never modified after creation.
type Statement struct {
	SQL        string
	Type       QueryType
	TableNames []string
	Plain      bool
	Raw        bool
	UUID       string
}

// NewStatement builds a Statement, copying everything it keeps from opts.
func NewStatement(sql string, opts Options) Statement {
	id := opts.UUID
	if id == "" {
		id = uuid.NewString()
	}

	var tables []string
	if len(opts.TableNames) > 0 {
		tables = append([]string(nil), opts.TableNames...)
	}

	return Statement{
		SQL:        sql,
		Type:       opts.Type,
		TableNames: tables,
		Plain:      opts.Plain,
		Raw:        opts.Raw,
		UUID:       id,
	}
}
