package query

import (
	"strings"
)

// Mode selects the database primitive a statement runs with.
type Mode int

const (
	// ModeRowFetching runs through Database.All.
	ModeRowFetching Mode = iota
	// ModeEffectOnly runs through Database.Run.
	ModeEffectOnly
)

func (m Mode) String() string {
	if m == ModeEffectOnly {
		return "run"
	}
	return "all"
}

// Kind is the semantic category that decides how results are shaped.
type Kind int

const (
	KindOther Kind = iota
	KindNoOp
	KindSchemaList
	KindPragmaIndexList
	KindPragmaTableInfo
	KindPragmaForeignKeysSingle
	KindPragmaForeignKeysList
	KindBulkUpdate
	KindBulkDelete
	KindPlainSelect
	KindShowOrDescribe
)

var kindNames = [...]string{
	KindOther:                   "other",
	KindNoOp:                    "noop",
	KindSchemaList:              "schema-list",
	KindPragmaIndexList:         "pragma-index-list",
	KindPragmaTableInfo:         "pragma-table-info",
	KindPragmaForeignKeysSingle: "pragma-foreign-keys-single",
	KindPragmaForeignKeysList:   "pragma-foreign-keys-list",
	KindBulkUpdate:              "bulk-update",
	KindBulkDelete:              "bulk-delete",
	KindPlainSelect:             "select",
	KindShowOrDescribe:          "show-or-describe",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "other"
	}
	return kindNames[k]
}

// Classification is the outcome of Classify.
type Classification struct {
	Mode Mode
	Kind Kind
}

// Text markers. These are matched case-sensitively, as sent by the
// query generator.
const (
	commentMarker          = "-- "
	schemaTable            = "sqlite_master"
	pragmaIndexList        = "PRAGMA INDEX_LIST"
	pragmaTableInfo        = "PRAGMA TABLE_INFO"
	pragmaForeignKeysQuery = "PRAGMA foreign_keys;"
	pragmaForeignKeys      = "PRAGMA foreign_keys"
	createTemporaryTable   = "create temporary table"
)

// Classify decides how st is executed and how its results are shaped.
// It has no side effects; the rest of the package only looks at the result,
// never at the SQL text again.
func Classify(st Statement, d Delegate) Classification {
	if d == nil {
		d = DefaultDelegate{}
	}
	return Classification{Mode: classifyMode(st, d), Kind: classifyKind(st, d)}
}

func classifyMode(st Statement, d Delegate) Mode {
	switch {
	case d.IsInsertQuery(st, nil),
		d.IsUpdateQuery(st),
		containsFold(st.SQL, createTemporaryTable),
		st.Type == TypeBulkDelete:
		return ModeEffectOnly
	}
	return ModeRowFetching
}

func classifyKind(st Statement, d Delegate) Kind {
	sql := st.SQL
	switch {
	case strings.HasPrefix(sql, commentMarker):
		return KindNoOp
	case strings.Contains(sql, schemaTable):
		return KindSchemaList
	case strings.Contains(sql, pragmaIndexList):
		return KindPragmaIndexList
	case strings.Contains(sql, pragmaTableInfo):
		return KindPragmaTableInfo
	case strings.Contains(sql, pragmaForeignKeysQuery):
		return KindPragmaForeignKeysSingle
	case strings.Contains(sql, pragmaForeignKeys):
		return KindPragmaForeignKeysList
	case st.Type == TypeBulkUpdate:
		return KindBulkUpdate
	case st.Type == TypeBulkDelete:
		return KindBulkDelete
	case d.IsSelectQuery(st):
		return KindPlainSelect
	case d.IsShowOrDescribeQuery(st):
		return KindShowOrDescribe
	}
	return KindOther
}
