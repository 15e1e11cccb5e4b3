package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	sqlquery "github.com/tarmac-project/sqlquery"
)

// Declared types that trigger coercion of selected values.
const (
	typeDateTime  = "DATETIME"
	typeBlob      = "BLOB"
	typeBoolean   = "TINYINT(1)"
	utcDesignator = "Z"
)

// dateTimeLayouts are tried in order against the stored text plus "Z".
// Fractional seconds are accepted by the seconds layouts.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02Z07:00",
}

// IndexInfo describes one index reported by PRAGMA INDEX_LIST.
type IndexInfo struct {
	Name      string `json:"name"`
	TableName string `json:"tableName"`
	Unique    bool   `json:"unique"`
}

// ColumnInfo describes one column reported by PRAGMA TABLE_INFO.
type ColumnInfo struct {
	Type         string `json:"type"`
	AllowNull    bool   `json:"allowNull"`
	DefaultValue any    `json:"defaultValue"`
	PrimaryKey   bool   `json:"primaryKey"`
}

// TableInfo maps column names to their description.
type TableInfo map[string]ColumnInfo

// MaterializeInput is everything needed to shape one statement's result.
type MaterializeInput struct {
	Statement Statement
	Kind      Kind
	Rows      []sqlquery.Row
	Mutation  *sqlquery.Mutation
	Catalog   Catalog
	Delegate  Delegate
	Callee    Callee
}

// Materialize turns raw rows into the value handed to the caller. The input
// rows are not modified, so the same input always yields the same result.
//
// The concrete type depends on the kind: []string for schema lists, []any (or
// a single element in plain mode) for selects, []sqlquery.Row for
// show/describe and foreign key lists, sqlquery.Row for the single foreign key
// pragma, []IndexInfo, TableInfo, int64 for bulk statements, and the callee
// for everything else.
func Materialize(in MaterializeInput) any {
	d := in.Delegate
	if d == nil {
		d = DefaultDelegate{}
	}
	st := in.Statement

	if in.Mutation != nil && d.IsInsertQuery(st, in.Mutation) {
		d.HandleInsertQuery(st, *in.Mutation, in.Callee)
	}

	switch in.Kind {
	case KindNoOp:
		return nil

	case KindSchemaList:
		names := make([]string, len(in.Rows))
		for i, r := range in.Rows {
			names[i] = stringValue(r["name"])
		}
		return names

	case KindPlainSelect:
		rows := in.Rows
		if !st.Raw {
			rows = coerceRows(rows, in.Catalog)
		}
		values := d.HandleSelectQuery(st, rows)
		if st.Plain {
			if len(values) == 0 {
				return nil
			}
			return values[0]
		}
		return values

	case KindShowOrDescribe:
		return in.Rows

	case KindPragmaIndexList:
		return indexList(in.Rows)

	case KindPragmaTableInfo:
		return tableInfo(in.Rows)

	case KindPragmaForeignKeysSingle:
		if len(in.Rows) == 0 {
			return nil
		}
		return in.Rows[0]

	case KindPragmaForeignKeysList:
		return in.Rows

	case KindBulkUpdate, KindBulkDelete:
		if in.Mutation == nil {
			return nil
		}
		return in.Mutation.RowsAffected
	}

	if in.Callee == nil {
		return nil
	}
	return in.Callee
}

func coerceRows(rows []sqlquery.Row, cat Catalog) []sqlquery.Row {
	out := make([]sqlquery.Row, len(rows))
	for i, r := range rows {
		row := r.Clone()
		for name, v := range row {
			typ, ok := cat.Lookup(name)
			if !ok || v == nil {
				continue
			}
			switch {
			case typ == typeDateTime:
				row[name] = toDateTime(v)
			case strings.Contains(typ, typeBlob):
				row[name] = toBlob(v)
			}
		}
		out[i] = row
	}
	return out
}

// toDateTime reads stored text as a UTC timestamp. Values it cannot read
// are returned unchanged.
func toDateTime(v any) any {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return v
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s+utcDesignator); err == nil {
			return t.UTC()
		}
	}
	return v
}

// toBlob copies non-empty text or bytes into a fresh byte slice.
func toBlob(v any) any {
	switch x := v.(type) {
	case string:
		if x != "" {
			return []byte(x)
		}
	case []byte:
		if len(x) > 0 {
			return append([]byte(nil), x...)
		}
	}
	return v
}

// indexList keeps the driver's unique flag inverted: unique is true when the
// flag is 0. Callers depend on this polarity.
func indexList(rows []sqlquery.Row) []IndexInfo {
	out := make([]IndexInfo, len(rows))
	for i, r := range rows {
		name := stringValue(r["name"])
		table, _, _ := strings.Cut(name, "_")
		out[i] = IndexInfo{
			Name:      name,
			TableName: table,
			Unique:    numberEquals(r["unique"], 0),
		}
	}
	return out
}

var booleanDefaults = map[string]bool{"0": false, "1": true}

func tableInfo(rows []sqlquery.Row) TableInfo {
	out := make(TableInfo, len(rows))
	for _, r := range rows {
		col := ColumnInfo{
			Type:         stringValue(r["type"]),
			AllowNull:    numberEquals(r["notnull"], 0),
			DefaultValue: r["dflt_value"],
			PrimaryKey:   numberEquals(r["pk"], 1),
		}

		if col.Type == typeBoolean {
			if b, ok := booleanDefaults[defaultKey(col.DefaultValue)]; ok {
				col.DefaultValue = b
			} else {
				col.DefaultValue = nil
			}
		}

		if s, ok := col.DefaultValue.(string); ok {
			col.DefaultValue = strings.ReplaceAll(s, "'", "")
		}

		out[stringValue(r["name"])] = col
	}
	return out
}

// defaultKey renders a default value the way it would be used as a lookup key.
func defaultKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// numberEquals is a strict numeric comparison: text "0" is not the number 0.
func numberEquals(v any, n int64) bool {
	switch x := v.(type) {
	case float64:
		return x == float64(n)
	case float32:
		return float64(x) == float64(n)
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == float64(n)
	}
	got, ok := toInt64(v)
	return ok && got == n
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return uintToInt64(x)
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	}
	return 0, false
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}
