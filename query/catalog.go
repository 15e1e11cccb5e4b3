package query

import (
	"fmt"
	"regexp"

	sqlquery "github.com/tarmac-project/sqlquery"
)

// fromTable finds the first backtick-quoted table after FROM.
var fromTable = regexp.MustCompile("(?i)FROM `(.*?)`")

// Catalog maps "table.column" and bare "column" keys to declared SQL types.
// A missing key means no coercion applies.
type Catalog map[string]string

// Lookup returns the declared type for a result column key.
func (c Catalog) Lookup(column string) (string, bool) {
	t, ok := c[column]
	return t, ok
}

// merge adds one table's PRAGMA table_info rows. Bare column keys are
// overwritten by later tables.
func (c Catalog) merge(table string, columns []sqlquery.Row) {
	for _, col := range columns {
		name := stringValue(col["name"])
		if name == "" {
			continue
		}
		typ := stringValue(col["type"])
		c[table+"."+name] = typ
		c[name] = typ
	}
}

// TableNames returns the tables whose column types st needs: the explicit
// list when given, otherwise the first FROM `name` in the SQL.
func TableNames(st Statement) []string {
	if len(st.TableNames) > 0 {
		return st.TableNames
	}
	if m := fromTable.FindStringSubmatch(st.SQL); m != nil {
		return []string{m[1]}
	}
	return nil
}

func tableInfoSQL(table string) string {
	return fmt.Sprintf("PRAGMA table_info(%s)", table)
}

// LoadCatalog fetches the column types of every table, skipping
// sqlite_master. Fetches are issued one at a time on the caller's goroutine,
// so the handle never sees two calls at once, and LoadCatalog returns only
// when every table has been tried. A failed fetch is reported to onErr (which
// may be nil) and contributes nothing. Tables are merged in list order.
func LoadCatalog(db sqlquery.Database, tables []string, onErr func(table string, err error)) Catalog {
	cat := make(Catalog)
	for _, table := range tables {
		if table == schemaTable {
			continue
		}
		columns, err := db.All(tableInfoSQL(table))
		if err != nil {
			if onErr != nil {
				onErr(table, err)
			}
			continue
		}
		cat.merge(table, columns)
	}
	return cat
}
