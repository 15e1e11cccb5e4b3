package query

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	sqlquery "github.com/tarmac-project/sqlquery"
)

// orderDelegate records the order in which the insert and select handlers ran.
type orderDelegate struct {
	DefaultDelegate
	steps *[]string
}

func (d orderDelegate) IsInsertQuery(Statement, *sqlquery.Mutation) bool { return true }

func (d orderDelegate) IsSelectQuery(Statement) bool { return true }

func (d orderDelegate) HandleInsertQuery(st Statement, m sqlquery.Mutation, callee Callee) {
	*d.steps = append(*d.steps, "insert")
	d.DefaultDelegate.HandleInsertQuery(st, m, callee)
}

func (d orderDelegate) HandleSelectQuery(st Statement, rows []sqlquery.Row) []any {
	*d.steps = append(*d.steps, "select")
	return d.DefaultDelegate.HandleSelectQuery(st, rows)
}

func selectInput(rows []sqlquery.Row, cat Catalog) MaterializeInput {
	return MaterializeInput{
		Statement: Statement{SQL: "SELECT * FROM `users`", Type: TypeSelect},
		Kind:      KindPlainSelect,
		Rows:      rows,
		Catalog:   cat,
	}
}

func TestMaterializeSelectCoercion(t *testing.T) {
	t.Parallel()

	cat := Catalog{
		"created":     "DATETIME",
		"users.photo": "BLOB",
		"photo":       "BLOB",
		"thumb":       "MEDIUMBLOB",
		"name":        "VARCHAR(255)",
	}

	t.Run("DATETIME is read as UTC", func(t *testing.T) {
		got := Materialize(selectInput([]sqlquery.Row{{"created": "2011-03-27 10:01:55"}}, cat))
		rows, ok := got.([]any)
		if !ok || len(rows) != 1 {
			t.Fatalf("unexpected result %#v", got)
		}
		v, ok := rows[0].(sqlquery.Row)["created"].(time.Time)
		if !ok {
			t.Fatalf("created was not converted, got %#v", rows[0])
		}
		want := time.Date(2011, 3, 27, 10, 1, 55, 0, time.UTC)
		if !v.Equal(want) || v.Location() != time.UTC {
			t.Fatalf("want %v got %v", want, v)
		}
	})

	t.Run("DATETIME forms", func(t *testing.T) {
		tt := []struct {
			in   string
			want time.Time
		}{
			{in: "2024-01-02", want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			{in: "2024-01-02 03:04", want: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
			{in: "2024-01-02T03:04", want: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
			{in: "2024-01-02 03:04:05", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			{in: "2024-01-02T03:04:05", want: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			{in: "2024-01-02 03:04:05.250", want: time.Date(2024, 1, 2, 3, 4, 5, 250000000, time.UTC)},
		}

		for _, tc := range tt {
			got := Materialize(selectInput([]sqlquery.Row{{"created": tc.in}}, cat)).([]any)
			v, ok := got[0].(sqlquery.Row)["created"].(time.Time)
			if !ok {
				t.Fatalf("%q was not converted, got %#v", tc.in, got[0])
			}
			if !v.Equal(tc.want) {
				t.Fatalf("%q: want %v got %v", tc.in, tc.want, v)
			}
		}
	})

	t.Run("unparsable DATETIME is left alone", func(t *testing.T) {
		got := Materialize(selectInput([]sqlquery.Row{{"created": "yesterday"}}, cat)).([]any)
		if v := got[0].(sqlquery.Row)["created"]; v != "yesterday" {
			t.Fatalf("want %q got %#v", "yesterday", v)
		}
	})

	t.Run("time values are normalized to UTC", func(t *testing.T) {
		loc := time.FixedZone("CEST", 2*60*60)
		in := time.Date(2011, 3, 27, 12, 1, 55, 0, loc)
		got := Materialize(selectInput([]sqlquery.Row{{"created": in}}, cat)).([]any)
		v := got[0].(sqlquery.Row)["created"].(time.Time)
		if !v.Equal(in) || v.Location() != time.UTC {
			t.Fatalf("want %v in UTC got %v", in, v)
		}
	})

	t.Run("BLOB types become bytes", func(t *testing.T) {
		got := Materialize(selectInput([]sqlquery.Row{{"photo": "abc", "thumb": []byte("xyz")}}, cat)).([]any)
		row := got[0].(sqlquery.Row)
		if b, ok := row["photo"].([]byte); !ok || !bytes.Equal(b, []byte("abc")) {
			t.Fatalf("photo: want bytes got %#v", row["photo"])
		}
		if b, ok := row["thumb"].([]byte); !ok || !bytes.Equal(b, []byte("xyz")) {
			t.Fatalf("thumb: want bytes got %#v", row["thumb"])
		}
	})

	t.Run("empty and null BLOB pass through", func(t *testing.T) {
		got := Materialize(selectInput([]sqlquery.Row{{"photo": "", "thumb": nil}}, cat)).([]any)
		row := got[0].(sqlquery.Row)
		if row["photo"] != "" {
			t.Fatalf("photo: want empty string got %#v", row["photo"])
		}
		if row["thumb"] != nil {
			t.Fatalf("thumb: want nil got %#v", row["thumb"])
		}
	})

	t.Run("columns without a type are untouched", func(t *testing.T) {
		got := Materialize(selectInput([]sqlquery.Row{{"name": "bob", "extra": "2011-03-27 10:01:55"}}, cat)).([]any)
		want := sqlquery.Row{"name": "bob", "extra": "2011-03-27 10:01:55"}
		if !reflect.DeepEqual(got[0], want) {
			t.Fatalf("want %#v got %#v", want, got[0])
		}
	})

	t.Run("raw mode skips coercion", func(t *testing.T) {
		in := selectInput([]sqlquery.Row{{"created": "2011-03-27 10:01:55", "photo": "abc"}}, cat)
		in.Statement.Raw = true
		got := Materialize(in).([]any)
		want := sqlquery.Row{"created": "2011-03-27 10:01:55", "photo": "abc"}
		if !reflect.DeepEqual(got[0], want) {
			t.Fatalf("want %#v got %#v", want, got[0])
		}
	})
}

func TestMaterializePlain(t *testing.T) {
	t.Parallel()

	rows := []sqlquery.Row{{"id": int64(1)}, {"id": int64(2)}}
	in := selectInput(rows, nil)
	in.Statement.Plain = true

	got := Materialize(in)
	if !reflect.DeepEqual(got, sqlquery.Row{"id": int64(1)}) {
		t.Fatalf("want first row got %#v", got)
	}

	in.Rows = nil
	if got := Materialize(in); got != nil {
		t.Fatalf("want nil for no rows got %#v", got)
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	t.Parallel()

	rows := []sqlquery.Row{{"created": "2011-03-27 10:01:55", "photo": "abc"}}
	in := selectInput(rows, Catalog{"created": "DATETIME", "photo": "BLOB"})

	first := Materialize(in)
	second := Materialize(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %#v vs %#v", first, second)
	}
	if rows[0]["created"] != "2011-03-27 10:01:55" || rows[0]["photo"] != "abc" {
		t.Fatalf("input rows were modified: %#v", rows[0])
	}
}

func TestMaterializeKinds(t *testing.T) {
	t.Parallel()

	callee := &instance{}
	fkRows := []sqlquery.Row{
		{"id": int64(0), "table": "users", "from": "owner_id", "to": "id"},
		{"id": int64(1), "table": "tasks", "from": "task_id", "to": "id"},
	}

	tt := []struct {
		name string
		in   MaterializeInput
		want any
	}{
		{
			name: "no-op",
			in:   MaterializeInput{Kind: KindNoOp, Callee: callee},
			want: nil,
		},
		{
			name: "schema list",
			in: MaterializeInput{
				Kind: KindSchemaList,
				Rows: []sqlquery.Row{{"name": "users"}, {"name": "tasks"}},
			},
			want: []string{"users", "tasks"},
		},
		{
			name: "empty schema list",
			in:   MaterializeInput{Kind: KindSchemaList},
			want: []string{},
		},
		{
			name: "show or describe",
			in:   MaterializeInput{Kind: KindShowOrDescribe, Rows: fkRows},
			want: fkRows,
		},
		{
			name: "foreign keys single",
			in:   MaterializeInput{Kind: KindPragmaForeignKeysSingle, Rows: []sqlquery.Row{{"foreign_keys": int64(1)}}},
			want: sqlquery.Row{"foreign_keys": int64(1)},
		},
		{
			name: "foreign keys single without rows",
			in:   MaterializeInput{Kind: KindPragmaForeignKeysSingle},
			want: nil,
		},
		{
			name: "foreign keys list",
			in:   MaterializeInput{Kind: KindPragmaForeignKeysList, Rows: fkRows},
			want: fkRows,
		},
		{
			name: "bulk update",
			in: MaterializeInput{
				Statement: Statement{SQL: "UPDATE `users` SET `active`=0", Type: TypeBulkUpdate},
				Kind:      KindBulkUpdate,
				Mutation:  &sqlquery.Mutation{RowsAffected: 3},
			},
			want: int64(3),
		},
		{
			name: "bulk delete",
			in: MaterializeInput{
				Statement: Statement{SQL: "DELETE FROM `users`", Type: TypeBulkDelete},
				Kind:      KindBulkDelete,
				Mutation:  &sqlquery.Mutation{RowsAffected: 0},
			},
			want: int64(0),
		},
		{
			name: "bulk without mutation",
			in:   MaterializeInput{Kind: KindBulkDelete},
			want: nil,
		},
		{
			name: "other returns the callee",
			in: MaterializeInput{
				Statement: Statement{SQL: "CREATE TABLE `x` (`id` INTEGER)"},
				Kind:      KindOther,
				Rows:      []sqlquery.Row{},
				Callee:    callee,
			},
			want: callee,
		},
		{
			name: "other without callee",
			in:   MaterializeInput{Kind: KindOther},
			want: nil,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Materialize(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("want %#v got %#v", tc.want, got)
			}
		})
	}
}

func TestMaterializeInsert(t *testing.T) {
	t.Parallel()

	t.Run("sets the id and returns the callee", func(t *testing.T) {
		callee := &instance{}
		got := Materialize(MaterializeInput{
			Statement: Statement{SQL: "INSERT INTO `users` (`name`) VALUES ('bob')", Type: TypeInsert},
			Kind:      KindOther,
			Mutation:  &sqlquery.Mutation{LastInsertID: 42, RowsAffected: 1},
			Callee:    callee,
		})
		if got != callee {
			t.Fatalf("want callee got %#v", got)
		}
		if callee.ID() != 42 {
			t.Fatalf("want id 42 got %d", callee.ID())
		}
	})

	t.Run("without mutation the handler is not called", func(t *testing.T) {
		callee := &instance{id: 7}
		Materialize(MaterializeInput{
			Statement: Statement{SQL: "INSERT INTO `users` (`name`) VALUES ('bob')", Type: TypeInsert},
			Kind:      KindOther,
			Callee:    callee,
		})
		if callee.ID() != 7 {
			t.Fatalf("want id 7 got %d", callee.ID())
		}
	})

	t.Run("id is set before rows are shaped", func(t *testing.T) {
		var steps []string
		callee := &instance{}
		Materialize(MaterializeInput{
			Statement: Statement{SQL: "INSERT INTO `users` DEFAULT VALUES RETURNING *"},
			Kind:      KindPlainSelect,
			Rows:      []sqlquery.Row{{"id": int64(5)}},
			Mutation:  &sqlquery.Mutation{LastInsertID: 5},
			Delegate:  orderDelegate{steps: &steps},
			Callee:    callee,
		})
		if !reflect.DeepEqual(steps, []string{"insert", "select"}) {
			t.Fatalf("unexpected order %v", steps)
		}
		if callee.ID() != 5 {
			t.Fatalf("want id 5 got %d", callee.ID())
		}
	})
}

func TestMaterializePragmaShapes(t *testing.T) {
	t.Parallel()

	t.Run("index list from driver integers", func(t *testing.T) {
		got := Materialize(MaterializeInput{
			Kind: KindPragmaIndexList,
			Rows: []sqlquery.Row{
				{"seq": int64(0), "name": "users_email", "unique": int64(1)},
				{"seq": int64(1), "name": "users_name", "unique": int64(0)},
			},
		})
		want := []IndexInfo{
			{Name: "users_email", TableName: "users", Unique: false},
			{Name: "users_name", TableName: "users", Unique: true},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("want %#v got %#v", want, got)
		}
	})

	t.Run("table info from JSON numbers", func(t *testing.T) {
		got := Materialize(MaterializeInput{
			Kind: KindPragmaTableInfo,
			Rows: []sqlquery.Row{
				{"name": "id", "type": "INTEGER", "notnull": float64(1), "dflt_value": nil, "pk": float64(1)},
				{"name": "active", "type": "TINYINT(1)", "notnull": float64(0), "dflt_value": "1", "pk": float64(0)},
			},
		})
		want := TableInfo{
			"id":     {Type: "INTEGER", AllowNull: false, DefaultValue: nil, PrimaryKey: true},
			"active": {Type: "TINYINT(1)", AllowNull: true, DefaultValue: true, PrimaryKey: false},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("want %#v got %#v", want, got)
		}
	})
}
