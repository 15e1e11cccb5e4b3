package query

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sqlquery "github.com/tarmac-project/sqlquery"
)

var errNoSuchTable = errors.New("SQLITE_ERROR: no such table")

// scripted is the canned answer for one SQL text.
type scripted struct {
	rows     []sqlquery.Row
	mutation sqlquery.Mutation
	err      error
	delay    time.Duration
}

type dbCall struct {
	method string
	sql    string
}

// fakeDB answers from a script and records every call in completion order.
type fakeDB struct {
	mu     sync.Mutex
	script map[string]scripted
	calls  []dbCall
}

func newFakeDB(script map[string]scripted) *fakeDB {
	if script == nil {
		script = map[string]scripted{}
	}
	return &fakeDB{script: script}
}

func (f *fakeDB) answer(method, sql string) scripted {
	f.mu.Lock()
	s, ok := f.script[sql]
	f.mu.Unlock()
	if !ok {
		s = scripted{rows: []sqlquery.Row{}}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, dbCall{method: method, sql: sql})
	f.mu.Unlock()
	return s
}

func (f *fakeDB) Run(sql string) (sqlquery.Mutation, error) {
	s := f.answer("run", sql)
	return s.mutation, s.err
}

func (f *fakeDB) All(sql string) ([]sqlquery.Row, error) {
	s := f.answer("all", sql)
	return s.rows, s.err
}

func (f *fakeDB) Calls() []dbCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dbCall(nil), f.calls...)
}

// unsyncDB is a handle with no locking of its own. It counts calls that
// overlap another call in flight.
type unsyncDB struct {
	inFlight   atomic.Int32
	overlapped atomic.Int32
	seen       []string
}

func (u *unsyncDB) enter(sql string) {
	if u.inFlight.Add(1) > 1 {
		u.overlapped.Add(1)
	}
	time.Sleep(5 * time.Millisecond)
	u.seen = append(u.seen, sql)
	u.inFlight.Add(-1)
}

func (u *unsyncDB) Run(sql string) (sqlquery.Mutation, error) {
	u.enter(sql)
	return sqlquery.Mutation{}, nil
}

func (u *unsyncDB) All(sql string) ([]sqlquery.Row, error) {
	u.enter(sql)
	if strings.HasPrefix(sql, "PRAGMA table_info(") {
		table := strings.TrimSuffix(strings.TrimPrefix(sql, "PRAGMA table_info("), ")")
		return tableInfoRows([2]string{table + "_col", "TEXT"}), nil
	}
	return []sqlquery.Row{}, nil
}

// instance is a minimal callee.
type instance struct {
	mu sync.Mutex
	id int64
}

func (i *instance) SetInsertID(id int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.id = id
}

func (i *instance) ID() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.id
}

// recorder collects listener events.
type recorder struct {
	mu        sync.Mutex
	sql       []string
	successes []any
	errors    []error
	callees   []Callee
}

func (r *recorder) Listener() Listener {
	return Listener{
		SQL: func(sql string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.sql = append(r.sql, sql)
		},
		Success: func(v any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.successes = append(r.successes, v)
		},
		Error: func(err error, callee Callee) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, err)
			r.callees = append(r.callees, callee)
		},
	}
}

func (r *recorder) counts() (sql, successes, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sql), len(r.successes), len(r.errors)
}
