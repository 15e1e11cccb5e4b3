package query

import (
	"fmt"
	"sync"
)

// Query executes statements on a Conn on behalf of a callee.
type Query struct {
	conn   *Conn
	callee Callee
	opts   Options
}

// New creates a Query. callee may be nil.
func New(conn *Conn, callee Callee, opts Options) *Query {
	if opts.Delegate == nil {
		opts.Delegate = DefaultDelegate{}
	}
	return &Query{conn: conn, callee: callee, opts: opts}
}

// Run executes sql and waits for its result.
func (q *Query) Run(sql string) (any, error) {
	return q.Start(sql).Wait()
}

// Start submits sql and returns immediately. Statements started on the same
// Conn execute in the order Start was called.
func (q *Query) Start(sql string) *Completion {
	st := NewStatement(sql, q.opts)
	cls := Classify(st, q.opts.Delegate)
	c := newCompletion(q.opts.Listener, q.callee)

	if q.opts.Logging != nil {
		q.opts.Logging.Info(fmt.Sprintf("Executing (%s): %s", st.UUID, st.SQL))
	}

	// A statement that is only a comment never reaches the database.
	if cls.Kind == KindNoOp {
		go func() {
			c.sql(st.SQL)
			c.finish(nil, nil)
		}()
		return c
	}

	results := make(chan outcome, 1)
	if err := q.conn.submit(func() { results <- q.conn.execute(st, cls.Mode) }); err != nil {
		go c.finish(nil, &ExecError{SQL: st.SQL, Err: err})
		return c
	}

	go func() {
		out := <-results
		c.sql(st.SQL)
		if out.err != nil {
			c.finish(nil, out.err)
			return
		}
		c.finish(Materialize(MaterializeInput{
			Statement: st,
			Kind:      cls.Kind,
			Rows:      out.rows,
			Mutation:  out.mutation,
			Catalog:   out.catalog,
			Delegate:  q.opts.Delegate,
			Callee:    q.callee,
		}), nil)
	}()
	return c
}

// Completion is the single terminal outcome of a started statement.
type Completion struct {
	listener Listener
	callee   Callee

	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newCompletion(l Listener, callee Callee) *Completion {
	return &Completion{listener: l, callee: callee, done: make(chan struct{})}
}

// Done is closed once the statement succeeded or failed and the listener
// has been notified.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Wait blocks until the statement finished and returns its outcome.
func (c *Completion) Wait() (any, error) {
	<-c.done
	return c.value, c.err
}

func (c *Completion) sql(text string) {
	if c.listener.SQL != nil {
		c.listener.SQL(text)
	}
}

func (c *Completion) finish(value any, err error) {
	c.once.Do(func() {
		c.value, c.err = value, err
		switch {
		case err != nil && c.listener.Error != nil:
			c.listener.Error(err, c.callee)
		case err == nil && c.listener.Success != nil:
			c.listener.Success(value)
		}
		close(c.done)
	})
}
