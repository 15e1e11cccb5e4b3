package query

import (
	"fmt"
	"sync"
	"time"

	sqlquery "github.com/tarmac-project/sqlquery"
	"github.com/tarmac-project/sqlquery/logging"
	"github.com/tarmac-project/sqlquery/metrics"
)

// DefaultMetricsPrefix prefixes the executor's metric names.
const DefaultMetricsPrefix = "sqlquery"

// ConnConfig configures a Conn.
type ConnConfig struct {
	// Database is the handle statements run against. Required.
	Database sqlquery.Database

	// Logging receives connection level messages such as skipped schema
	// introspection. Optional.
	Logging logging.Client

	// Metrics records statement counts, failures, latency and queue depth. Optional.
	Metrics metrics.Client

	// MetricsPrefix defaults to DefaultMetricsPrefix.
	MetricsPrefix string
}

// Conn runs statements against one database handle strictly one at a time,
// in submission order. All the work of a statement, its schema introspection
// included, finishes before the next statement starts.
type Conn struct {
	db    sqlquery.Database
	log   logging.Client
	stats *metrics.Statements

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// outcome is what the worker hands back for one statement.
type outcome struct {
	rows     []sqlquery.Row
	mutation *sqlquery.Mutation
	catalog  Catalog
	err      error
}

// NewConn starts the worker for cfg.Database.
func NewConn(cfg ConnConfig) (*Conn, error) {
	if cfg.Database == nil {
		return nil, ErrDatabaseNil
	}

	var stats *metrics.Statements
	if cfg.Metrics != nil {
		prefix := cfg.MetricsPrefix
		if prefix == "" {
			prefix = DefaultMetricsPrefix
		}
		s, err := metrics.NewStatements(cfg.Metrics, prefix)
		if err != nil {
			return nil, err
		}
		stats = s
	}

	c := &Conn{
		db:    cfg.Database,
		log:   cfg.Logging,
		stats: stats,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go c.loop()
	return c, nil
}

// Database returns the underlying handle.
func (c *Conn) Database() sqlquery.Database { return c.db }

// Serialize runs fn on the connection's worker after all previously
// submitted work, and waits for it to return.
//
// fn must not call Serialize or Query.Run on the same Conn: both wait for the
// worker that is busy running fn, and never return. Use Query.Start from
// inside fn; the statement runs once fn has returned.
func (c *Conn) Serialize(fn func()) error {
	finished := make(chan struct{})
	if err := c.submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	<-finished
	return nil
}

// Close stops accepting work, lets queued work finish and stops the worker.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
	<-c.done
	return nil
}

func (c *Conn) submit(job func()) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	// Counted under the lock so Dequeued never precedes it.
	c.stats.Queued()
	c.queue = append(c.queue, job)
	c.mu.Unlock()

	c.signal()
	return nil
}

func (c *Conn) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Conn) loop() {
	defer close(c.done)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			<-c.wake
			continue
		}
		job := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.stats.Dequeued()
		job()
	}
}

// execute runs on the worker. Row-fetching statements load the column type
// catalog first; the catalog is complete before the main statement is issued.
func (c *Conn) execute(st Statement, mode Mode) outcome {
	var out outcome
	start := time.Now()

	if mode == ModeRowFetching {
		out.catalog = LoadCatalog(c.db, TableNames(st), c.introspectionFailed)
		out.rows, out.err = c.db.All(st.SQL)
	} else {
		m, err := c.db.Run(st.SQL)
		out.mutation, out.err = &m, err
	}

	c.stats.Executed(time.Since(start), out.err)

	if out.err != nil {
		out = outcome{err: &ExecError{SQL: st.SQL, Err: out.err}}
	}
	return out
}

func (c *Conn) introspectionFailed(table string, err error) {
	c.stats.IntrospectionFailed()
	if c.log != nil {
		c.log.Warn(fmt.Sprintf("skipping column types for %s: %v", table, err))
	}
}
