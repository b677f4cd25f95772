package pool

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
)

// writeVerb matches the leading SQL keyword that forces write routing:
// INSERT, UPDATE, DELETE, REPLACE, and the DDL verbs all route to the
// write connection; everything else (chiefly SELECT) is eligible for read
// routing.
var writeVerb = regexp.MustCompile(`(?i)^\s*(INSERT|UPDATE|DELETE|REPLACE|CREATE|DROP|ALTER|TRUNCATE)\b`)

// Role distinguishes the write connection from the round-robin read set.
type Role int

const (
	RoleWrite Role = iota
	RoleRead
)

// RouteFor inspects sqlText's leading keyword and returns the role that
// should serve it. Statements issued inside a transaction should always use
// RoleWrite regardless of this classification — Pool.Conn enforces that
// separately once a transaction is open.
func RouteFor(sqlText string) Role {
	if writeVerb.MatchString(sqlText) {
		return RoleWrite
	}
	return RoleRead
}

// member is one pooled connection plus the health bookkeeping the check
// loop needs to decide whether to route around it.
type member struct {
	cfg     driver.ConnConfig
	mu      sync.Mutex
	conn    *driver.Conn
	healthy atomic.Bool
}

func newMember(cfg driver.ConnConfig) *member {
	m := &member{cfg: cfg}
	m.healthy.Store(true)
	return m
}

func (m *member) get() (*driver.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return m.conn, nil
	}
	c, err := driver.Open(m.cfg)
	if err != nil {
		return nil, err
	}
	m.conn = c
	return c, nil
}

func (m *member) reconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	c, err := driver.Open(m.cfg)
	if err != nil {
		return err
	}
	m.conn = c
	return nil
}

// Pool routes statements to a single write connection and round-robins
// reads across zero or more read replicas. It is this module's own
// addition — sqldef has no standing connection pool — built in the
// plain-struct-plus-mutex idiom used throughout database/concurrent.go,
// with a health-check loop layered on top of driver.Conn.Ping.
type Pool struct {
	bounds Bounds
	write  *member
	reads  []*member
	rr     atomic.Uint64

	stopHealth context.CancelFunc
	healthWG   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New builds a Pool from cfg and, if cfg.Bounds.HealthChecks is set, starts
// the background health-check loop immediately.
func New(cfg Config) (*Pool, error) {
	p := &Pool{
		bounds: cfg.Bounds,
		write:  newMember(cfg.Write),
	}
	for _, rc := range cfg.Read {
		p.reads = append(p.reads, newMember(rc))
	}
	if p.bounds.HealthChecks {
		p.startHealthChecks()
	}
	return p, nil
}

// WithEnv builds a Pool from FromEnv(), for callers that want the // environment-variable convenience path end to end.
func WithEnv() (*Pool, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Conn returns the connection that should serve sqlText: the write member
// when inTransaction is true or the statement is a write verb, otherwise
// the next read replica in round-robin order (falling back to the write
// member when no reads are configured).
func (p *Pool) Conn(sqlText string, inTransaction bool) (*driver.Conn, error) {
	if inTransaction || RouteFor(sqlText) == RoleWrite || len(p.reads) == 0 {
		return p.writeConn()
	}
	return p.readConn()
}

func (p *Pool) writeConn() (*driver.Conn, error) {
	if !p.write.healthy.Load() {
		if err := p.write.reconnect(); err != nil {
			return nil, &dberrors.ConnectionError{Err: err}
		}
		p.write.healthy.Store(true)
	}
	return p.write.get()
}

func (p *Pool) readConn() (*driver.Conn, error) {
	n := uint64(len(p.reads))
	for i := uint64(0); i < n; i++ {
		idx := (p.rr.Add(1) - 1) % n
		m := p.reads[idx]
		if !m.healthy.Load() {
			continue
		}
		c, err := m.get()
		if err == nil {
			return c, nil
		}
	}
	// every replica unhealthy or failed to open: fall back to the writer
	// rather than fail the read outright.
	return p.writeConn()
}

// startHealthChecks launches a goroutine that pings every member on
// bounds.HealthCheckInterval and flips its healthy flag, reconnecting
// members that come back after having been marked unhealthy.
func (p *Pool) startHealthChecks() {
	ctx, cancel := context.WithCancel(context.Background())
	p.stopHealth = cancel
	p.healthWG.Add(1)
	go func() {
		defer p.healthWG.Done()
		ticker := time.NewTicker(p.bounds.HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.checkOnce(ctx)
			}
		}
	}()
}

func (p *Pool) checkOnce(ctx context.Context) {
	members := append([]*member{p.write}, p.reads...)
	for _, m := range members {
		cctx, cancel := context.WithTimeout(ctx, p.bounds.ConnectionTimeout)
		c, err := m.get()
		if err == nil {
			err = c.Ping(cctx)
		}
		cancel()
		m.healthy.Store(err == nil)
	}
}

// Stats summarizes pool membership and health, a -supplemented
// feature for callers that want basic pool observability without reaching
// into internals.
type Stats struct {
	WriteHealthy bool
	ReadTotal    int
	ReadHealthy  int
}

func (p *Pool) Stats() Stats {
	s := Stats{WriteHealthy: p.write.healthy.Load(), ReadTotal: len(p.reads)}
	for _, m := range p.reads {
		if m.healthy.Load() {
			s.ReadHealthy++
		}
	}
	return s
}

// Close stops the health-check loop and closes every open connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.stopHealth != nil {
		p.stopHealth()
		p.healthWG.Wait()
	}

	var firstErr error
	members := append([]*member{p.write}, p.reads...)
	for _, m := range members {
		m.mu.Lock()
		if m.conn != nil {
			if err := m.conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			m.conn = nil
		}
		m.mu.Unlock()
	}
	return firstErr
}
