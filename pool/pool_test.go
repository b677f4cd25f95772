package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
	"github.com/imransaadullah/SimpleMDB-sub000/driver"
)

func TestRouteForClassifiesVerbs(t *testing.T) {
	cases := map[string]Role{
		"SELECT * FROM users":          RoleRead,
		"  select id from t":           RoleRead,
		"INSERT INTO users VALUES (1)": RoleWrite,
		"update users set x = 1":       RoleWrite,
		"DELETE FROM users":            RoleWrite,
		"REPLACE INTO users VALUES(1)": RoleWrite,
		"CREATE TABLE t (id INT)":      RoleWrite,
		"ALTER TABLE t ADD x INT":      RoleWrite,
		"DROP TABLE t":                 RoleWrite,
		"TRUNCATE TABLE t":             RoleWrite,
		"WITH x AS (SELECT 1) SELECT * FROM x": RoleRead,
	}
	for sql, want := range cases {
		assert.Equal(t, want, RouteFor(sql), sql)
	}
}

func newFakeMember(t *testing.T) *member {
	t.Helper()
	conn, _, err := driver.NewDryRunConn(dialect.NewMySQL())
	require.NoError(t, err)
	m := newMember(driver.ConnConfig{})
	m.conn = conn
	return m
}

func TestReadConnRoundRobinsAcrossHealthyReplicas(t *testing.T) {
	p := &Pool{write: newFakeMember(t)}
	p.reads = []*member{newFakeMember(t), newFakeMember(t), newFakeMember(t)}

	seen := make([]*driver.Conn, 0, 6)
	for i := 0; i < 6; i++ {
		c, err := p.readConn()
		require.NoError(t, err)
		seen = append(seen, c)
	}
	// with 3 healthy replicas the sequence should repeat with period 3
	assert.Same(t, seen[0], seen[3])
	assert.Same(t, seen[1], seen[4])
	assert.Same(t, seen[2], seen[5])
}

func TestReadConnSkipsUnhealthyReplicas(t *testing.T) {
	p := &Pool{write: newFakeMember(t)}
	bad := newFakeMember(t)
	bad.healthy.Store(false)
	good := newFakeMember(t)
	p.reads = []*member{bad, good}

	for i := 0; i < 4; i++ {
		c, err := p.readConn()
		require.NoError(t, err)
		assert.Same(t, good.conn, c)
	}
}

func TestReadConnFallsBackToWriteWhenNoReplicasConfigured(t *testing.T) {
	p := &Pool{write: newFakeMember(t)}
	c, err := p.Conn("SELECT 1", false)
	require.NoError(t, err)
	assert.Same(t, p.write.conn, c)
}

func TestConnRoutesWritesToWriteMemberEvenWithReplicas(t *testing.T) {
	p := &Pool{write: newFakeMember(t)}
	p.reads = []*member{newFakeMember(t)}

	c, err := p.Conn("DELETE FROM users WHERE id = ?", false)
	require.NoError(t, err)
	assert.Same(t, p.write.conn, c)
}

func TestConnRoutesInTransactionToWriteMemberRegardlessOfVerb(t *testing.T) {
	p := &Pool{write: newFakeMember(t)}
	p.reads = []*member{newFakeMember(t)}

	c, err := p.Conn("SELECT 1", true)
	require.NoError(t, err)
	assert.Same(t, p.write.conn, c)
}

func TestStatsReportsHealthCounts(t *testing.T) {
	p := &Pool{write: newFakeMember(t)}
	healthy := newFakeMember(t)
	unhealthy := newFakeMember(t)
	unhealthy.healthy.Store(false)
	p.reads = []*member{healthy, unhealthy}

	s := p.Stats()
	assert.True(t, s.WriteHealthy)
	assert.Equal(t, 2, s.ReadTotal)
	assert.Equal(t, 1, s.ReadHealthy)
}
