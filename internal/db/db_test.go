package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrations(t *testing.T) {
	d, err := OpenMemory("dbtest_open")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	v, err := Version(d)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	for _, table := range []string{"users", "orders", "order_items", "order_timeline", "order_documents", "partners", "rates", "activities", "id_sequences"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestActivitiesAreAppendOnly(t *testing.T) {
	d, err := OpenMemory("dbtest_append_only")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Exec(`INSERT INTO activities (id, type, entity, role, actor_id, actor, timestamp, severity)
		VALUES ('act1', 'Order Placed', 'ORD1', 'Customer', 'cust1', 'Bob Customer', '2023-10-28T08:00:00Z', 'info')`)
	require.NoError(t, err)

	_, err = d.Exec(`UPDATE activities SET severity = 'warning' WHERE id = 'act1'`)
	assert.Error(t, err)
	_, err = d.Exec(`DELETE FROM activities WHERE id = 'act1'`)
	assert.Error(t, err)
}

func TestRollbackLast(t *testing.T) {
	d, err := OpenMemory("dbtest_rollback")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, RollbackLast(d))
	v, err := Version(d)
	require.NoError(t, err)
	assert.Zero(t, v)

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'orders'`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, RollbackLast(d), "nothing left to roll back")
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
