package kv

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("visitor-a", "bag")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("visitor-a", "bag", `[{"id":"1","qty":1}]`))
	require.NoError(t, s.Set("visitor-b", "bag", `[]`))

	v, ok, err := s.Get("visitor-a", "bag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1","qty":1}]`, v)

	require.NoError(t, s.Set("visitor-a", "bag", `[]`))
	v, _, err = s.Get("visitor-a", "bag")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "set overwrites")

	require.NoError(t, s.Delete("visitor-a", "bag"))
	_, ok, err = s.Get("visitor-a", "bag")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Get("visitor-b", "bag")
	require.NoError(t, err)
	assert.True(t, ok, "namespaces are independent")

	require.NoError(t, s.Delete("visitor-c", "missing"), "deleting a missing key is not an error")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "bag.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteSharedDatabaseIsNotClosed(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSQLite(db)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, db.Ping(), "caller keeps ownership of a shared db")
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SHOPBAG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SHOPBAG_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpenPostgresOpenError(t *testing.T) {
	orig := sqlOpen
	defer func() { sqlOpen = orig }()
	sqlOpen = func(string, string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}
	_, err := OpenPostgres("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open postgres")
}

func TestOpenDrivers(t *testing.T) {
	s, err := Open(DriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(DriverSQLite, filepath.Join(t.TempDir(), "bag.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLite{}, s)

	_, err = Open("redis", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestScope(t *testing.T) {
	m := NewMemory()
	ns := Scope(m, "visitor-a")
	assert.Equal(t, "visitor-a", ns.Name())

	require.NoError(t, ns.Set("bag", "[]"))
	v, ok, err := m.Get("visitor-a", "bag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, ns.Remove("bag"))
	_, ok, _ = ns.Get("bag")
	assert.False(t, ok)
}
