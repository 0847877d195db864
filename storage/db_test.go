package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Database {
	t.Helper()
	dir := t.TempDir()
	ldb, err := NewLevelDB(filepath.Join(dir, "leveldb"))
	require.NoError(t, err)
	bdb, err := NewBoltDB(filepath.Join(dir, "bolt.db"))
	require.NoError(t, err)
	return map[string]Database{
		"memory":  NewMemDB(),
		"leveldb": ldb,
		"bolt":    bdb,
	}
}

func TestBackendsPutGetDelete(t *testing.T) {
	for name, db := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer db.Close()

			_, err := db.Get([]byte("missing"))
			require.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, db.Put([]byte("alpha"), []byte("one")))
			value, err := db.Get([]byte("alpha"))
			require.NoError(t, err)
			require.Equal(t, []byte("one"), value)

			require.NoError(t, db.Put([]byte("alpha"), []byte("two")))
			value, err = db.Get([]byte("alpha"))
			require.NoError(t, err)
			require.Equal(t, []byte("two"), value, "puts overwrite")

			require.NoError(t, db.Delete([]byte("alpha")))
			_, err = db.Get([]byte("alpha"))
			require.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, db.Delete([]byte("alpha")), "deleting a missing key is not an error")
		})
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("original")
	require.NoError(t, db.Put([]byte("key"), value))
	value[0] = 'X'

	stored, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), stored, "stored value must not alias caller memory")

	stored[0] = 'Y'
	again, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again, "returned value must not alias stored memory")
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leveldb")

	db, err := NewLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("durable"), []byte("yes")))
	require.NoError(t, db.Close())

	db, err = NewLevelDB(path)
	require.NoError(t, err)
	defer db.Close()
	value, err := db.Get([]byte("durable"))
	require.NoError(t, err)
	require.Equal(t, []byte("yes"), value)
}

func TestBoltDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bolt.db")

	db, err := NewBoltDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("durable"), []byte("yes")))
	require.NoError(t, db.Close())

	db, err = NewBoltDB(path)
	require.NoError(t, err)
	defer db.Close()
	value, err := db.Get([]byte("durable"))
	require.NoError(t, err)
	require.Equal(t, []byte("yes"), value)
}
