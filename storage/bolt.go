package storage

import (
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("ledger")

// BoltDB is a persistent key-value store backed by bbolt. It offers the same
// semantics as LevelDB behind a single bucket and suits deployments that
// prefer one file on disk over a directory.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB creates or opens a bbolt database at the specified path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BoltDB{db: db}, nil
}

// Put inserts or updates a key-value pair.
func (bdb *BoltDB) Put(key []byte, value []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

// Get retrieves a value for a given key.
func (bdb *BoltDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := bdb.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(boltBucket).Get(key)
		if stored == nil {
			return ErrKeyNotFound
		}
		value = make([]byte, len(stored))
		copy(value, stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key-value pair.
func (bdb *BoltDB) Delete(key []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

// Close closes the database file.
func (bdb *BoltDB) Close() error {
	return bdb.db.Close()
}
