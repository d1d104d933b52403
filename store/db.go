package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("not found")

// Database wraps a Badger instance.
type Database struct {
	db   *badger.DB
	once sync.Once
}

// NewDatabase opens (or creates) a Badger database under path.
func NewDatabase(path string) (*Database, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}
	return open(badger.DefaultOptions(path).WithSyncWrites(true))
}

// NewInMemoryDatabase opens a Badger database that never touches disk.
func NewInMemoryDatabase() (*Database, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Database, error) {
	d := &Database{}
	var err error
	d.once.Do(func() {
		d.db, err = badger.Open(opts.WithLogger(nil))
		if err != nil {
			err = fmt.Errorf("failed to open Badger database: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Set sets a key-value pair.
func (d *Database) Set(key, value []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Get retrieves the value for key, or ErrNotFound.
func (d *Database) Get(key []byte) ([]byte, error) {
	var valCopy []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return valCopy, err
}

// Update rewrites the value of an existing key through fn.
func (d *Database) Update(key []byte, fn func(old []byte) ([]byte, error)) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		old, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		updated, err := fn(old)
		if err != nil {
			return err
		}
		return txn.Set(key, updated)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// Scan calls fn with every value whose key starts with prefix, in key order.
func (d *Database) Scan(prefix []byte, fn func(key, value []byte) error) error {
	return d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close Badger database: %v", err)
	}
	return nil
}
