package cache

import (
	"encoding/binary"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
)

// Entry is a cached evaluation for one position.
type Entry struct {
	Q float64 `json:"q"`
}

// EvalCache wraps BadgerDB keyed by a position's Zobrist hash.
type EvalCache struct {
	db *badger.DB
}

// Open opens (creating if absent) the evaluation cache at the standard data
// directory.
func Open() (*EvalCache, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbDir)
}

// OpenAt opens (creating if absent) the evaluation cache at dir. Exposed
// separately from Open so tests can point it at a temporary directory
// instead of the per-OS data directory.
func OpenAt(dir string) (*EvalCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &EvalCache{db: db}, nil
}

// Close closes the underlying database.
func (c *EvalCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func keyFor(hash uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, hash)
	return key
}

// Get returns the cached Q value for hash, and whether it was found.
func (c *EvalCache) Get(hash uint64) (float64, bool) {
	var entry Entry
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFor(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return 0, false
	}
	return entry.Q, found
}

// Put stores the Q value for hash.
func (c *EvalCache) Put(hash uint64, q float64) error {
	data, err := json.Marshal(Entry{Q: q})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyFor(hash), data)
	})
}
