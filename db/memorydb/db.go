package memorydb

import (
	"container/list"
	"sync"

	rollupdb "github.com/celer-network/go-zkrollup/db"
)

// Enforce database and transaction implements interfaces
var _ rollupdb.DB = (*DB)(nil)

// DB keeps everything in a map. It is meant for tests and dry runs.
type DB struct {
	lock sync.Mutex
	db   map[string][]byte
}

func NewDB() *DB {
	return &DB{
		db: make(map[string][]byte),
	}
}

func (db *DB) Type() string {
	return "memorydb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	db.db[string(key)] = copyBytes(rollupdb.ConvNilToBytes(value))
	return nil
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	delete(db.db, string(key))
	return nil
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	value, exists := db.db[string(key)]
	if !exists {
		return nil, false, nil
	}
	return copyBytes(value), true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	_, ok := db.db[string(key)]
	return ok, nil
}

func (db *DB) Close() error {
	return nil
}

func (db *DB) NewTx() rollupdb.Transaction {
	return &Transaction{batch: newBatch(db)}
}

func (db *DB) NewBulk() rollupdb.Bulk {
	return &Bulk{batch: newBatch(db)}
}

// apply writes the queued operations under the db lock.
func (db *DB) apply(ops *list.List) {
	db.lock.Lock()
	defer db.lock.Unlock()

	for e := ops.Front(); e != nil; e = e.Next() {
		op := e.Value.(*txOp)
		if op.isSet {
			db.db[string(op.key)] = op.value
		} else {
			delete(db.db, string(op.key))
		}
	}
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
