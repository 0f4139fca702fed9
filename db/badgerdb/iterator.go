package badgerdb

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v2"

	rollupdb "github.com/celer-network/go-zkrollup/db"
)

var errInvalidIterator = errors.New("iterator is invalid")

// Iterator holds a read-only badger transaction until Close.
type Iterator struct {
	end     []byte
	reverse bool
	txn     *badger.Txn
	iter    *badger.Iterator
}

func (db *DB) Iterator(start, end []byte) rollupdb.Iterator {
	txn := db.db.NewTransaction(false)

	// start greater than end means reverse order
	reverse := end != nil && bytes.Compare(start, end) == 1

	opt := badger.DefaultIteratorOptions
	opt.PrefetchValues = false
	opt.Reverse = reverse

	iter := txn.NewIterator(opt)
	iter.Seek(start)

	return &Iterator{
		end:     end,
		reverse: reverse,
		txn:     txn,
		iter:    iter,
	}
}

func (iter *Iterator) Next() error {
	if !iter.Valid() {
		return errInvalidIterator
	}
	iter.iter.Next()
	return nil
}

func (iter *Iterator) Valid() bool {
	if !iter.iter.Valid() {
		return false
	}
	if iter.end == nil {
		return true
	}
	key := iter.iter.Item().Key()
	if iter.reverse {
		return bytes.Compare(key, iter.end) > 0
	}
	return bytes.Compare(key, iter.end) < 0
}

func (iter *Iterator) Key() ([]byte, error) {
	if !iter.Valid() {
		return nil, errInvalidIterator
	}
	return iter.iter.Item().KeyCopy(nil), nil
}

func (iter *Iterator) Value() ([]byte, error) {
	if !iter.Valid() {
		return nil, errInvalidIterator
	}
	return iter.iter.Item().ValueCopy(nil)
}

func (iter *Iterator) Close() {
	iter.iter.Close()
	iter.txn.Discard()
}
