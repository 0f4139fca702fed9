package memorydb

import (
	"container/list"
	"errors"
	"sync"

	rollupdb "github.com/celer-network/go-zkrollup/db"
)

var (
	errCommitAfterDiscard = errors.New("commit after discard is not allowed")
	errCommitTwice        = errors.New("commit occurs two times")
)

type txOp struct {
	isSet bool
	key   []byte
	value []byte
}

// batch queues operations until they are applied to the db in one step.
type batch struct {
	lock      sync.Mutex
	db        *DB
	opList    *list.List
	isDiscard bool
	isCommit  bool
}

func newBatch(db *DB) *batch {
	return &batch{
		db:     db,
		opList: list.New(),
	}
}

func (b *batch) set(namespace []byte, key []byte, value []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	b.opList.PushBack(&txOp{true, key, copyBytes(rollupdb.ConvNilToBytes(value))})
	return nil
}

func (b *batch) delete(namespace []byte, key []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	b.opList.PushBack(&txOp{false, key, nil})
	return nil
}

func (b *batch) commit() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.isDiscard {
		return errCommitAfterDiscard
	} else if b.isCommit {
		return errCommitTwice
	}
	b.db.apply(b.opList)
	b.isCommit = true
	return nil
}

func (b *batch) discard() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.isDiscard = true
}

type Transaction struct {
	*batch
}

func (transaction *Transaction) Set(namespace []byte, key []byte, value []byte) error {
	return transaction.set(namespace, key, value)
}

func (transaction *Transaction) Delete(namespace []byte, key []byte) error {
	return transaction.delete(namespace, key)
}

func (transaction *Transaction) Commit() error {
	return transaction.commit()
}

func (transaction *Transaction) Discard() {
	transaction.discard()
}
