package badgerdb

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"

	rollupdb "github.com/celer-network/go-zkrollup/db"
	"github.com/celer-network/go-zkrollup/log"
)

const (
	badgerDbDiscardRatio   = 0.5 // run gc when 50% of samples can be collected
	badgerDbGcInterval     = 10 * time.Minute
	badgerDbGcSize         = 1 << 20 // 1 MB
	badgerDbGcCheckPeriod  = 1 * time.Minute
	badgerValueLogFileSize = 1<<26 - 1
	badgerValueThreshold   = 1024
)

var logger = &extendedLog{Logger: log.NewLogger("db")}

// Enforce database and transaction implements interfaces
var _ rollupdb.DB = (*DB)(nil)

// DB is a rollupdb.DB stored in a badger directory.
type DB struct {
	db         *badger.DB
	ctx        context.Context
	cancelFunc context.CancelFunc
	gcDone     chan struct{}
	name       string
}

// NewDB creates a new database or loads the existing one in dir.
func NewDB(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir)

	// keep RAM usage flat with large key counts
	opts.ValueLogLoadingMode = options.FileIO
	opts.TableLoadingMode = options.FileIO
	// values below 1k live in the lsm tree
	opts.ValueThreshold = badgerValueThreshold
	// 64 MB value log files keep GC rewrites short on slow disks
	opts.ValueLogFileSize = badgerValueLogFileSize
	opts.Logger = logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	database := &DB{
		db:         db,
		ctx:        ctx,
		cancelFunc: cancelFunc,
		gcDone:     make(chan struct{}),
		name:       dir,
	}
	go database.runBadgerGC()

	return database, nil
}

func (db *DB) runBadgerGC() {
	defer close(db.gcDone)
	ticker := time.NewTicker(badgerDbGcCheckPeriod)
	defer ticker.Stop()

	lastGcT := time.Now()
	_, lastDbVlogSize := db.db.Size()
	for {
		select {
		case <-ticker.C:
			currentDblsmSize, currentDbVlogSize := db.db.Size()

			// gc when the interval passed or the value log grows slowly, which
			// means the db is not busy
			if time.Since(lastGcT) <= badgerDbGcInterval && lastDbVlogSize+badgerDbGcSize <= currentDbVlogSize {
				continue
			}
			startGcT := time.Now()
			logger.Debug().Str("name", db.name).Int64("lsmSize", currentDblsmSize).Int64("vlogSize", currentDbVlogSize).Msg("Start to GC at badger")
			err := db.db.RunValueLogGC(badgerDbDiscardRatio)
			if err != nil {
				if err == badger.ErrNoRewrite {
					logger.Debug().Str("name", db.name).Str("msg", err.Error()).Msg("Nothing to GC at badger")
				} else {
					logger.Error().Str("name", db.name).Err(err).Msg("Fail to GC at badger")
				}
				lastDbVlogSize = currentDbVlogSize
			} else {
				afterGcDblsmSize, afterGcDbVlogSize := db.db.Size()
				logger.Debug().Str("name", db.name).Int64("lsmSize", afterGcDblsmSize).Int64("vlogSize", afterGcDbVlogSize).
					Dur("takenTime", time.Since(startGcT)).Msg("Finish to GC at badger")
				lastDbVlogSize = afterGcDbVlogSize
			}
			lastGcT = time.Now()

		case <-db.ctx.Done():
			return
		}
	}
}

func (db *DB) Type() string {
	return "badgerdb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))
	value = rollupdb.ConvNilToBytes(value)

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))

	var val []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	key = rollupdb.ConvNilToBytes(rollupdb.PrependNamespace(namespace, key))

	err := db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close stops the gc goroutine and closes badger.
func (db *DB) Close() error {
	db.cancelFunc()
	<-db.gcDone
	return db.db.Close()
}

func (db *DB) NewTx() rollupdb.Transaction {
	return &Transaction{
		db:      db,
		tx:      db.db.NewTransaction(true),
		createT: time.Now(),
	}
}

func (db *DB) NewBulk() rollupdb.Bulk {
	return &Bulk{
		db:      db,
		bulk:    db.db.NewWriteBatch(),
		createT: time.Now(),
	}
}
