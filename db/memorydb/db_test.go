package memorydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rollupdb "github.com/celer-network/go-zkrollup/db"
)

var testNamespace = []byte("ns")

func collectKeys(t *testing.T, iter rollupdb.Iterator) []string {
	defer iter.Close()
	var keys []string
	for ; iter.Valid(); require.NoError(t, iter.Next()) {
		key, err := iter.Key()
		require.NoError(t, err)
		keys = append(keys, string(key))
	}
	return keys
}

func TestSetGetDelete(t *testing.T) {
	db := NewDB()
	assert.Equal(t, "memorydb", db.Type())

	value := []byte("value")
	require.NoError(t, db.Set(testNamespace, []byte("key"), value))
	value[0] = 'X'

	got, found, err := db.Get(testNamespace, []byte("key"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), got)

	got[0] = 'Y'
	got, _, _ = db.Get(testNamespace, []byte("key"))
	assert.Equal(t, []byte("value"), got)

	_, found, err = db.Get(nil, []byte("key"))
	require.NoError(t, err)
	assert.False(t, found)

	exist, err := db.Exist(testNamespace, []byte("key"))
	require.NoError(t, err)
	assert.True(t, exist)

	require.NoError(t, db.Delete(testNamespace, []byte("key")))
	exist, err = db.Exist(testNamespace, []byte("key"))
	require.NoError(t, err)
	assert.False(t, exist)
	require.NoError(t, db.Close())
}

func TestTransaction(t *testing.T) {
	db := NewDB()
	require.NoError(t, db.Set(testNamespace, []byte("old"), []byte("1")))

	tx := db.NewTx()
	require.NoError(t, tx.Set(testNamespace, []byte("new"), []byte("2")))
	require.NoError(t, tx.Delete(testNamespace, []byte("old")))

	exist, _ := db.Exist(testNamespace, []byte("new"))
	assert.False(t, exist, "uncommitted write is visible")

	require.NoError(t, tx.Commit())
	exist, _ = db.Exist(testNamespace, []byte("new"))
	assert.True(t, exist)
	exist, _ = db.Exist(testNamespace, []byte("old"))
	assert.False(t, exist)
	assert.ErrorIs(t, tx.Commit(), errCommitTwice)

	discarded := db.NewTx()
	require.NoError(t, discarded.Set(testNamespace, []byte("lost"), []byte("3")))
	discarded.Discard()
	assert.ErrorIs(t, discarded.Commit(), errCommitAfterDiscard)
	exist, _ = db.Exist(testNamespace, []byte("lost"))
	assert.False(t, exist)
}

func TestBulk(t *testing.T) {
	db := NewDB()
	bulk := db.NewBulk()
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, bulk.Set(testNamespace, []byte(key), []byte(key)))
	}
	require.NoError(t, bulk.Delete(testNamespace, []byte("b")))
	require.NoError(t, bulk.Flush())

	start, end := rollupdb.NamespaceRange(testNamespace)
	assert.Equal(t, []string{"ns|a", "ns|c"}, collectKeys(t, db.Iterator(start, end)))
}

func TestIterator(t *testing.T) {
	db := NewDB()
	for _, key := range []string{"1", "2", "3", "4"} {
		require.NoError(t, db.Set(testNamespace, []byte(key), []byte("v"+key)))
	}
	require.NoError(t, db.Set([]byte("other"), []byte("1"), []byte("x")))

	start, end := rollupdb.NamespaceRange(testNamespace)
	assert.Equal(t, []string{"ns|1", "ns|2", "ns|3", "ns|4"}, collectKeys(t, db.Iterator(start, end)))
	assert.Equal(t, []string{"ns|2", "ns|3"}, collectKeys(t, db.Iterator([]byte("ns|2"), []byte("ns|4"))))
	assert.Equal(t, []string{"ns|4", "ns|3", "ns|2"}, collectKeys(t, db.Iterator([]byte("ns|4"), []byte("ns|1"))))

	iter := db.Iterator(start, end)
	value, err := iter.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
	iter.Close()
	assert.False(t, iter.Valid())
	assert.ErrorIs(t, iter.Next(), errInvalidIterator)
	_, err = iter.Key()
	assert.ErrorIs(t, err, errInvalidIterator)
}
