package blockproducer

import (
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer-network/go-zkrollup/db/memorydb"
	"github.com/celer-network/go-zkrollup/storage"
	"github.com/celer-network/go-zkrollup/types"
)

func testConfig() *Config {
	return &Config{
		AvailableBlockChunksSizes: []int{10, 50},
		FeeAccount:                9,
		CommitGasLimit:            big.NewInt(5000000),
		VerifyGasLimit:            big.NewInt(2000000),
		InitialBlockNumber:        1,
		SealedBlocksBuffer:        4,
	}
}

func newTestProducer(t *testing.T, store *storage.BlockStore) (*BlockProducer, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	bp, err := NewBlockProducer(testConfig(), store, mock)
	require.NoError(t, err)
	return bp, mock
}

func tx(opType types.OperationType) *types.ExecutedTx {
	return &types.ExecutedTx{Success: true, Op: types.NewOperation(opType, 1, nil)}
}

func priorityOp(serialID uint64) *types.ExecutedPriorityOp {
	return &types.ExecutedPriorityOp{SerialID: serialID, Op: *types.NewOperation(types.OperationTypeDeposit, 2, nil)}
}

func TestSealPicksSmallestBlockSize(t *testing.T) {
	store := storage.NewBlockStore(memorydb.NewDB())
	bp, _ := newTestProducer(t, store)

	for i := 0; i < 3; i++ {
		sealed, err := bp.AddOperation(tx(types.OperationTypeTransfer))
		require.NoError(t, err)
		assert.Nil(t, sealed)
	}
	assert.Equal(t, 6, bp.PendingChunks())
	assert.Equal(t, 3, bp.PendingOperations())

	block, err := bp.Seal()
	require.NoError(t, err)
	assert.Equal(t, types.BlockNumber(1), block.BlockNumber)
	assert.Equal(t, types.AccountID(9), block.FeeAccount)
	assert.Equal(t, 6, block.ChunksUsed())
	assert.Equal(t, 10, block.BlockChunksSize)
	assert.Equal(t, uint64(1700000000), block.Timestamp)
	assert.Equal(t, big.NewInt(5000000), block.CommitGasLimit)

	assert.Equal(t, types.BlockNumber(2), bp.PendingBlockNumber())
	assert.Equal(t, 0, bp.PendingChunks())
	assert.Equal(t, 0, bp.PendingOperations())

	stored, found, err := store.GetBlock(1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, block, stored)
}

func TestAddOperationSealsOnOverflow(t *testing.T) {
	bp, _ := newTestProducer(t, storage.NewBlockStore(memorydb.NewDB()))

	// 9 swaps use 45 chunks, the 10th still fits, the 11th does not
	var sealed *types.IncompleteBlock
	for i := 0; i < 11; i++ {
		block, err := bp.AddOperation(tx(types.OperationTypeSwap))
		require.NoError(t, err)
		if block != nil {
			require.Nil(t, sealed, "sealed twice")
			assert.Equal(t, 10, i)
			sealed = block
		}
	}
	require.NotNil(t, sealed)
	assert.Equal(t, 50, sealed.ChunksUsed())
	assert.Equal(t, 50, sealed.BlockChunksSize)
	assert.Len(t, sealed.BlockTransactions, 10)
	assert.Equal(t, 5, bp.PendingChunks())
	assert.Equal(t, types.BlockNumber(2), bp.PendingBlockNumber())
}

func TestFailedTxTakesNoSpace(t *testing.T) {
	bp, _ := newTestProducer(t, storage.NewBlockStore(memorydb.NewDB()))
	for i := 0; i < 100; i++ {
		sealed, err := bp.AddOperation(&types.ExecutedTx{Success: false, FailReason: "nonce mismatch"})
		require.NoError(t, err)
		assert.Nil(t, sealed)
	}
	block, err := bp.Seal()
	require.NoError(t, err)
	assert.Equal(t, 0, block.ChunksUsed())
	assert.Equal(t, 10, block.BlockChunksSize)
	assert.Len(t, block.BlockTransactions, 100)
}

func TestAddOperationTooLarge(t *testing.T) {
	config := testConfig()
	config.AvailableBlockChunksSizes = []int{6, 10}
	bp, err := NewBlockProducer(config, storage.NewBlockStore(memorydb.NewDB()), clock.NewMock())
	require.NoError(t, err)

	_, err = bp.AddOperation(&types.ExecutedPriorityOp{Op: *types.NewOperation(types.OperationTypeFullExit, 1, nil)})
	assert.ErrorIs(t, err, ErrOperationTooLarge)
	assert.Equal(t, 0, bp.PendingOperations())
}

func TestPriorityOpRange(t *testing.T) {
	bp, _ := newTestProducer(t, storage.NewBlockStore(memorydb.NewDB()))

	_, err := bp.AddOperation(priorityOp(1))
	assert.ErrorIs(t, err, ErrUnexpectedPriorityOp)

	for serialID := uint64(0); serialID < 3; serialID++ {
		_, err := bp.AddOperation(priorityOp(serialID))
		require.NoError(t, err)
		_, err = bp.AddOperation(tx(types.OperationTypeNoop))
		require.NoError(t, err)
	}
	first, err := bp.Seal()
	require.NoError(t, err)
	assert.Equal(t, types.PriorityOpRange{Before: 0, After: 3}, first.ProcessedPriorityOps)

	second, err := bp.Seal()
	require.NoError(t, err)
	assert.Equal(t, types.PriorityOpRange{Before: 3, After: 3}, second.ProcessedPriorityOps)
	assert.Empty(t, second.BlockTransactions)
	assert.Equal(t, 10, second.BlockChunksSize)
}

func TestResumeFromCheckpoint(t *testing.T) {
	store := storage.NewBlockStore(memorydb.NewDB())
	bp, _ := newTestProducer(t, store)
	_, err := bp.AddOperation(priorityOp(0))
	require.NoError(t, err)
	_, err = bp.Seal()
	require.NoError(t, err)
	_, err = bp.Seal()
	require.NoError(t, err)

	resumed, _ := newTestProducer(t, store)
	assert.Equal(t, types.BlockNumber(3), resumed.PendingBlockNumber())

	_, err = resumed.AddOperation(priorityOp(0))
	assert.ErrorIs(t, err, ErrUnexpectedPriorityOp)
	_, err = resumed.AddOperation(priorityOp(1))
	require.NoError(t, err)
	block, err := resumed.Seal()
	require.NoError(t, err)
	assert.Equal(t, types.BlockNumber(3), block.BlockNumber)
	assert.Equal(t, types.PriorityOpRange{Before: 1, After: 2}, block.ProcessedPriorityOps)
}

func TestInitialBlockNumber(t *testing.T) {
	config := testConfig()
	config.InitialBlockNumber = 100
	bp, err := NewBlockProducer(config, storage.NewBlockStore(memorydb.NewDB()), clock.NewMock())
	require.NoError(t, err)
	assert.Equal(t, types.BlockNumber(100), bp.PendingBlockNumber())
}

func TestNewBlockProducerRejectsInvalidConfig(t *testing.T) {
	config := testConfig()
	config.AvailableBlockChunksSizes = nil
	_, err := NewBlockProducer(config, storage.NewBlockStore(memorydb.NewDB()), clock.NewMock())
	assert.ErrorIs(t, err, errNoBlockSizes)
}

func TestBlockNumberExhausted(t *testing.T) {
	config := testConfig()
	config.InitialBlockNumber = maxBlockNumber
	store := storage.NewBlockStore(memorydb.NewDB())
	bp, err := NewBlockProducer(config, store, clock.NewMock())
	require.NoError(t, err)

	block, err := bp.Seal()
	require.NoError(t, err)
	assert.Equal(t, maxBlockNumber, block.BlockNumber)
	has, err := store.HasBlock(maxBlockNumber)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = bp.Seal()
	assert.ErrorIs(t, err, ErrBlockNumberExhausted)
	_, found, err := store.GetBlock(0)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = NewBlockProducer(config, store, clock.NewMock())
	assert.ErrorIs(t, err, ErrBlockNumberExhausted)
}

func TestListenerAndChannel(t *testing.T) {
	config := testConfig()
	config.SealedBlocksBuffer = 1
	bp, err := NewBlockProducer(config, storage.NewBlockStore(memorydb.NewDB()), clock.NewMock())
	require.NoError(t, err)

	var notified []types.BlockNumber
	bp.WithListener(&SelectiveListener{
		OnBlockSealedCb: func(block *types.IncompleteBlock) {
			notified = append(notified, block.BlockNumber)
		},
	})

	first, err := bp.Seal()
	require.NoError(t, err)
	// the channel is full, the second block is only stored
	_, err = bp.Seal()
	require.NoError(t, err)

	assert.Equal(t, []types.BlockNumber{1, 2}, notified)
	select {
	case block := <-bp.SealedBlocks():
		assert.Same(t, first, block)
	default:
		t.Fatal("no sealed block delivered")
	}
	select {
	case block := <-bp.SealedBlocks():
		t.Fatalf("unexpected block %d", block.BlockNumber)
	default:
	}
}

func TestSealedBlockIsDetached(t *testing.T) {
	bp, mock := newTestProducer(t, storage.NewBlockStore(memorydb.NewDB()))
	_, err := bp.AddOperation(tx(types.OperationTypeTransfer))
	require.NoError(t, err)
	block, err := bp.Seal()
	require.NoError(t, err)

	mock.Add(time.Minute)
	_, err = bp.AddOperation(tx(types.OperationTypeSwap))
	require.NoError(t, err)
	next, err := bp.Seal()
	require.NoError(t, err)

	assert.Len(t, block.BlockTransactions, 1)
	assert.Equal(t, 2, block.ChunksUsed())
	assert.Equal(t, uint64(1700000060), next.Timestamp)
	assert.Equal(t, time.Minute, block.Elapsed(mock))

	bp.config.CommitGasLimit.SetInt64(1)
	assert.Equal(t, big.NewInt(5000000), block.CommitGasLimit)
}
