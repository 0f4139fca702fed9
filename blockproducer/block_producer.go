package blockproducer

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/celer-network/go-zkrollup/log"
	"github.com/celer-network/go-zkrollup/storage"
	"github.com/celer-network/go-zkrollup/types"
)

var (
	ErrOperationTooLarge    = errors.New("operation does not fit the largest block size")
	ErrUnexpectedPriorityOp = errors.New("unexpected priority operation serial id")
	ErrBlockNumberExhausted = errors.New("block number space exhausted")
)

const maxBlockNumber = types.BlockNumber(^uint32(0))

var logger = log.NewLogger("blockproducer")

// BlockProducer packs executed operations into the pending block and seals
// it once the next operation would not fit the largest supported block size.
// Sealed blocks are stored, reported to the listener and offered on
// SealedBlocks.
type BlockProducer struct {
	lock         sync.Mutex
	config       *Config
	store        *storage.BlockStore
	clock        clock.Clock
	listener     EventListener
	sealedBlocks chan *types.IncompleteBlock

	blockNumber    types.BlockNumber
	pendingOps     []types.ExecutedOperation
	pendingChunks  int
	priorityBefore uint64
	priorityAfter  uint64

	// exhausted is set once the last representable block number is sealed.
	exhausted bool
}

// NewBlockProducer resumes from the last checkpoint of store, or starts at
// config.InitialBlockNumber.
func NewBlockProducer(config *Config, store *storage.BlockStore, c clock.Clock) (*BlockProducer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	bp := &BlockProducer{
		config:       config,
		store:        store,
		clock:        c,
		listener:     &SelectiveListener{},
		sealedBlocks: make(chan *types.IncompleteBlock, config.SealedBlocksBuffer),
		blockNumber:  config.InitialBlockNumber,
	}

	checkpoint, found, err := store.LastCheckpoint()
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if found {
		if checkpoint.BlockNumber == maxBlockNumber {
			return nil, ErrBlockNumberExhausted
		}
		bp.blockNumber = checkpoint.BlockNumber + 1
		bp.priorityBefore = checkpoint.NextPriorityOp
		logger.Info().Uint32("blockNumber", uint32(bp.blockNumber)).Uint64("nextPriorityOp", bp.priorityBefore).
			Msg("Resume block production from checkpoint")
	}
	bp.priorityAfter = bp.priorityBefore
	return bp, nil
}

func (bp *BlockProducer) WithListener(listener EventListener) *BlockProducer {
	bp.listener = listener
	return bp
}

// SealedBlocks delivers sealed blocks to the commitment stage. Blocks are
// dropped from the channel, not from storage, when nobody keeps up.
func (bp *BlockProducer) SealedBlocks() <-chan *types.IncompleteBlock {
	return bp.sealedBlocks
}

// AddOperation appends an executed operation to the pending block. If the
// operation does not fit next to the pending ones, the pending block is
// sealed first and returned.
func (bp *BlockProducer) AddOperation(op types.ExecutedOperation) (*types.IncompleteBlock, error) {
	bp.lock.Lock()
	defer bp.lock.Unlock()

	chunks := types.ExecutedOperationChunks(op)
	maxSize := bp.config.MaxBlockChunksSize()
	if chunks > maxSize {
		return nil, fmt.Errorf("%w: %d chunks, maximum block size is %d", ErrOperationTooLarge, chunks, maxSize)
	}
	if priorityOp, ok := op.(*types.ExecutedPriorityOp); ok && priorityOp.SerialID != bp.priorityAfter {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnexpectedPriorityOp, priorityOp.SerialID, bp.priorityAfter)
	}

	var sealed *types.IncompleteBlock
	if bp.pendingChunks+chunks > maxSize {
		var err error
		if sealed, err = bp.sealLocked(); err != nil {
			return nil, err
		}
	}

	bp.pendingOps = append(bp.pendingOps, op)
	bp.pendingChunks += chunks
	if _, ok := op.(*types.ExecutedPriorityOp); ok {
		bp.priorityAfter++
	}
	return sealed, nil
}

// Seal closes the pending block, even an empty one.
func (bp *BlockProducer) Seal() (*types.IncompleteBlock, error) {
	bp.lock.Lock()
	defer bp.lock.Unlock()

	return bp.sealLocked()
}

func (bp *BlockProducer) sealLocked() (*types.IncompleteBlock, error) {
	if bp.exhausted {
		return nil, ErrBlockNumberExhausted
	}
	ops := make([]types.ExecutedOperation, len(bp.pendingOps))
	copy(ops, bp.pendingOps)

	block := types.NewIncompleteBlockFromAvailableBlockSizes(
		bp.blockNumber,
		bp.config.FeeAccount,
		ops,
		types.PriorityOpRange{Before: bp.priorityBefore, After: bp.priorityAfter},
		bp.config.AvailableBlockChunksSizes,
		new(big.Int).Set(bp.config.CommitGasLimit),
		new(big.Int).Set(bp.config.VerifyGasLimit),
		uint64(bp.clock.Now().Unix()),
	)
	if err := bp.store.PutBlock(block); err != nil {
		return nil, fmt.Errorf("store sealed block %d: %w", block.BlockNumber, err)
	}

	logger.Info().Uint32("blockNumber", uint32(block.BlockNumber)).Int("operations", len(ops)).
		Int("chunksUsed", bp.pendingChunks).Int("blockChunksSize", block.BlockChunksSize).
		Uint64("priorityOpsBefore", bp.priorityBefore).Uint64("priorityOpsAfter", bp.priorityAfter).
		Msg("Sealed block")

	bp.listener.OnBlockSealed(block)
	select {
	case bp.sealedBlocks <- block:
	default:
		logger.Warn().Uint32("blockNumber", uint32(block.BlockNumber)).Msg("Sealed blocks channel is full, block is only in storage")
	}

	if bp.blockNumber == maxBlockNumber {
		bp.exhausted = true
	} else {
		bp.blockNumber++
	}
	bp.pendingOps = nil
	bp.pendingChunks = 0
	bp.priorityBefore = bp.priorityAfter
	return block, nil
}

// PendingBlockNumber is the number the pending block will be sealed with.
func (bp *BlockProducer) PendingBlockNumber() types.BlockNumber {
	bp.lock.Lock()
	defer bp.lock.Unlock()
	return bp.blockNumber
}

func (bp *BlockProducer) PendingChunks() int {
	bp.lock.Lock()
	defer bp.lock.Unlock()
	return bp.pendingChunks
}

func (bp *BlockProducer) PendingOperations() int {
	bp.lock.Lock()
	defer bp.lock.Unlock()
	return len(bp.pendingOps)
}
