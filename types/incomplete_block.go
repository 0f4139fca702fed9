package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/celer-network/go-zkrollup/log"
)

// maxTimestamp is 9999-12-31T23:59:59Z, the last second that formats as an
// RFC 3339 calendar time.
const maxTimestamp = 253402300799

// IncompleteBlock is a sealed block which still misses its commitment (mainly
// the root hash). It holds everything the sequencer knows when the block is
// sealed and is not modified afterwards.
type IncompleteBlock struct {
	BlockNumber BlockNumber
	// FeeAccount collects the fees of the block.
	FeeAccount AccountID
	// BlockTransactions lists L1 and L2 operations in execution order.
	BlockTransactions []ExecutedOperation
	// ProcessedPriorityOps is the first unprocessed priority operation ID
	// before and after the block.
	ProcessedPriorityOps PriorityOpRange
	// BlockChunksSize is the block size the contract will see. It must be one
	// of the supported sizes and not less than ChunksUsed().
	BlockChunksSize int

	CommitGasLimit *big.Int
	VerifyGasLimit *big.Int
	// Timestamp is the sealing time in unix seconds.
	Timestamp uint64
}

// NewIncompleteBlock creates a block with an already chosen size. The size is
// taken as is.
func NewIncompleteBlock(
	blockNumber BlockNumber,
	feeAccount AccountID,
	blockTransactions []ExecutedOperation,
	processedPriorityOps PriorityOpRange,
	blockChunksSize int,
	commitGasLimit *big.Int,
	verifyGasLimit *big.Int,
	timestamp uint64,
) *IncompleteBlock {
	return &IncompleteBlock{
		BlockNumber:          blockNumber,
		FeeAccount:           feeAccount,
		BlockTransactions:    blockTransactions,
		ProcessedPriorityOps: processedPriorityOps,
		BlockChunksSize:      blockChunksSize,
		CommitGasLimit:       commitGasLimit,
		VerifyGasLimit:       verifyGasLimit,
		Timestamp:            timestamp,
	}
}

// NewIncompleteBlockFromAvailableBlockSizes creates a block using the smallest
// of availableBlockChunksSizes that fits all the executed operations.
//
// It panics with a *BlockSizeOverflowError if no supported size is large
// enough.
func NewIncompleteBlockFromAvailableBlockSizes(
	blockNumber BlockNumber,
	feeAccount AccountID,
	blockTransactions []ExecutedOperation,
	processedPriorityOps PriorityOpRange,
	availableBlockChunksSizes []int,
	commitGasLimit *big.Int,
	verifyGasLimit *big.Int,
	timestamp uint64,
) *IncompleteBlock {
	block := NewIncompleteBlock(
		blockNumber,
		feeAccount,
		blockTransactions,
		processedPriorityOps,
		0,
		commitGasLimit,
		verifyGasLimit,
		timestamp,
	)
	block.BlockChunksSize = block.smallestBlockSize(availableBlockChunksSizes)
	return block
}

// ChunksUsed sums the chunks of every operation in the block.
func (block *IncompleteBlock) ChunksUsed() int {
	chunksUsed := 0
	for _, executed := range block.BlockTransactions {
		chunksUsed += ExecutedOperationChunks(executed)
	}
	return chunksUsed
}

func (block *IncompleteBlock) smallestBlockSize(availableBlockSizes []int) int {
	chunksUsed := block.ChunksUsed()
	blockSize, err := SmallestBlockSizeForChunks(chunksUsed, availableBlockSizes)
	if err != nil {
		log.NewLogger("types").Error().Err(err).
			Uint32("blockNumber", uint32(block.BlockNumber)).
			Int("chunksUsed", chunksUsed).
			Ints("availableBlockChunksSizes", availableBlockSizes).
			Msg("Block does not fit any supported block size")
		panic(err)
	}
	return blockSize
}

// TimestampUTC returns the sealing time. It panics with a
// *TimestampRangeError if the timestamp has no calendar representation.
func (block *IncompleteBlock) TimestampUTC() time.Time {
	if block.Timestamp > maxTimestamp {
		panic(&TimestampRangeError{Timestamp: block.Timestamp})
	}
	return time.Unix(int64(block.Timestamp), 0).UTC()
}

// Elapsed returns the time passed since the block was sealed according to c.
// Timestamps in the future of c yield zero, including those past the
// calendar range.
func (block *IncompleteBlock) Elapsed(c clock.Clock) time.Duration {
	if block.Timestamp > math.MaxInt64 {
		return 0
	}
	elapsed := c.Since(time.Unix(int64(block.Timestamp), 0))
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

type incompleteBlockJSON struct {
	BlockNumber          BlockNumber                  `json:"block_number"`
	FeeAccount           AccountID                    `json:"fee_account"`
	BlockTransactions    []*executedOperationEnvelope `json:"block_transactions"`
	ProcessedPriorityOps PriorityOpRange              `json:"processed_priority_ops"`
	BlockChunksSize      int                          `json:"block_chunks_size"`
	CommitGasLimit       *hexutil.Big                 `json:"commit_gas_limit"`
	VerifyGasLimit       *hexutil.Big                 `json:"verify_gas_limit"`
	Timestamp            uint64                       `json:"timestamp"`
}

func (block *IncompleteBlock) MarshalJSON() ([]byte, error) {
	if err := block.checkGasLimits(); err != nil {
		return nil, err
	}
	envelopes := make([]*executedOperationEnvelope, len(block.BlockTransactions))
	for i, executed := range block.BlockTransactions {
		envelope, err := encodeExecutedOperation(executed)
		if err != nil {
			return nil, err
		}
		envelopes[i] = envelope
	}
	return json.Marshal(&incompleteBlockJSON{
		BlockNumber:          block.BlockNumber,
		FeeAccount:           block.FeeAccount,
		BlockTransactions:    envelopes,
		ProcessedPriorityOps: block.ProcessedPriorityOps,
		BlockChunksSize:      block.BlockChunksSize,
		CommitGasLimit:       (*hexutil.Big)(bigOrZero(block.CommitGasLimit)),
		VerifyGasLimit:       (*hexutil.Big)(bigOrZero(block.VerifyGasLimit)),
		Timestamp:            block.Timestamp,
	})
}

func (block *IncompleteBlock) UnmarshalJSON(data []byte) error {
	var decoded incompleteBlockJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	transactions, err := decodeEnvelopes(decoded.BlockTransactions)
	if err != nil {
		return err
	}
	*block = IncompleteBlock{
		BlockNumber:          decoded.BlockNumber,
		FeeAccount:           decoded.FeeAccount,
		BlockTransactions:    transactions,
		ProcessedPriorityOps: decoded.ProcessedPriorityOps,
		BlockChunksSize:      decoded.BlockChunksSize,
		CommitGasLimit:       bigOrZero((*big.Int)(decoded.CommitGasLimit)),
		VerifyGasLimit:       bigOrZero((*big.Int)(decoded.VerifyGasLimit)),
		Timestamp:            decoded.Timestamp,
	}
	return nil
}

func (block *IncompleteBlock) SerializeForStorage() ([]byte, error) {
	data, err := json.Marshal(block)
	if err != nil {
		return nil, fmt.Errorf("Serialize IncompleteBlock %d: %w", block.BlockNumber, err)
	}
	return data, nil
}

func DeserializeIncompleteBlockFromStorage(data []byte) (*IncompleteBlock, error) {
	var block IncompleteBlock
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("Deserialize IncompleteBlock: %w", err)
	}
	return &block, nil
}

func (block *IncompleteBlock) checkGasLimits() error {
	if err := CheckGasLimit("commit gas limit", block.CommitGasLimit); err != nil {
		return err
	}
	return CheckGasLimit("verify gas limit", block.VerifyGasLimit)
}

func bigOrZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
