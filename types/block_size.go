package types

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrGasLimitRange is returned for gas limits that are not a uint256.
var ErrGasLimitRange = errors.New("gas limit is out of the uint256 range")

// CheckGasLimit verifies n fits the uint256 slot the contract reads it from.
// A nil limit is encoded as zero and passes.
func CheckGasLimit(name string, n *big.Int) error {
	if n != nil && (n.Sign() < 0 || n.BitLen() > 256) {
		return fmt.Errorf("%w: %s %s", ErrGasLimitRange, name, n)
	}
	return nil
}

// BlockSizeOverflowError reports that the chunks used by a block exceed every
// block size supported by the rollup contract. A block in that state can not
// be proven, so constructors panic with this error instead of returning it.
type BlockSizeOverflowError struct {
	ChunksUsed   int
	MaxBlockSize int
}

func (e *BlockSizeOverflowError) Error() string {
	return fmt.Sprintf(
		"provided chunks amount (%d) cannot fit in one block, maximum available size is %d",
		e.ChunksUsed, e.MaxBlockSize)
}

// SmallestBlockSizeForChunks returns the first size in availableBlockSizes
// which is not less than chunksUsed. Sizes are expected in ascending order,
// which makes the first fit also the smallest one.
func SmallestBlockSizeForChunks(chunksUsed int, availableBlockSizes []int) (int, error) {
	for _, blockSize := range availableBlockSizes {
		if blockSize >= chunksUsed {
			return blockSize, nil
		}
	}
	maxBlockSize := 0
	if len(availableBlockSizes) > 0 {
		maxBlockSize = availableBlockSizes[len(availableBlockSizes)-1]
	}
	return 0, &BlockSizeOverflowError{
		ChunksUsed:   chunksUsed,
		MaxBlockSize: maxBlockSize,
	}
}

// TimestampRangeError reports a block timestamp that has no calendar
// representation.
type TimestampRangeError struct {
	Timestamp uint64
}

func (e *TimestampRangeError) Error() string {
	return fmt.Sprintf("block timestamp %d is out of the supported calendar range", e.Timestamp)
}
