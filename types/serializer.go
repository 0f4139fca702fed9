package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Serializer ABI-encodes the fixed part of a sealed block, the input the
// commitment stage hashes together with the block pubdata.
type Serializer struct {
	typeRegistry         *typeRegistry
	blockHeaderArguments abi.Arguments
}

func NewSerializer() (*Serializer, error) {
	typeRegistry, err := newTypeRegistry()
	if err != nil {
		return nil, err
	}
	return &Serializer{
		typeRegistry:         typeRegistry,
		blockHeaderArguments: createBlockHeaderArguments(typeRegistry),
	}, nil
}

// BlockHeader is the ABI view of an IncompleteBlock without its operations.
type BlockHeader struct {
	BlockNumber       uint32
	FeeAccount        uint32
	PriorityOpsBefore uint64
	PriorityOpsAfter  uint64
	BlockChunksSize   *big.Int
	CommitGasLimit    *big.Int
	VerifyGasLimit    *big.Int
	Timestamp         uint64
	ChunksUsed        *big.Int
}

func createBlockHeaderArguments(r *typeRegistry) abi.Arguments {
	return abi.Arguments([]abi.Argument{
		{Name: "blockNumber", Type: r.uint32Ty, Indexed: false},
		{Name: "feeAccount", Type: r.uint32Ty, Indexed: false},
		{Name: "priorityOpsBefore", Type: r.uint64Ty, Indexed: false},
		{Name: "priorityOpsAfter", Type: r.uint64Ty, Indexed: false},
		{Name: "blockChunksSize", Type: r.uint256Ty, Indexed: false},
		{Name: "commitGasLimit", Type: r.uint256Ty, Indexed: false},
		{Name: "verifyGasLimit", Type: r.uint256Ty, Indexed: false},
		{Name: "timestamp", Type: r.uint64Ty, Indexed: false},
		{Name: "chunksUsed", Type: r.uint256Ty, Indexed: false},
	})
}

// Header returns the ABI view of the block.
func (block *IncompleteBlock) Header() *BlockHeader {
	return &BlockHeader{
		BlockNumber:       uint32(block.BlockNumber),
		FeeAccount:        uint32(block.FeeAccount),
		PriorityOpsBefore: block.ProcessedPriorityOps.Before,
		PriorityOpsAfter:  block.ProcessedPriorityOps.After,
		BlockChunksSize:   big.NewInt(int64(block.BlockChunksSize)),
		CommitGasLimit:    new(big.Int).Set(bigOrZero(block.CommitGasLimit)),
		VerifyGasLimit:    new(big.Int).Set(bigOrZero(block.VerifyGasLimit)),
		Timestamp:         block.Timestamp,
		ChunksUsed:        big.NewInt(int64(block.ChunksUsed())),
	}
}

func (s *Serializer) SerializeBlockHeader(block *IncompleteBlock) ([]byte, error) {
	// abi packing reduces big ints mod 2^256 without an error
	if err := block.checkGasLimits(); err != nil {
		return nil, fmt.Errorf("Serialize BlockHeader %d: %w", block.BlockNumber, err)
	}
	header := block.Header()
	data, err := s.blockHeaderArguments.Pack(
		header.BlockNumber,
		header.FeeAccount,
		header.PriorityOpsBefore,
		header.PriorityOpsAfter,
		header.BlockChunksSize,
		header.CommitGasLimit,
		header.VerifyGasLimit,
		header.Timestamp,
		header.ChunksUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("Serialize BlockHeader %d: %w", block.BlockNumber, err)
	}
	return data, nil
}

func (s *Serializer) DeserializeBlockHeader(data []byte) (*BlockHeader, error) {
	values, err := s.blockHeaderArguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("Deserialize BlockHeader, data %x: %w", data, err)
	}
	var header BlockHeader
	if err := s.blockHeaderArguments.Copy(&header, values); err != nil {
		return nil, fmt.Errorf("Deserialize BlockHeader, data %x: %w", data, err)
	}
	return &header, nil
}
