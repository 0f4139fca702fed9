package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testCommitGasLimit = big.NewInt(5000000)
	testVerifyGasLimit = big.NewInt(2000000)
	testCreatedAt      = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func successfulTx(opType OperationType, accountID AccountID) *ExecutedTx {
	return &ExecutedTx{
		TxHash:    common.BigToHash(big.NewInt(int64(accountID))),
		Success:   true,
		Op:        NewOperation(opType, accountID, nil),
		CreatedAt: testCreatedAt,
	}
}

func failedTx(accountID AccountID) *ExecutedTx {
	return &ExecutedTx{
		TxHash:     common.BigToHash(big.NewInt(int64(accountID))),
		Success:    false,
		FailReason: "Not enough balance",
		CreatedAt:  testCreatedAt,
	}
}

func priorityOp(serialID uint64, opType OperationType) *ExecutedPriorityOp {
	return &ExecutedPriorityOp{
		SerialID:   serialID,
		EthHash:    common.BigToHash(new(big.Int).SetUint64(serialID + 1000)),
		Op:         *NewOperation(opType, AccountID(serialID), []byte{0x01, 0x02}),
		BlockIndex: uint32(serialID),
		CreatedAt:  testCreatedAt,
	}
}

func repeat(n int, newOp func(i int) ExecutedOperation) []ExecutedOperation {
	ops := make([]ExecutedOperation, n)
	for i := range ops {
		ops[i] = newOp(i)
	}
	return ops
}

// opsOf37Chunks holds 3 full exits (11 chunks) and 2 transfers (2 chunks).
func opsOf37Chunks() []ExecutedOperation {
	return []ExecutedOperation{
		priorityOp(0, OperationTypeFullExit),
		successfulTx(OperationTypeTransfer, 1),
		priorityOp(1, OperationTypeFullExit),
		failedTx(2),
		successfulTx(OperationTypeTransfer, 3),
		priorityOp(2, OperationTypeFullExit),
	}
}

func newSizedBlock(ops []ExecutedOperation, sizes []int) *IncompleteBlock {
	return NewIncompleteBlockFromAvailableBlockSizes(
		7, 11, ops, PriorityOpRange{Before: 3, After: 6}, sizes, testCommitGasLimit, testVerifyGasLimit, 1700000000)
}
