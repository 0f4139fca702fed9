package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationChunks(t *testing.T) {
	expected := map[OperationType]int{
		OperationTypeNoop:          1,
		OperationTypeDeposit:       6,
		OperationTypeTransferToNew: 6,
		OperationTypeWithdraw:      6,
		OperationTypeClose:         1,
		OperationTypeTransfer:      2,
		OperationTypeFullExit:      11,
		OperationTypeChangePubKey:  6,
		OperationTypeForcedExit:    6,
		OperationTypeMintNFT:       5,
		OperationTypeWithdrawNFT:   10,
		OperationTypeSwap:          5,
	}
	for opType, chunks := range expected {
		assert.Equal(t, chunks, NewOperation(opType, 1, nil).Chunks(), opType.String())
	}
}

func TestOperationChunksUnknownTypePanics(t *testing.T) {
	op := NewOperation(OperationType(99), 1, nil)
	assert.PanicsWithValue(t, "unexpected operation type OperationType(99)", func() { op.Chunks() })
	assert.Panics(t, func() { ExecutedOperationChunks(&ExecutedPriorityOp{Op: *op}) })
}

func TestOperationTypeText(t *testing.T) {
	for opType, name := range operationTypeNames {
		text, err := opType.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, name, string(text))

		var parsed OperationType
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, opType, parsed)
	}

	_, err := OperationType(99).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "OperationType(99)", OperationType(99).String())

	var parsed OperationType
	assert.Error(t, parsed.UnmarshalText([]byte("swap")))
}

func TestExecutedOperationChunks(t *testing.T) {
	assert.Equal(t, 5, ExecutedOperationChunks(successfulTx(OperationTypeSwap, 1)))
	assert.Equal(t, 0, ExecutedOperationChunks(failedTx(1)))
	assert.Equal(t, 0, ExecutedOperationChunks(&ExecutedTx{Success: true}))
	assert.Equal(t, 11, ExecutedOperationChunks(priorityOp(0, OperationTypeFullExit)))

	withOp := failedTx(1)
	withOp.Op = NewOperation(OperationTypeWithdraw, 1, nil)
	assert.Equal(t, 0, ExecutedOperationChunks(withOp))
}

func TestExecutedOperationType(t *testing.T) {
	assert.Equal(t, ExecutedOperationTypeTx, successfulTx(OperationTypeTransfer, 1).GetExecutedOperationType())
	assert.Equal(t, ExecutedOperationTypePriorityOp, priorityOp(0, OperationTypeDeposit).GetExecutedOperationType())
	assert.Equal(t, "tx", ExecutedOperationTypeTx.String())
	assert.Equal(t, "priority_op", ExecutedOperationTypePriorityOp.String())

	op, ok := priorityOp(4, OperationTypeDeposit).ExecutedOp()
	require.True(t, ok)
	assert.Equal(t, OperationTypeDeposit, op.Type)
	assert.Equal(t, AccountID(4), op.AccountID)

	_, ok = failedTx(1).ExecutedOp()
	assert.False(t, ok)
}

func TestEncodeExecutedOperations(t *testing.T) {
	ops := opsOf37Chunks()

	data, err := EncodeExecutedOperations(ops)
	require.NoError(t, err)

	decoded, err := DecodeExecutedOperations(data)
	require.NoError(t, err)
	assert.Equal(t, ops, decoded)

	_, err = DecodeExecutedOperations([]byte(`[null]`))
	assert.Error(t, err)
	_, err = DecodeExecutedOperations([]byte(`[{"type":"tx"}]`))
	assert.Error(t, err)
	_, err = DecodeExecutedOperations([]byte(`[{"type":"bundle"}]`))
	assert.ErrorIs(t, err, errUnknownExecutedOperation)
}

func TestPriorityOpRange(t *testing.T) {
	r := PriorityOpRange{Before: 3, After: 9}
	assert.Equal(t, uint64(6), r.Len())

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `[3,9]`, string(data))

	var decoded PriorityOpRange
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, r, decoded)
	assert.Error(t, decoded.UnmarshalJSON([]byte(`[9,3]`)))
	assert.Error(t, decoded.UnmarshalJSON([]byte(`{}`)))
}
