package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type ExecutedOperationType int

const (
	ExecutedOperationTypeTx ExecutedOperationType = iota
	ExecutedOperationTypePriorityOp
)

func (t ExecutedOperationType) String() string {
	switch t {
	case ExecutedOperationTypeTx:
		return "tx"
	case ExecutedOperationTypePriorityOp:
		return "priority_op"
	}
	return fmt.Sprintf("ExecutedOperationType(%d)", int(t))
}

// ExecutedOperation is an operation included in a block, in execution order.
// It is either an *ExecutedTx or an *ExecutedPriorityOp.
type ExecutedOperation interface {
	GetExecutedOperationType() ExecutedOperationType
	// ExecutedOp returns the on-chain operation, if the executed operation
	// produced one.
	ExecutedOp() (*Operation, bool)
	isExecutedOperation()
}

// ExecutedTx is the result of executing an L2 transaction. A failed
// transaction has no on-chain operation and takes no space in the block.
type ExecutedTx struct {
	TxHash     common.Hash `json:"tx_hash"`
	Success    bool        `json:"success"`
	Op         *Operation  `json:"op,omitempty"`
	FailReason string      `json:"fail_reason,omitempty"`
	BlockIndex *uint32     `json:"block_index,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (*ExecutedTx) GetExecutedOperationType() ExecutedOperationType {
	return ExecutedOperationTypeTx
}

func (tx *ExecutedTx) ExecutedOp() (*Operation, bool) {
	if !tx.Success || tx.Op == nil {
		return nil, false
	}
	return tx.Op, true
}

func (*ExecutedTx) isExecutedOperation() {}

// ExecutedPriorityOp is an L1-originated operation taken from the priority
// queue. It always produces an on-chain operation.
type ExecutedPriorityOp struct {
	SerialID   uint64      `json:"serial_id"`
	EthHash    common.Hash `json:"eth_hash"`
	Op         Operation   `json:"op"`
	BlockIndex uint32      `json:"block_index"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (*ExecutedPriorityOp) GetExecutedOperationType() ExecutedOperationType {
	return ExecutedOperationTypePriorityOp
}

func (op *ExecutedPriorityOp) ExecutedOp() (*Operation, bool) {
	return &op.Op, true
}

func (*ExecutedPriorityOp) isExecutedOperation() {}

// ExecutedOperationChunks returns the chunks the executed operation takes in
// a block. Failed transactions take none.
func ExecutedOperationChunks(executed ExecutedOperation) int {
	switch executed := executed.(type) {
	case *ExecutedTx:
		if op, ok := executed.ExecutedOp(); ok {
			return op.Chunks()
		}
		return 0
	case *ExecutedPriorityOp:
		return executed.Op.Chunks()
	default:
		panic(fmt.Sprintf("unexpected executed operation %T", executed))
	}
}

var errUnknownExecutedOperation = errors.New("unknown executed operation type")

type executedOperationEnvelope struct {
	Type       string              `json:"type"`
	Tx         *ExecutedTx         `json:"tx,omitempty"`
	PriorityOp *ExecutedPriorityOp `json:"priority_op,omitempty"`
}

func encodeExecutedOperation(executed ExecutedOperation) (*executedOperationEnvelope, error) {
	switch executed := executed.(type) {
	case *ExecutedTx:
		return &executedOperationEnvelope{Type: ExecutedOperationTypeTx.String(), Tx: executed}, nil
	case *ExecutedPriorityOp:
		return &executedOperationEnvelope{Type: ExecutedOperationTypePriorityOp.String(), PriorityOp: executed}, nil
	default:
		return nil, fmt.Errorf("Serialize ExecutedOperation %T: %w", executed, errUnknownExecutedOperation)
	}
}

func (envelope *executedOperationEnvelope) decode() (ExecutedOperation, error) {
	switch envelope.Type {
	case ExecutedOperationTypeTx.String():
		if envelope.Tx == nil {
			return nil, errors.New("Deserialize ExecutedOperation: missing tx body")
		}
		return envelope.Tx, nil
	case ExecutedOperationTypePriorityOp.String():
		if envelope.PriorityOp == nil {
			return nil, errors.New("Deserialize ExecutedOperation: missing priority_op body")
		}
		return envelope.PriorityOp, nil
	}
	return nil, fmt.Errorf("Deserialize ExecutedOperation %q: %w", envelope.Type, errUnknownExecutedOperation)
}

// EncodeExecutedOperations writes operations as a JSON array of
// {"type": ..., <body>} envelopes, the same shape used for block storage.
func EncodeExecutedOperations(ops []ExecutedOperation) ([]byte, error) {
	envelopes := make([]*executedOperationEnvelope, len(ops))
	for i, op := range ops {
		envelope, err := encodeExecutedOperation(op)
		if err != nil {
			return nil, err
		}
		envelopes[i] = envelope
	}
	return json.Marshal(envelopes)
}

// DecodeExecutedOperations reads operations written by EncodeExecutedOperations.
func DecodeExecutedOperations(data []byte) ([]ExecutedOperation, error) {
	var envelopes []*executedOperationEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("Deserialize ExecutedOperations: %w", err)
	}
	return decodeEnvelopes(envelopes)
}

func decodeEnvelopes(envelopes []*executedOperationEnvelope) ([]ExecutedOperation, error) {
	ops := make([]ExecutedOperation, len(envelopes))
	for i, envelope := range envelopes {
		if envelope == nil {
			return nil, fmt.Errorf("Deserialize ExecutedOperation at %d: null entry", i)
		}
		op, err := envelope.decode()
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
