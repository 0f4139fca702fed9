package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type OperationType int

const (
	OperationTypeNoop OperationType = iota
	OperationTypeDeposit
	OperationTypeTransferToNew
	OperationTypeWithdraw
	OperationTypeClose
	OperationTypeTransfer
	OperationTypeFullExit
	OperationTypeChangePubKey
	OperationTypeForcedExit
	OperationTypeMintNFT
	OperationTypeWithdrawNFT
	OperationTypeSwap
)

// operationChunks is the on-chain cost of every operation kind, in chunks.
var operationChunks = map[OperationType]int{
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

var operationTypeNames = map[OperationType]string{
	OperationTypeNoop:          "Noop",
	OperationTypeDeposit:       "Deposit",
	OperationTypeTransferToNew: "TransferToNew",
	OperationTypeWithdraw:      "Withdraw",
	OperationTypeClose:         "Close",
	OperationTypeTransfer:      "Transfer",
	OperationTypeFullExit:      "FullExit",
	OperationTypeChangePubKey:  "ChangePubKey",
	OperationTypeForcedExit:    "ForcedExit",
	OperationTypeMintNFT:       "MintNFT",
	OperationTypeWithdrawNFT:   "WithdrawNFT",
	OperationTypeSwap:          "Swap",
}

func (t OperationType) String() string {
	if name, ok := operationTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OperationType(%d)", int(t))
}

// ParseOperationType resolves an operation kind by its name.
func ParseOperationType(name string) (OperationType, error) {
	for t, n := range operationTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown operation type %q", name)
}

func (t OperationType) MarshalText() ([]byte, error) {
	if _, ok := operationTypeNames[t]; !ok {
		return nil, fmt.Errorf("unknown operation type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *OperationType) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Operation is a concrete rollup operation as it will appear in the block
// pubdata. Data is kept opaque.
type Operation struct {
	Type      OperationType `json:"type"`
	AccountID AccountID     `json:"account_id"`
	Data      hexutil.Bytes `json:"data,omitempty"`
}

func NewOperation(opType OperationType, accountID AccountID, data []byte) *Operation {
	return &Operation{
		Type:      opType,
		AccountID: accountID,
		Data:      data,
	}
}

// Chunks returns the number of block chunks the operation occupies. It panics
// for an operation type without a chunk cost.
func (op *Operation) Chunks() int {
	chunks, ok := operationChunks[op.Type]
	if !ok {
		panic(fmt.Sprintf("unexpected operation type %s", op.Type))
	}
	return chunks
}
