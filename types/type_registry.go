package types

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type typeRegistry struct {
	uint32Ty  abi.Type
	uint64Ty  abi.Type
	uint256Ty abi.Type
}

func newTypeRegistry() (*typeRegistry, error) {
	uint32Ty, err := abi.NewType("uint32", "", nil)
	if err != nil {
		return nil, err
	}
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		return nil, err
	}
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, err
	}
	return &typeRegistry{
		uint32Ty:  uint32Ty,
		uint64Ty:  uint64Ty,
		uint256Ty: uint256Ty,
	}, nil
}
