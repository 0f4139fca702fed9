package blockproducer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/spf13/viper"

	"github.com/celer-network/go-zkrollup/types"
)

const (
	configAvailableBlockChunksSizes = "blockProducer.availableBlockChunksSizes"
	configFeeAccount                = "blockProducer.feeAccount"
	configCommitGasLimit            = "blockProducer.commitGasLimit"
	configVerifyGasLimit            = "blockProducer.verifyGasLimit"
	configInitialBlockNumber        = "blockProducer.initialBlockNumber"
	configSealedBlocksBuffer        = "blockProducer.sealedBlocksBuffer"

	defaultCommitGasLimit     = "5000000"
	defaultVerifyGasLimit     = "2000000"
	defaultInitialBlockNumber = 1
	defaultSealedBlocksBuffer = 16
)

var errNoBlockSizes = errors.New("no available block chunks sizes configured")

type Config struct {
	// AvailableBlockChunksSizes lists the block sizes supported by the rollup
	// contract, in ascending order.
	AvailableBlockChunksSizes []int
	FeeAccount                types.AccountID
	CommitGasLimit            *big.Int
	VerifyGasLimit            *big.Int
	// InitialBlockNumber is used when the store has no checkpoint yet.
	InitialBlockNumber types.BlockNumber
	SealedBlocksBuffer int
}

// LoadConfig reads the block producer section of v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	v.SetDefault(configCommitGasLimit, defaultCommitGasLimit)
	v.SetDefault(configVerifyGasLimit, defaultVerifyGasLimit)
	v.SetDefault(configInitialBlockNumber, defaultInitialBlockNumber)
	v.SetDefault(configSealedBlocksBuffer, defaultSealedBlocksBuffer)

	commitGasLimit, ok := new(big.Int).SetString(v.GetString(configCommitGasLimit), 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", configCommitGasLimit, v.GetString(configCommitGasLimit))
	}
	verifyGasLimit, ok := new(big.Int).SetString(v.GetString(configVerifyGasLimit), 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", configVerifyGasLimit, v.GetString(configVerifyGasLimit))
	}

	config := &Config{
		AvailableBlockChunksSizes: v.GetIntSlice(configAvailableBlockChunksSizes),
		FeeAccount:                types.AccountID(v.GetUint32(configFeeAccount)),
		CommitGasLimit:            commitGasLimit,
		VerifyGasLimit:            verifyGasLimit,
		InitialBlockNumber:        types.BlockNumber(v.GetUint32(configInitialBlockNumber)),
		SealedBlocksBuffer:        v.GetInt(configSealedBlocksBuffer),
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the block sizes are positive and strictly ascending, which
// the size selection relies on.
func (c *Config) Validate() error {
	if len(c.AvailableBlockChunksSizes) == 0 {
		return errNoBlockSizes
	}
	for i, size := range c.AvailableBlockChunksSizes {
		if size <= 0 {
			return fmt.Errorf("block chunks size %d at %d is not positive", size, i)
		}
		if i > 0 && size <= c.AvailableBlockChunksSizes[i-1] {
			return fmt.Errorf("block chunks sizes are not ascending: %v", c.AvailableBlockChunksSizes)
		}
	}
	if c.CommitGasLimit == nil || c.CommitGasLimit.Sign() <= 0 {
		return fmt.Errorf("commit gas limit must be positive")
	}
	if c.VerifyGasLimit == nil || c.VerifyGasLimit.Sign() <= 0 {
		return fmt.Errorf("verify gas limit must be positive")
	}
	if err := types.CheckGasLimit("commit gas limit", c.CommitGasLimit); err != nil {
		return err
	}
	if err := types.CheckGasLimit("verify gas limit", c.VerifyGasLimit); err != nil {
		return err
	}
	if c.SealedBlocksBuffer < 0 {
		return fmt.Errorf("sealed blocks buffer %d is negative", c.SealedBlocksBuffer)
	}
	return nil
}

// MaxBlockChunksSize returns the largest supported block size.
func (c *Config) MaxBlockChunksSize() int {
	return c.AvailableBlockChunksSizes[len(c.AvailableBlockChunksSizes)-1]
}
