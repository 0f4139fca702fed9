package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/celer-network/go-zkrollup/blockproducer"
	"github.com/celer-network/go-zkrollup/db/badgerdb"
	"github.com/celer-network/go-zkrollup/storage"
	"github.com/celer-network/go-zkrollup/types"
)

const (
	flagOps        = "ops"
	flagBlock      = "block"
	flagBlockSizes = "block-sizes"
	flagFeeAccount = "fee-account"

	configAvailableBlockChunksSizes = "blockProducer.availableBlockChunksSizes"
	configFeeAccount                = "blockProducer.feeAccount"

	formatJSON = "json"
	formatYAML = "yaml"
)

func sealCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "seal the executed operations of a JSON file into blocks",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag(configAvailableBlockChunksSizes, cmd.Flags().Lookup(flagBlockSizes)); err != nil {
				return err
			}
			return viper.BindPFlag(configFeeAccount, cmd.Flags().Lookup(flagFeeAccount))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return seal(cmd.OutOrStdout())
		},
	}
	cmd.Flags().String(flagOps, "", "executed operations JSON file")
	cmd.Flags().IntSlice(flagBlockSizes, nil, "supported block chunks sizes, ascending")
	cmd.Flags().Uint32(flagFeeAccount, 0, "fee account id")
	return cmd
}

func showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "print a stored block",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Uint32(flagBlock, 0, "block number")
	return cmd
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored block numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(cmd.OutOrStdout())
		},
	}
}

func openStore() (*storage.BlockStore, func(), error) {
	database, err := badgerdb.NewDB(viper.GetString(flagDb))
	if err != nil {
		return nil, nil, err
	}
	closeFunc := func() {
		if err := database.Close(); err != nil {
			logger.Error().Err(err).Msg("Fail to close the block db")
		}
	}
	return storage.NewBlockStore(database), closeFunc, nil
}

func seal(out io.Writer) error {
	opsFile := viper.GetString(flagOps)
	if opsFile == "" {
		return errors.New("--ops is required")
	}
	data, err := os.ReadFile(opsFile)
	if err != nil {
		return err
	}
	ops, err := types.DecodeExecutedOperations(data)
	if err != nil {
		return err
	}
	config, err := blockproducer.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	producer, err := blockproducer.NewBlockProducer(config, store, clock.New())
	if err != nil {
		return err
	}
	for _, op := range ops {
		block, err := producer.AddOperation(op)
		if err != nil {
			return err
		}
		if block != nil {
			if err := printBlock(out, block); err != nil {
				return err
			}
		}
	}
	if producer.PendingOperations() > 0 || len(ops) == 0 {
		block, err := producer.Seal()
		if err != nil {
			return err
		}
		return printBlock(out, block)
	}
	return nil
}

func show(out io.Writer) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	blockNumber := types.BlockNumber(viper.GetUint32(flagBlock))
	block, found, err := store.GetBlock(blockNumber)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("block %d not found", blockNumber)
	}
	return printBlock(out, block)
}

func list(out io.Writer) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	numbers, err := store.ListBlockNumbers()
	if err != nil {
		return err
	}
	for _, number := range numbers {
		if _, err := fmt.Fprintln(out, number); err != nil {
			return err
		}
	}
	return nil
}

func printBlock(out io.Writer, block *types.IncompleteBlock) error {
	data, err := formatBlock(block, viper.GetString(flagFormat))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func formatBlock(block *types.IncompleteBlock, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		return json.MarshalIndent(block, "", "  ")
	case formatYAML:
		data, err := block.SerializeForStorage()
		if err != nil {
			return nil, err
		}
		// JSON is valid YAML; MapSlice keeps the field order
		var doc yaml.MapSlice
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
