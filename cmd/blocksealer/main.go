package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/celer-network/go-zkrollup/log"
	"github.com/celer-network/go-zkrollup/types"
)

const (
	flagConfig = "config"
	flagDb     = "db"
	flagFormat = "format"
)

var logger = log.NewLogger("blocksealer")

func main() {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(*types.BlockSizeOverflowError); ok {
				logger.Fatal().Err(err).Str("origin", log.PanicInvoker(3)).
					Int("chunksUsed", err.ChunksUsed).Int("maxBlockSize", err.MaxBlockSize).
					Msg("Sealed block cannot be proven")
			}
			panic(r)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		logger.Error().Err(err).Send()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "blocksealer",
		Short:         "seal executed operations into rollup blocks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if configFile := viper.GetString(flagConfig); configFile != "" {
				viper.SetConfigFile(configFile)
				return viper.ReadInConfig()
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		sealCommand(),
		showCommand(),
		listCommand(),
	)

	rootCmd.PersistentFlags().String(flagConfig, "", "config file path")
	rootCmd.PersistentFlags().String(flagDb, "/tmp/zkrollup/blocks", "block db directory")
	rootCmd.PersistentFlags().String(flagFormat, formatJSON, "output format, json or yaml")
	return rootCmd
}
