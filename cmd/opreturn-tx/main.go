package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Maphikza/btc-opreturn-regtest/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "opreturn-tx",
	Short: "Build, fund, sign and confirm an OP_RETURN transaction on a test node",
	Long: `Creates or loads a wallet on a bitcoind test node, mines blocks until the
wallet can spend, then sends a payment carrying an OP_RETURN message and mines
it into a block. The transaction id is written to the configured out file.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("network", "", "network of the node: regtest, testnet3 or signet")
	flags.String("rpc-server", "", "node RPC host:port")
	flags.String("wallet", "", "name of the node wallet to use")
	bindFlag("network", "network")
	bindFlag("rpc_server", "rpc-server")
	bindFlag("wallet_name", "wallet")

	runFlags := rootCmd.Flags()
	runFlags.String("recipient", "", "recipient address")
	runFlags.Float64("amount", 0, "payment amount in BTC")
	runFlags.String("message", "", "OP_RETURN message")
	runFlags.Float64("fee-rate", 0, "fee rate in sat/vB")
	runFlags.String("out", "", "file receiving the transaction id")
	bindFlag("recipient_address", "recipient")
	bindFlag("amount_btc", "amount")
	bindFlag("message", "message")
	bindFlag("fee_rate", "fee-rate")
	bindFlag("out_file", "out")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func bindFlag(key, name string) {
	flag := rootCmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = rootCmd.Flags().Lookup(name)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

func initConfig() {
	if err := config.LoadConfig(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
