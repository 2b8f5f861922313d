package main

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/config"
	"github.com/spf13/cobra"
)

var (
	templateKind  string
	templateForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and check gfxtrace.toml files",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a config template filled with the defaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate(args[0], templateKind, templateForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", templateKind, args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Load a config and report the first problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (store=%s http=%q stream=%q)\n",
			args[0], cfg.StoreDriver, cfg.HTTPAddr, cfg.StreamAddr)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&templateKind, "kind", "server", "template kind: server or client")
	configInitCmd.Flags().BoolVar(&templateForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}
