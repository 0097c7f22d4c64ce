package main

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/rlsampler/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the rlsampler configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Example: `
rlsampler config init
rlsampler config init experiments/cartpole.yaml
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefaultConfiguration(path); err != nil {
			return err
		}
		fmt.Println(aurora.Green(fmt.Sprintf("configuration written to %s",
			path)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
