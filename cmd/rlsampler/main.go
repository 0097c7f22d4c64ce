// Command rlsampler plots training metrics, probes agent-environment
// pairs and collects rollouts into shared samples buffers
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/logrusorgru/aurora"
	_ "github.com/samuelfneumann/rlsampler/agent/linear"
	"github.com/samuelfneumann/rlsampler/config"
	"github.com/samuelfneumann/rlsampler/loggers"
	"github.com/samuelfneumann/rlsampler/samplers/probe"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "rlsampler",
	Short:         "rlsampler - rollout buffers and training plots",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		fmt.Sprintf("config file (default ./%s if present)",
			config.DefaultConfigFile))

	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfiguration() (*config.Configuration, error) {
	return config.LoadRuntimeConfiguration(viper.New(), configFile)
}

// override sets dst to the value of the named flag if it was set on
// the command line. dst must be a *string, *int or *[]string.
func override(flags *pflag.FlagSet, name string, dst interface{}) {
	if !flags.Changed(name) {
		return
	}
	switch d := dst.(type) {
	case *string:
		*d, _ = flags.GetString(name)
	case *int:
		*d, _ = flags.GetInt(name)
	case *[]string:
		*d, _ = flags.GetStringSlice(name)
	default:
		panic(fmt.Sprintf("override: unsupported flag destination %T", dst))
	}
}

func main() {
	// Probe workers re-execute this binary
	probe.Init()
	defer loggers.ZapLoggerSync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(err.Error()))
		loggers.ZapLoggerSync()
		os.Exit(1)
	}
}
