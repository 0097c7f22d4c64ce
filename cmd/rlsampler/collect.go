package main

import (
	"fmt"
	"math"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/rlsampler/loggers"
	"github.com/samuelfneumann/rlsampler/metrics"
	"github.com/samuelfneumann/rlsampler/samplers"
	"github.com/samuelfneumann/rlsampler/samplers/gae"
	"github.com/samuelfneumann/rlsampler/utils/progressbar"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect rollouts into a samples buffer and log their metrics",
	Example: `
rlsampler collect
rlsampler collect --iterations 100 --output results/cartpole/progress.csv
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfiguration()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		override(flags, "iterations", &cfg.Collect.Iterations)
		override(flags, "output", &cfg.Collect.Output)

		logger := loggers.ZapLogger()
		if cfg.Collect.LogDir != "" {
			fileLogger, err := loggers.NewFileLogger("collect",
				cfg.Collect.LogDir)
			if err != nil {
				return err
			}
			logger = fileLogger
			defer func() { _ = fileLogger.Sync() }()
		}

		target := targetOf(cfg)
		_, samples, _, err := samplers.BuildSamplesBuffer(cmd.Context(),
			target, samplers.BufferConfig{
				BatchSpec:      cfg.Buffer.BatchSpec,
				BootstrapValue: cfg.Buffer.BootstrapValue,
				AgentShared:    cfg.Buffer.AgentShared,
				EnvShared:      cfg.Buffer.EnvShared,
				Subprocess:     cfg.Buffer.Subprocess,
				Logger:         logger,
			})
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, samples.Close()) }()

		writer, err := metrics.NewWriter(cfg.Collect.Output)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, writer.Close()) }()

		sampler, err := samplers.NewSerial(target, samples, writer, logger)
		if err != nil {
			return err
		}

		bar := progressbar.NewManualProgressBar(os.Stdout, 40,
			cfg.Collect.Iterations)
		var last metrics.Iteration
		for i := 0; i < cfg.Collect.Iterations; i++ {
			last, err = sampler.Collect(cmd.Context())
			if err != nil {
				bar.Done()
				return err
			}
			if cfg.Buffer.BootstrapValue {
				est, err := gae.Compute(samples, cfg.Env.Discount,
					cfg.Collect.GAELambda)
				if err != nil {
					bar.Done()
					return err
				}
				logger.Debug("advantage estimates",
					zap.Int("iteration", last.Iteration),
					zap.Float64("return", stat.Mean(est.Return.RawMatrix().Data, nil)),
					zap.Float64("advantage", stat.Mean(est.Advantage.RawMatrix().Data, nil)))
			}
			bar.Increment()
			bar.Display(status(last))
		}
		bar.Done()

		logger.Info("collection finished",
			zap.Int("iterations", cfg.Collect.Iterations),
			zap.Int("cum_steps", last.CumSteps),
			zap.String("output", cfg.Collect.Output))
		fmt.Println(aurora.Green(fmt.Sprintf("metrics written to %s",
			cfg.Collect.Output)))
		return nil
	},
}

func init() {
	collectCmd.Flags().IntP("iterations", "n", 0, "iterations to collect")
	collectCmd.Flags().StringP("output", "o", "", "metrics log to write")
}

func status(itr metrics.Iteration) string {
	if math.IsNaN(itr.GameScoreAverage) {
		return fmt.Sprintf("steps: %v", itr.CumSteps)
	}
	return fmt.Sprintf("steps: %v | score: %.2f", itr.CumSteps,
		itr.GameScoreAverage)
}
