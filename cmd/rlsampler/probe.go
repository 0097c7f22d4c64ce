package main

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/rlsampler/config"
	"github.com/samuelfneumann/rlsampler/loggers"
	"github.com/samuelfneumann/rlsampler/samplers/probe"
	"github.com/samuelfneumann/rlsampler/utils/tableutils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shapeRow is one row of the table printed by the probe command
type shapeRow struct {
	Field string `csv:"Field"`
	DType string `csv:"DType"`
	Shape string `csv:"Shape"`
	Value string `csv:"Example"`
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the shape and type of one step of agent and environment outputs",
	Example: `
rlsampler probe
rlsampler probe --in-process
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfiguration()
		if err != nil {
			return err
		}
		inProcess, _ := cmd.Flags().GetBool("in-process")

		target := targetOf(cfg)
		var examples probe.Examples
		if inProcess {
			examples, err = target.Probe()
		} else {
			examples, err = probe.Run(cmd.Context(), target)
		}
		if err != nil {
			return err
		}
		loggers.ZapLogger().Debug("probed example outputs",
			zap.Bool("in_process", inProcess),
			zap.Any("shapes", examples.Shapes()))

		fields := examples.Fields()
		rows := make([]shapeRow, 0, len(fields))
		for _, key := range examples.Keys() {
			e := fields[key]
			rows = append(rows, shapeRow{
				Field: key,
				DType: e.DType.String(),
				Shape: fmt.Sprint(e.Shape),
				Value: e.String(),
			})
		}
		return tableutils.MarshalAndPrintTable(os.Stdout, rows)
	},
}

func init() {
	probeCmd.Flags().Bool("in-process", false,
		"probe in this process instead of a worker process")
}

func targetOf(cfg *config.Configuration) probe.Target {
	return probe.NewTarget(cfg.Env, cfg.Agent, cfg.Seed)
}
