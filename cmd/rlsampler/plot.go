package main

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/rlsampler/loggers"
	"github.com/samuelfneumann/rlsampler/plot"
	"github.com/spf13/cobra"
)

var plotCmd = &cobra.Command{
	Use:   "plot [progress.csv]",
	Short: "Plot columns of a metrics log with their standard deviation bands",
	Example: `
rlsampler plot
rlsampler plot results/rlsampler/progress.csv --columns GameScore/Average
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfiguration()
		if err != nil {
			return err
		}

		path := cfg.Plot.Path
		if len(args) == 1 {
			path = args[0]
		}
		flags := cmd.Flags()
		override(flags, "columns", &cfg.Plot.Columns)
		override(flags, "output", &cfg.Plot.Output)
		if noDisplay, _ := flags.GetBool("no-display"); noDisplay {
			cfg.Plot.Display = false
		}

		p := plot.NewPlotter(cfg.Plot.Output, cfg.Plot.Display,
			loggers.ZapLogger())
		if err := p.Plot(path, cfg.Plot.Columns...); err != nil {
			return err
		}

		fmt.Println(aurora.Green(fmt.Sprintf("plot written to %s",
			cfg.Plot.Output)))
		return nil
	},
}

func init() {
	plotCmd.Flags().StringSlice("columns", nil, "columns to plot")
	plotCmd.Flags().StringP("output", "o", "", "image file to write")
	plotCmd.Flags().Bool("no-display", false, "do not open the image")
}
