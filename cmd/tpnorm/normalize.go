package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/warp/timephased-engine/generic"
	"github.com/warp/timephased-engine/internal/log"
	"github.com/warp/timephased-engine/timephased"
)

type normalizeOptions struct {
	calendarPath string
	inputPath    string
	unit         string
	dayMinutes   int
	stage        string
	format       string
}

func newNormalizeCommand() *cobra.Command {
	var opts normalizeOptions
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Split, merge and convert a segment file into daily timephased work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNormalize(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.calendarPath, "calendar", "", "Calendar YAML file (default: standard weekday calendar)")
	cmd.Flags().StringVar(&opts.inputPath, "input", "", "Segments YAML file")
	cmd.Flags().StringVar(&opts.unit, "unit", string(generic.UnitHours), "Output unit: minutes, hours or days")
	cmd.Flags().IntVar(&opts.dayMinutes, "day-minutes", generic.CanonicalDayMinutes, "Working-day length for pro-ration")
	cmd.Flags().StringVar(&opts.stage, "stage", string(timephased.StageAll), "Stop after: split, same-day, same-rate or all")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "Output format: table, yaml or json")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runNormalize(cmd *cobra.Command, opts normalizeOptions) error {
	if opts.dayMinutes <= 0 {
		return errors.New("--day-minutes must be positive")
	}
	unit, err := generic.ParseUnit(opts.unit)
	if err != nil {
		return err
	}
	stage, err := timephased.ParseStage(opts.stage)
	if err != nil {
		return err
	}

	cal, err := loadCalendar(opts.calendarPath)
	if err != nil {
		return err
	}
	segments, err := loadSegments(opts.inputPath)
	if err != nil {
		return err
	}

	n := &timephased.Normalizer{
		DayMinutes: opts.dayMinutes,
		OutputUnit: unit,
		Logger:     log.GetZapLogger(),
	}
	out := n.NormalizeThrough(cal, segments, stage)

	log.Debugw("normalized", "input", len(segments), "output", len(out), "stage", stage)
	return writeSegments(cmd.OutOrStdout(), opts.format, out)
}
