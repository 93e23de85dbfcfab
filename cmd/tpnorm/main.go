/*
main.go - tpnorm command-line tool

PURPOSE:
  Runs the normalization pipeline on local files without a server. Useful
  for inspecting what each stage does to a schedule export.

COMMANDS:
  tpnorm normalize --calendar cal.yaml --input segments.yaml [--stage same-day] [--format table|yaml|json]
  tpnorm calendar  --calendar cal.yaml --from 2025-03-10 --to 2025-03-16

FILE FORMATS:
  Calendar (omit --calendar for the standard 08-12/13-17 weekday calendar):
    name: Night shift
    week:
      mon: ["22:00-24:00"]
      tue: ["00:00-06:00", "22:00-24:00"]
    exceptions:
      - date: "2025-12-25"
        name: Christmas
        recurring: true

  Segments:
    segments:
      - start: "2025-03-10T08:00:00Z"
        finish: "2025-03-12T17:00:00Z"
        total_work: {value: 1440, unit: minutes}
        work_per_day: {value: 480, unit: minutes}

SEE ALSO:
  - api/dto.go: Shared file/wire formats
  - timephased/normalizer.go: The pipeline
*/
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/warp/timephased-engine/internal/log"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
		fmt.Fprintln(os.Stderr, style.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:           "tpnorm",
		Short:         "Normalize timephased work against a working calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return log.Init(debug)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			log.Sync()
		},
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every pipeline stage to stderr")
	cmd.AddCommand(newNormalizeCommand())
	cmd.AddCommand(newCalendarCommand())
	return cmd
}
