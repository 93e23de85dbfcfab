package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/timephased-engine/calendar"
	"github.com/warp/timephased-engine/generic"
)

func newCalendarCommand() *cobra.Command {
	var calendarPath, from, to string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the working time of a calendar for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cal, err := loadCalendar(calendarPath)
			if err != nil {
				return err
			}
			start, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if end.Before(start) {
				return errors.New("--to is before --from")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), calendarTable(cal, start, end))
			return err
		},
	}
	cmd.Flags().StringVar(&calendarPath, "calendar", "", "Calendar YAML file (default: standard weekday calendar)")
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// calendarTable renders one row per date in [start, end].
func calendarTable(cal *calendar.ProjectCalendar, start, end time.Time) string {
	var rows [][]string
	for d := start; !d.After(end); d = generic.NextDay(d) {
		shifts := cal.ShiftsFor(d)
		names := make([]string, len(shifts))
		for i, sh := range shifts {
			names[i] = sh.String()
		}
		working := "no"
		if cal.IsWorkingDate(d) {
			working = "yes"
		}
		rows = append(rows, []string{
			d.Format("Mon 2006-01-02"),
			working,
			strings.Join(names, ", "),
			cal.DayWork(d, generic.UnitMinutes).Value.String(),
		})
	}
	return newTable("Date", "Working", "Shifts", "Minutes").Rows(rows...).Render()
}
