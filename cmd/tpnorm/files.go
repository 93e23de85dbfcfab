package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/warp/timephased-engine/api"
	"github.com/warp/timephased-engine/calendar"
	"github.com/warp/timephased-engine/generic"
)

type segmentsFile struct {
	Segments []api.SegmentDTO `yaml:"segments" json:"segments"`
}

// loadCalendar reads a YAML calendar file. An empty path yields the
// standard weekday calendar.
func loadCalendar(path string) (*calendar.ProjectCalendar, error) {
	if path == "" {
		return calendar.Standard("standard", "Standard"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	var dto api.CalendarDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", path, err)
	}
	if dto.ID == "" {
		dto.ID = path
	}
	cal, err := dto.ToCalendar()
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", path, err)
	}
	return cal, nil
}

// loadSegments reads and validates a YAML segment file.
func loadSegments(path string) ([]generic.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	var f segmentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse segments %s: %w", path, err)
	}
	segments, err := api.SegmentsFromDTOs(f.Segments)
	if err != nil {
		return nil, fmt.Errorf("segments %s: %w", path, err)
	}
	if err := generic.ValidateSegments(segments); err != nil {
		return nil, fmt.Errorf("segments %s: %w", path, err)
	}
	return segments, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

func writeSegments(w io.Writer, format string, segments []generic.Segment) error {
	switch format {
	case formatYAML:
		out, err := yaml.Marshal(segmentsFile{Segments: api.ToSegmentDTOs(segments)})
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case formatJSON:
		out, err := json.Marshal(segmentsFile{Segments: api.ToSegmentDTOs(segments)})
		if err != nil {
			return err
		}
		_, err = w.Write(pretty.Pretty(out))
		return err
	case formatTable, "":
		rows := make([][]string, 0, len(segments))
		for i, s := range segments {
			rows = append(rows, []string{
				strconv.Itoa(i),
				s.Start.Format("Mon 2006-01-02 15:04"),
				s.Finish.Format("Mon 2006-01-02 15:04"),
				s.TotalWork.String(),
				s.WorkPerDay.String(),
			})
		}
		t := newTable("#", "Start", "Finish", "Total work", "Work/day").Rows(rows...)
		_, err := fmt.Fprintln(w, t.Render())
		if err != nil {
			return err
		}
		total := generic.TotalWork(segments)
		if len(segments) > 0 {
			total = total.Convert(segments[0].TotalWork.Unit)
		}
		_, err = fmt.Fprintf(w, "%d segments, total %s\n", len(segments), total)
		return err
	default:
		return fmt.Errorf("unknown format %q (table, yaml, json)", format)
	}
}

func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...)
}
