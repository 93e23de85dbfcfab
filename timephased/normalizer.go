/*
Package timephased normalizes timephased assignment data.

PURPOSE:
  Scheduling files record "work performed" as irregular spans that may cover
  several days. Reporting and export want one entry per working day. The
  Normalizer reshapes the time grid the work is recorded on while conserving
  the total work, within EqualityDelta per segment.

PIPELINE:
  Stages run strictly in order, each building a fresh slice:
  1. SplitDays:     One segment per calendar day, work pro-rated
  2. MergeSameDay:  Collapse same-day fragments, drop zero/zero noise
  3. MergeSameRate: Compact runs of identical daily work
  4. ConvertUnits:  Minutes to the caller's unit (hours by default)

PRO-RATION:
  Daily rates are expressed against a fixed working day of DayMinutes
  (CanonicalDayMinutes = 480), independent of how many minutes the calendar
  actually works that day.

CONCURRENCY:
  Stages are pure functions of their inputs. A Normalizer holds no mutable
  state and may be shared; the Calendar it is given must be safe for
  concurrent reads if Normalize is called concurrently.

EXAMPLE:
  n := timephased.NewNormalizer()
  daily := n.Normalize(cal, raw)

SEE ALSO:
  - splitter.go: Stage 1
  - merge.go: Stages 2-4
  - service.go: Store-backed normalization
*/
package timephased

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/timephased-engine/generic"
)

// Stage identifies how far the pipeline runs.
type Stage string

const (
	StageSplit    Stage = "split"
	StageSameDay  Stage = "same-day"
	StageSameRate Stage = "same-rate"
	StageAll      Stage = "all"
)

// ParseStage maps a stage name to a Stage. The empty string is StageAll.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case "":
		return StageAll, nil
	case StageSplit, StageSameDay, StageSameRate, StageAll:
		return Stage(s), nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

// =============================================================================
// NORMALIZER
// =============================================================================

type Normalizer struct {
	// DayMinutes is the working-day length daily rates are expressed against.
	DayMinutes int

	// OutputUnit is the unit of the returned durations.
	OutputUnit generic.Unit

	// Logger receives a debug dump after each stage. Nil disables it.
	Logger *zap.Logger
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		DayMinutes: generic.CanonicalDayMinutes,
		OutputUnit: generic.UnitHours,
	}
}

// Normalize runs the full pipeline and returns a new slice. Empty input is
// returned as an empty slice without consulting the calendar.
func (n *Normalizer) Normalize(cal generic.Calendar, segments []generic.Segment) []generic.Segment {
	return n.NormalizeThrough(cal, segments, StageAll)
}

// NormalizeThrough runs the pipeline up to and including stage. Stages that
// are not run leave durations in minutes.
func (n *Normalizer) NormalizeThrough(cal generic.Calendar, segments []generic.Segment, stage Stage) []generic.Segment {
	if len(segments) == 0 {
		return []generic.Segment{}
	}

	list := SplitDays(cal, segments, n.dayMinutes())
	n.dump("split days", list)
	if stage == StageSplit {
		return list
	}

	list = MergeSameDay(cal, list)
	n.dump("merge same day", list)
	if stage == StageSameDay {
		return list
	}

	list = MergeSameRate(list)
	n.dump("merge same rate", list)
	if stage == StageSameRate {
		return list
	}

	list = ConvertUnits(list, n.outputUnit())
	n.dump("convert units", list)
	return list
}

func (n *Normalizer) dayMinutes() int {
	if n.DayMinutes <= 0 {
		return generic.CanonicalDayMinutes
	}
	return n.DayMinutes
}

func (n *Normalizer) outputUnit() generic.Unit {
	if !n.OutputUnit.Valid() {
		return generic.UnitHours
	}
	return n.OutputUnit
}

func (n *Normalizer) dump(stage string, list []generic.Segment) {
	if n.Logger == nil || !n.Logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	entries := make([]string, len(list))
	for i, s := range list {
		entries[i] = s.String()
	}
	n.Logger.Debug("timephased stage",
		zap.String("stage", stage),
		zap.Int("segments", len(list)),
		zap.Strings("entries", entries),
	)
}
