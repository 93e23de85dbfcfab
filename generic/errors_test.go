package generic_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timephased-engine/generic"
)

func segment(startDay, finishDay int, work float64) generic.Segment {
	return generic.Segment{
		Start:      date(startDay, 8, 0),
		Finish:     date(finishDay, 17, 0),
		TotalWork:  generic.Minutes(work),
		WorkPerDay: generic.Minutes(480),
	}
}

func TestValidateSegments(t *testing.T) {
	tests := []struct {
		name      string
		segments  []generic.Segment
		wantErr   error
		wantIndex int
	}{
		{
			name:     "valid",
			segments: []generic.Segment{segment(10, 11, 960), segment(12, 12, 480)},
		},
		{
			name:     "empty",
			segments: nil,
		},
		{
			name:      "finish before start",
			segments:  []generic.Segment{segment(10, 10, 480), segment(12, 11, 480)},
			wantErr:   generic.ErrInvalidSegment,
			wantIndex: 1,
		},
		{
			name:      "negative work",
			segments:  []generic.Segment{segment(10, 10, -5)},
			wantErr:   generic.ErrNegativeWork,
			wantIndex: 0,
		},
		{
			name:      "unordered",
			segments:  []generic.Segment{segment(11, 11, 480), segment(10, 10, 480)},
			wantErr:   generic.ErrUnorderedSegments,
			wantIndex: 1,
		},
		{
			name: "unknown unit",
			segments: []generic.Segment{{
				Start:     date(10, 8, 0),
				Finish:    date(10, 17, 0),
				TotalWork: generic.NewDuration(1, "weeks"),
			}},
			wantErr:   generic.ErrUnknownUnit,
			wantIndex: 0,
		},
		{
			name: "unknown rate unit",
			segments: []generic.Segment{segment(10, 10, 480), {
				Start:      date(11, 8, 0),
				Finish:     date(11, 17, 0),
				TotalWork:  generic.Minutes(480),
				WorkPerDay: generic.NewDuration(1, "weeks"),
			}},
			wantErr:   generic.ErrUnknownUnit,
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generic.ValidateSegments(tt.segments)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			var segErr *generic.SegmentError
			require.ErrorAs(t, err, &segErr)
			assert.Equal(t, tt.wantIndex, segErr.Index)
			assert.True(t, generic.IsClientError(err))
			assert.False(t, generic.IsNotFound(err))
		})
	}
}

func TestErrorHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load calendar cal-1: %w", generic.ErrCalendarNotFound)

	assert.True(t, generic.IsNotFound(wrapped))
	assert.False(t, generic.IsClientError(wrapped))
	assert.True(t, generic.IsClientError(fmt.Errorf("week: %w", generic.ErrInvalidShift)))
	assert.False(t, generic.IsNotFound(errors.New("disk full")))
}
