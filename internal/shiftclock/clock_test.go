package shiftclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustClock(t *testing.T, startHour, offsetHours int) *Clock {
	t.Helper()
	clock, err := New(startHour, time.Duration(offsetHours)*time.Hour)
	require.NoError(t, err)
	return clock
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		startHour int
		offset    time.Duration
		wantErr   bool
	}{
		{name: "standard evening venue", startHour: 17, offset: 7 * time.Hour},
		{name: "earliest allowed start", startHour: 3, offset: 0},
		{name: "latest allowed start", startHour: 23, offset: 0},
		{name: "start before post-midnight cutoff", startHour: 2, offset: 0, wantErr: true},
		{name: "start out of range", startHour: 24, offset: 0, wantErr: true},
		{name: "offset too far west", startHour: 17, offset: -13 * time.Hour, wantErr: true},
		{name: "offset too far east", startHour: 17, offset: 15 * time.Hour, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.startHour, tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	// UTC+7 venue opening at 17:00 local.
	clock := mustClock(t, 17, 7)
	bangkok := time.FixedZone("ICT", 7*3600)

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name    string
		instant time.Time
		want    time.Time
	}{
		{
			name:    "receipt during evening service",
			instant: time.Date(2025, 7, 3, 19, 30, 0, 0, bangkok),
			want:    date(2025, time.July, 3),
		},
		{
			name:    "post-midnight trade belongs to previous day",
			instant: time.Date(2025, 7, 4, 1, 30, 0, 0, bangkok),
			want:    date(2025, time.July, 3),
		},
		{
			name:    "dead hours before opening belong to previous day",
			instant: time.Date(2025, 7, 4, 11, 0, 0, 0, bangkok),
			want:    date(2025, time.July, 3),
		},
		{
			name:    "exactly at opening starts the new day",
			instant: time.Date(2025, 7, 4, 17, 0, 0, 0, bangkok),
			want:    date(2025, time.July, 4),
		},
		{
			name:    "one second before opening still previous day",
			instant: time.Date(2025, 7, 4, 16, 59, 59, 0, bangkok),
			want:    date(2025, time.July, 3),
		},
		{
			name:    "exactly midnight local",
			instant: time.Date(2025, 7, 4, 0, 0, 0, 0, bangkok),
			want:    date(2025, time.July, 3),
		},
		{
			name:    "instant given in UTC resolves through venue zone",
			instant: time.Date(2025, 7, 3, 18, 0, 0, 0, time.UTC), // 01:00 on the 4th local
			want:    date(2025, time.July, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.Resolve(tt.instant))
		})
	}
}

func TestResolveIsTotal(t *testing.T) {
	// Every hour of two consecutive days maps to exactly one of the two
	// surrounding shift dates, with no gaps.
	clock := mustClock(t, 17, 7)
	bangkok := time.FixedZone("ICT", 7*3600)

	start := time.Date(2025, 7, 3, 0, 0, 0, 0, bangkok)
	for i := 0; i < 48; i++ {
		instant := start.Add(time.Duration(i) * time.Hour)
		resolved := clock.Resolve(instant)

		winStart, winEnd := clock.Window(resolved)
		assert.False(t, instant.Before(winStart), "instant %s before window of %s", instant, resolved)
		assert.True(t, instant.Before(winEnd), "instant %s past window of %s", instant, resolved)
	}
}

func TestWindowMatchesResolveAtBoundaries(t *testing.T) {
	clock := mustClock(t, 17, 7)

	shiftDate := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	start, end := clock.Window(shiftDate)

	assert.Equal(t, shiftDate, clock.Resolve(start))
	assert.Equal(t, shiftDate, clock.Resolve(end.Add(-time.Second)))
	assert.NotEqual(t, shiftDate, clock.Resolve(end))
	assert.NotEqual(t, shiftDate, clock.Resolve(start.Add(-time.Second)))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
