package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHours(t *testing.T) {
	tests := []struct {
		hours   int
		wantErr bool
	}{
		{1, false},
		{6, false},
		{12, false},
		{24, false},
		{48, false},
		{72, false},
		{2, true},
		{0, true},
		{-24, true},
	}

	for _, tt := range tests {
		r, err := Hours(tt.hours)

		if tt.wantErr {
			assert.Error(t, err, "hours=%d", tt.hours)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, tt.hours, r.QueryHours(time.Now()))
		assert.False(t, r.IsToday())
	}
}

func TestFixedRangeCutoff(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	r, err := Hours(6)
	require.NoError(t, err)

	assert.Equal(t, now.Add(-6*time.Hour), r.Cutoff(now))
}

func TestSinceLocalMidnight(t *testing.T) {
	zone := time.FixedZone("ICT", 7*3600)

	t.Run("query hours round up from midnight with minimum one", func(t *testing.T) {
		tests := []struct {
			name string
			now  time.Time
			want int
		}{
			{"exactly ten hours in", time.Date(2026, 8, 30, 10, 0, 0, 0, zone), 10},
			{"partial hour rounds up", time.Date(2026, 8, 30, 10, 20, 0, 0, zone), 11},
			{"just after midnight", time.Date(2026, 8, 30, 0, 5, 0, 0, zone), 1},
			{"at midnight", time.Date(2026, 8, 30, 0, 0, 0, 0, zone), 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, SinceLocalMidnight().QueryHours(tt.now))
			})
		}
	})

	t.Run("cutoff is local midnight of now", func(t *testing.T) {
		now := time.Date(2026, 8, 30, 10, 0, 0, 0, zone)
		want := time.Date(2026, 8, 30, 0, 0, 0, 0, zone)

		assert.Equal(t, want, SinceLocalMidnight().Cutoff(now))
	})

	t.Run("cutoff advances across midnight rollover", func(t *testing.T) {
		r := SinceLocalMidnight()

		before := time.Date(2026, 8, 30, 23, 59, 0, 0, zone)
		after := time.Date(2026, 8, 31, 0, 1, 0, 0, zone)

		assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, zone), r.Cutoff(before))
		assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, zone), r.Cutoff(after))
	})

	t.Run("rejects yesterday readings", func(t *testing.T) {
		now := time.Date(2026, 8, 30, 10, 0, 0, 0, zone)
		yesterday := time.Date(2026, 8, 29, 23, 0, 0, 0, zone)

		assert.True(t, yesterday.Before(SinceLocalMidnight().Cutoff(now)))
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"today", "today", false},
		{"24h", "24h", false},
		{"24", "24h", false},
		{"1h", "1h", false},
		{"5h", "", true},
		{"yesterday", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := Parse(tt.in)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
		})
	}
}
