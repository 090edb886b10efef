package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("empty timezone defaults to UTC", func(t *testing.T) {
		c, err := New("")
		require.NoError(t, err)
		assert.Equal(t, time.UTC, c.loc)
	})

	t.Run("named timezone", func(t *testing.T) {
		c, err := New("Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", c.loc.String())
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := New("Not/AZone")
		assert.Error(t, err)
	})
}

func TestToday(t *testing.T) {
	c := NewFixed(time.Date(2024, 5, 13, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2024-05-13", c.Today())
}

func TestWeekStart(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "monday maps to itself",
			in:   time.Date(2024, 5, 13, 15, 30, 0, 0, time.UTC),
			want: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "wednesday maps back to monday",
			in:   time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC),
			want: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday maps back six days",
			in:   time.Date(2024, 5, 19, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, c.WeekStart(tt.in).Equal(tt.want))
		})
	}
}

func TestWeekStartCrossesMonthBoundary(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	// Saturday 2024-06-01 belongs to the week starting Monday 2024-05-27.
	in := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, c.WeekStart(in).Equal(time.Date(2024, 5, 27, 0, 0, 0, 0, time.UTC)))
}
