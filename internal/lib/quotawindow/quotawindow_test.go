package quotawindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStart(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		period Period
		want   time.Time
	}{
		{
			name:   "day window truncates to midnight UTC",
			now:    time.Date(2025, 3, 14, 17, 45, 12, 0, time.UTC),
			period: PeriodDay,
			want:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "week window starts on Monday",
			now:    time.Date(2025, 3, 14, 17, 45, 12, 0, time.UTC), // пятница
			period: PeriodWeek,
			want:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "week window on Sunday still goes back to Monday",
			now:    time.Date(2025, 3, 16, 1, 0, 0, 0, time.UTC),
			period: PeriodWeek,
			want:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "week window on Monday stays on the same day",
			now:    time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC),
			period: PeriodWeek,
			want:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month window starts on the first",
			now:    time.Date(2025, 3, 14, 17, 45, 12, 0, time.UTC),
			period: PeriodMonth,
			want:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "non-UTC input is normalized to UTC",
			now:    time.Date(2025, 3, 14, 1, 0, 0, 0, time.FixedZone("MSK", 3*3600)),
			period: PeriodDay,
			want:   time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Start(tt.now, tt.period)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStart_Deterministic(t *testing.T) {
	// любые два момента внутри одного окна дают одинаковый старт
	a := time.Date(2025, 6, 5, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 6, 5, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, Start(a, PeriodDay), Start(b, PeriodDay))
}

func TestNext(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		period Period
		want   time.Time
	}{
		{
			name:   "next day",
			start:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			period: PeriodDay,
			want:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "next week",
			start:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			period: PeriodWeek,
			want:   time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "next month across year boundary",
			start:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			period: PeriodMonth,
			want:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.start, tt.period))
		})
	}
}

func TestBounds(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	start, resetAt := Bounds(now, PeriodDay)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), resetAt)
	assert.True(t, resetAt.After(now))
}
