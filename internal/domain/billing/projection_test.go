package billing

import (
	"testing"
	"time"

	"school_reminder_bot/internal/domain/calendar"

	"github.com/stretchr/testify/assert"
)

func TestParseBillingDay(t *testing.T) {
	tests := []struct {
		descriptor    string
		wantDay       int
		wantDefaulted bool
	}{
		{descriptor: "15", wantDay: 15},
		{descriptor: "pays on the 27th, 2 lessons/week", wantDay: 27},
		{descriptor: "до 5 числа", wantDay: 5},
		{descriptor: "0", wantDay: 0},
		{descriptor: "оплата-15", wantDay: 15},
		{descriptor: "тариф A-15 числа", wantDay: 15},
		{descriptor: "monthly", wantDay: DefaultBillingDay, wantDefaulted: true},
		{descriptor: "", wantDay: DefaultBillingDay, wantDefaulted: true},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			day, defaulted := ParseBillingDay(tt.descriptor)
			assert.Equal(t, tt.wantDay, day)
			assert.Equal(t, tt.wantDefaulted, defaulted)
		})
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name       string
		billingDay int
		today      calendar.Day
		wantOK     bool
		wantDays   int
		wantDue    calendar.Day
	}{
		{
			name:       "two days ahead",
			billingDay: 27,
			today:      calendar.Date(2024, time.January, 25),
			wantOK:     true,
			wantDays:   2,
			wantDue:    calendar.Date(2024, time.January, 27),
		},
		{
			name:       "due today",
			billingDay: 10,
			today:      calendar.Date(2024, time.March, 10),
			wantOK:     true,
			wantDays:   0,
			wantDue:    calendar.Date(2024, time.March, 10),
		},
		{
			name:       "passed this month rolls to next month and is too far",
			billingDay: 27,
			today:      calendar.Date(2024, time.January, 30),
		},
		{
			name:       "rollover across month end within horizon",
			billingDay: 1,
			today:      calendar.Date(2024, time.January, 30),
			wantOK:     true,
			wantDays:   2,
			wantDue:    calendar.Date(2024, time.February, 1),
		},
		{
			name:       "rollover across year end",
			billingDay: 2,
			today:      calendar.Date(2023, time.December, 30),
			wantOK:     true,
			wantDays:   3,
			wantDue:    calendar.Date(2024, time.January, 2),
		},
		{
			name:       "missing day of month clamps to 28",
			billingDay: 31,
			today:      calendar.Date(2023, time.February, 26),
			wantOK:     true,
			wantDays:   2,
			wantDue:    calendar.Date(2023, time.February, 28),
		},
		{
			name:       "clamp applies in leap february too",
			billingDay: 30,
			today:      calendar.Date(2024, time.February, 27),
			wantOK:     true,
			wantDays:   1,
			wantDue:    calendar.Date(2024, time.February, 28),
		},
		{
			name:       "four days out is not reported",
			billingDay: 20,
			today:      calendar.Date(2024, time.May, 16),
		},
		{
			name:       "zero billing day",
			billingDay: 0,
			today:      calendar.Date(2024, time.May, 16),
		},
		{
			name:       "negative billing day",
			billingDay: -3,
			today:      calendar.Date(2024, time.May, 16),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Project(tt.billingDay, tt.today)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, Projection{}, got)
				return
			}
			assert.Equal(t, tt.wantDays, got.DaysUntilDue)
			assert.Equal(t, tt.wantDue, got.DueDate)
			assert.Equal(t, tt.wantDue, got.WindowEnd)
		})
	}
}

func TestProjection_Window(t *testing.T) {
	p, ok := Project(15, calendar.Date(2024, time.March, 13))
	assert.True(t, ok)
	assert.Equal(t, calendar.Date(2024, time.February, 16), p.WindowStart)
	assert.Equal(t, calendar.Date(2024, time.March, 15), p.WindowEnd)

	assert.False(t, p.Covers(calendar.Date(2024, time.February, 15)))
	assert.True(t, p.Covers(calendar.Date(2024, time.February, 16)))
	assert.True(t, p.Covers(calendar.Date(2024, time.March, 15)))
	assert.False(t, p.Covers(calendar.Date(2024, time.March, 16)))
}

func TestProject_BucketsAlwaysInRange(t *testing.T) {
	start := calendar.Date(2024, time.January, 1)
	for offset := 0; offset < 366; offset++ {
		today := start.AddDays(offset)
		for billingDay := 1; billingDay <= 31; billingDay++ {
			p, ok := Project(billingDay, today)
			if !ok {
				continue
			}
			assert.GreaterOrEqual(t, p.DaysUntilDue, 0)
			assert.LessOrEqual(t, p.DaysUntilDue, MaxDaysUntilDue)
			assert.False(t, p.DueDate.Before(today))
		}
	}
}
