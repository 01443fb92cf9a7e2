package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvStatsRendererImpl_RenderStats(t *testing.T) {
	// given
	day1 := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	stats := StatsSummary{
		StartDate: day1,
		EndDate:   day2.Add(24*time.Hour - time.Nanosecond),
		Days: []DailyStats{
			{
				Date: day1,
				Tickets: []TicketStats{
					{Ticket: "ABC-1", Duration: time.Hour, Posts: 1},
					{Ticket: "ABC-2", Duration: 30 * time.Minute, Posts: 1},
				},
				TotalTime: 90 * time.Minute,
			},
			{
				Date:      day2,
				Tickets:   []TicketStats{{Ticket: "ABC-2", Duration: 15*time.Minute + 5*time.Second, Posts: 1}},
				TotalTime: 15*time.Minute + 5*time.Second,
			},
		},
		Tickets: []TicketStats{
			{Ticket: "ABC-1", Duration: time.Hour, Posts: 1},
			{Ticket: "ABC-2", Duration: 45*time.Minute + 5*time.Second, Posts: 2},
		},
		TotalTime: 105*time.Minute + 5*time.Second,
	}

	// when
	csv, err := NewCsvStatsRenderer().RenderStats(stats)

	// then
	require.NoError(t, err)
	expected := ",ABC-1,ABC-2,SUM\n" +
		"19/10/2026,01:00:00,00:30:00,01:30:00\n" +
		"20/10/2026,00:00:00,00:15:05,00:15:05\n" +
		"Total,01:00:00,00:45:05,01:45:05\n"
	assert.Equal(t, expected, csv)
}

func TestDurationToString(t *testing.T) {
	assert.Equal(t, "00:00:00", durationToString(0))
	assert.Equal(t, "00:01:05", durationToString(65*time.Second))
	assert.Equal(t, "123:00:00", durationToString(123*time.Hour))
}
