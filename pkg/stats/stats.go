package stats

import (
	"time"
)

type DailyStats struct {
	Date      time.Time
	Tickets   []TicketStats
	TotalTime time.Duration
}

// TicketStats sums the time booked on one ticket.
type TicketStats struct {
	Ticket       string
	WorkPackages []string
	Duration     time.Duration
	Posts        int
}

type StatsSummary struct {
	StartDate   time.Time
	EndDate     time.Time
	Days        []DailyStats
	Tickets     []TicketStats
	TotalTime   time.Duration
	FailedPosts int
}
