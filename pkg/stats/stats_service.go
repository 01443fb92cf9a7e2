package stats

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/pkg/worklog"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidRange = errors.New("invalid date range")

// MaxRange bounds a single stats query.
const MaxRange = 366 * 24 * time.Hour

type StatsService interface {
	// GetStats sums the worklogs booked between from and to, inclusive, per day and per ticket.
	GetStats(ctx context.Context, from time.Time, to time.Time) (StatsSummary, error)
}

type HistoryReader interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]worklog.Entry, error)
}

type StatsServiceImpl struct {
	history HistoryReader
}

func NewStatsServiceImpl(history HistoryReader) *StatsServiceImpl {
	return &StatsServiceImpl{history: history}
}

func (s *StatsServiceImpl) GetStats(ctx context.Context, from time.Time, to time.Time) (StatsSummary, error) {
	if !to.After(from) {
		return StatsSummary{}, fmt.Errorf("%w: %s is not after %s", ErrInvalidRange, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if to.Sub(from) > MaxRange {
		return StatsSummary{}, fmt.Errorf("%w: at most one year", ErrInvalidRange)
	}

	entries, err := s.history.ListBetween(ctx, from, to.Add(time.Nanosecond))
	if err != nil {
		return StatsSummary{}, err
	}
	log.Tracef("Worklog entries between %s and %s: %d", from, to, len(entries))

	loc := from.Location()
	days := make([]DailyStats, 0)
	dayIndex := make(map[string]int)
	for date := startOfDay(from); !date.After(to); date = date.AddDate(0, 0, 1) {
		dayIndex[date.Format(time.DateOnly)] = len(days)
		days = append(days, DailyStats{Date: date})
	}

	totals := make(map[string]*TicketStats)
	summary := StatsSummary{StartDate: from, EndDate: to}
	for _, entry := range entries {
		if entry.Status != event_bus.WorklogSucceeded {
			summary.FailedPosts++
			continue
		}
		duration := time.Duration(entry.Seconds) * time.Second
		addTo(totals, entry, duration)
		summary.TotalTime += duration

		i, ok := dayIndex[entry.CreatedAt.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		days[i].Tickets = addToList(days[i].Tickets, entry, duration)
		days[i].TotalTime += duration
	}

	summary.Days = days
	summary.Tickets = make([]TicketStats, 0, len(totals))
	for _, ticket := range totals {
		summary.Tickets = append(summary.Tickets, *ticket)
	}
	sortTickets(summary.Tickets)
	for i := range summary.Days {
		sortTickets(summary.Days[i].Tickets)
	}
	return summary, nil
}

func addTo(totals map[string]*TicketStats, entry worklog.Entry, duration time.Duration) {
	ticket, ok := totals[entry.Ticket]
	if !ok {
		ticket = &TicketStats{Ticket: entry.Ticket}
		totals[entry.Ticket] = ticket
	}
	add(ticket, entry, duration)
}

func addToList(tickets []TicketStats, entry worklog.Entry, duration time.Duration) []TicketStats {
	for i := range tickets {
		if tickets[i].Ticket == entry.Ticket {
			add(&tickets[i], entry, duration)
			return tickets
		}
	}
	ticket := TicketStats{Ticket: entry.Ticket}
	add(&ticket, entry, duration)
	return append(tickets, ticket)
}

func add(ticket *TicketStats, entry worklog.Entry, duration time.Duration) {
	ticket.Duration += duration
	ticket.Posts++
	if entry.WorkPackage != "" && !slices.Contains(ticket.WorkPackages, entry.WorkPackage) {
		ticket.WorkPackages = append(ticket.WorkPackages, entry.WorkPackage)
	}
}

func sortTickets(tickets []TicketStats) {
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Ticket < tickets[j].Ticket
	})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
