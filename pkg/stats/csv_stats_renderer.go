package stats

import (
	"bytes"
	"encoding/csv"
	"slices"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderStats(stats StatsSummary) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderStats writes a day by ticket table with a SUM column and a Total row.
func (t *CsvStatsRendererImpl) RenderStats(stats StatsSummary) (string, error) {
	ticketNames := make([]string, 0, len(stats.Tickets)+2)
	ticketNames = append(ticketNames, "")
	for _, ticketStats := range stats.Tickets {
		ticketNames = append(ticketNames, ticketStats.Ticket)
	}

	statsByDay := make([][]string, 0, len(stats.Days))
	for _, dailyStats := range stats.Days {
		statsByDay = append(statsByDay, getStatsForDay(dailyStats, ticketNames[1:]))
	}

	statsByTicket := make([]string, 0, len(stats.Tickets)+2)
	statsByTicket = append(statsByTicket, "Total")
	for _, ticketStats := range stats.Tickets {
		statsByTicket = append(statsByTicket, durationToString(ticketStats.Duration))
	}
	statsByTicket = append(statsByTicket, durationToString(stats.TotalTime))

	ticketNames = append(ticketNames, "SUM")
	data := make([][]string, 0, 1+len(statsByDay)+1)
	data = append(data, ticketNames)
	data = append(data, statsByDay...)
	data = append(data, statsByTicket)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

// getStatsForDay expects the day's tickets sorted by name.
func getStatsForDay(dailyStats DailyStats, ticketNames []string) []string {
	dayStats := make([]string, 0, len(ticketNames)+2)
	dayStats = append(dayStats, dailyStats.Date.Format("02/01/2006"))
	for _, name := range ticketNames {
		idx, found := slices.BinarySearchFunc(dailyStats.Tickets, name, func(ticketStats TicketStats, name string) int {
			return strings.Compare(ticketStats.Ticket, name)
		})
		if found {
			dayStats = append(dayStats, durationToString(dailyStats.Tickets[idx].Duration))
		} else {
			dayStats = append(dayStats, "00:00:00")
		}
	}
	dayStats = append(dayStats, durationToString(dailyStats.TotalTime))
	return dayStats
}

func durationToString(duration time.Duration) string {
	hours := strconv.Itoa(int(duration.Hours()))
	if len(hours) == 1 {
		hours = "0" + hours
	}
	minutes := strconv.Itoa(int(duration.Minutes()) % 60)
	if len(minutes) == 1 {
		minutes = "0" + minutes
	}
	seconds := strconv.Itoa(int(duration.Seconds()) % 60)
	if len(seconds) == 1 {
		seconds = "0" + seconds
	}
	return hours + ":" + minutes + ":" + seconds
}
