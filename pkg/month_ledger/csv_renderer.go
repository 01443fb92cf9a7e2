package month_ledger

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/klokku/flextime/pkg/timeofday"
	log "github.com/sirupsen/logrus"
)

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

var csvHeader = []string{"Date", "Planned", "Start", "End", "Lunch", "Home office", "Vacation", "ZA", "Worked", "Diff"}

// Render writes one row per day that takes part in the month and a totals row at the end.
func (t *CsvRendererImpl) Render(summary Summary) (string, error) {
	data := make([][]string, 0, len(summary.Days)+2)
	data = append(data, csvHeader)

	for _, view := range summary.Days {
		if view.Result.Skipped {
			continue
		}
		data = append(data, getRowForDay(view))
	}

	data = append(data, []string{
		"Total",
		timeofday.FormatDiff(summary.TotalPlannedSeconds),
		"", "", "", "",
		"", "",
		timeofday.FormatDiff(summary.TotalWorkedSeconds),
		timeofday.FormatDiff(summary.FlexBalanceSeconds),
	})

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

func getRowForDay(view DayView) []string {
	record := view.Record
	result := view.Result
	row := []string{
		view.Date.Format("02/01/2006"),
		timeofday.FormatDayTotal(view.Schedule.PlannedSeconds()),
		"", "",
		strconv.FormatBool(record.LunchBreak),
		strconv.FormatBool(record.HomeOffice),
		strconv.FormatBool(record.Vacation),
		strconv.FormatBool(record.ZA),
		"", "",
	}
	if result.Excluded {
		return row
	}
	if !result.EffectiveStart.IsUnset() {
		row[2] = result.EffectiveStart.String()
	}
	if !result.EffectiveEnd.IsUnset() && !result.ForecastApplied {
		row[3] = result.EffectiveEnd.String()
	}
	row[8] = result.WorkedText
	row[9] = result.DiffText
	return row
}
