package month_ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/timeofday"
)

const labelKey = "MonthAndYear"

// encodeMonth writes the month file: the label first, then one positional array per day,
// [start, end, vacation, lunchBreak, homeOffice, [detailStart, detailEnd, intervals], za].
func encodeMonth(l MonthLedger) ([]byte, error) {
	var b bytes.Buffer
	label, err := json.Marshal(l.Label())
	if err != nil {
		return nil, err
	}
	b.WriteString("{\n    \"" + labelKey + "\": ")
	b.Write(label)

	for i, r := range l.Days {
		encoded, err := json.Marshal(encodeDay(r))
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i+1, err)
		}
		b.WriteString(",\n    \"" + strconv.Itoa(i) + "\": ")
		b.Write(encoded)
	}
	b.WriteString("\n}\n")
	return b.Bytes(), nil
}

func encodeDay(r day.Record) []any {
	intervals := make([][3]int, 0, day.DetailSlots)
	for _, i := range r.Detail.Intervals {
		intervals = append(intervals, [3]int{i.Start.Minutes(), i.End.Minutes(), int(i.Activity)})
	}
	detail := []any{r.Detail.Start.Minutes(), r.Detail.End.Minutes(), intervals}
	return []any{
		r.Start.Minutes(),
		r.End.Minutes(),
		r.Vacation,
		r.LunchBreak,
		r.HomeOffice,
		detail,
		r.Vacation && r.ZA,
	}
}

// decodeMonth reads a month file. Days missing from the file keep the fresh default,
// and day arrays written by older versions are upgraded field by field.
func decodeMonth(data []byte, year int, month time.Month) (MonthLedger, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return MonthLedger{}, err
	}

	ledger := NewMonthLedger(year, month)
	for i := range ledger.Days {
		msg, ok := raw[strconv.Itoa(i)]
		if !ok {
			continue
		}
		r, err := decodeDay(msg)
		if err != nil {
			return MonthLedger{}, fmt.Errorf("day %d: %w", i+1, err)
		}
		ledger.Days[i] = r
	}
	return ledger, nil
}

func decodeDay(msg json.RawMessage) (day.Record, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return day.Record{}, err
	}
	if len(fields) < 3 || len(fields) > 7 {
		return day.Record{}, fmt.Errorf("unexpected day format with %d fields", len(fields))
	}

	r := day.NewRecord()
	var start, end int
	var za bool
	targets := []any{&start, &end, &r.Vacation}
	switch len(fields) {
	case 4:
		targets = append(targets, &r.LunchBreak)
	case 5:
		targets = append(targets, &r.LunchBreak, &r.Detail)
	case 6:
		targets = append(targets, &r.LunchBreak, &r.HomeOffice, &r.Detail)
	case 7:
		targets = append(targets, &r.LunchBreak, &r.HomeOffice, &r.Detail, &za)
	}

	for i, target := range targets {
		var err error
		if detail, ok := target.(*day.Detail); ok {
			*detail, err = decodeDetail(fields[i])
		} else {
			err = json.Unmarshal(fields[i], target)
		}
		if err != nil {
			return day.Record{}, fmt.Errorf("field %d: %w", i, err)
		}
	}

	r.Start = timeofday.FromMinutes(start)
	r.End = timeofday.FromMinutes(end)
	r.ZA = za && r.Vacation
	return r, nil
}

// decodeDetail reads [start, end, [[s, e, activity], ...]]. Intervals written before
// activity types existed have two elements and count as home office.
func decodeDetail(msg json.RawMessage) (day.Detail, error) {
	var detail day.Detail
	var parts []json.RawMessage
	if err := json.Unmarshal(msg, &parts); err != nil {
		return detail, err
	}
	if len(parts) == 0 {
		return detail, nil
	}
	if len(parts) != 3 {
		return detail, fmt.Errorf("unexpected detail format with %d parts", len(parts))
	}

	var start, end int
	var intervals [][]int
	if err := json.Unmarshal(parts[0], &start); err != nil {
		return detail, err
	}
	if err := json.Unmarshal(parts[1], &end); err != nil {
		return detail, err
	}
	if err := json.Unmarshal(parts[2], &intervals); err != nil {
		return detail, err
	}
	if len(intervals) > day.DetailSlots {
		return detail, fmt.Errorf("detail has %d intervals, at most %d are allowed", len(intervals), day.DetailSlots)
	}

	detail.Start = timeofday.FromMinutes(start)
	detail.End = timeofday.FromMinutes(end)
	for i, interval := range intervals {
		activity := day.HomeOffice
		switch len(interval) {
		case 2:
		case 3:
			activity = day.ActivityType(interval[2])
			if !activity.Valid() {
				return detail, fmt.Errorf("interval %d: unknown activity %d", i, interval[2])
			}
		default:
			return detail, fmt.Errorf("interval %d: unexpected format with %d values", i, len(interval))
		}
		detail.Intervals[i] = day.Interval{
			Start:    timeofday.FromMinutes(interval[0]),
			End:      timeofday.FromMinutes(interval[1]),
			Activity: activity,
		}
	}
	return detail, nil
}
