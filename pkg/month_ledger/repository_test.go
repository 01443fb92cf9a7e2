package month_ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/timeofday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepositoryTest(t *testing.T) (*FileRepository, string) {
	dir := t.TempDir()
	return NewFileRepository(dir), dir
}

func writeMonthFile(t *testing.T, dir string, label string, content string) string {
	path := filepath.Join(dir, label+".json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileRepository_RoundTrip(t *testing.T) {
	repo, _ := setupRepositoryTest(t)
	ctx := context.Background()

	// given
	ledger := octoberLedger()
	var intervals [day.DetailSlots]day.Interval
	intervals[0] = day.Interval{Start: 480, End: 720, Activity: day.Office}
	intervals[1] = day.Interval{Start: 750, End: 900, Activity: day.DoctorAppointment}
	ledger.Days[7].ApplyDetail(intervals, defaultWeek.Office)

	// when
	require.NoError(t, repo.Save(ctx, ledger))
	loaded, err := repo.Load(ctx, 2026, time.October)

	// then
	require.NoError(t, err)
	assert.Equal(t, ledger, loaded)
	assert.Equal(t, [day.DetailSlots]day.Interval{}, loaded.Days[0].Detail.Intervals)
}

func TestFileRepository_WireFormat(t *testing.T) {
	repo, dir := setupRepositoryTest(t)
	ledger := NewMonthLedger(2026, time.February)
	ledger.Days[0] = worked(480, 1005)
	require.NoError(t, repo.Save(context.Background(), ledger))

	data, err := os.ReadFile(filepath.Join(dir, "February 2026.json"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "February 2026", raw["MonthAndYear"])
	assert.Len(t, raw, 29)

	first := raw["0"].([]any)
	require.Len(t, first, 7)
	assert.Equal(t, 480.0, first[0])
	assert.Equal(t, 1005.0, first[1])
	assert.Equal(t, false, first[2])
	assert.Equal(t, true, first[3])
	assert.Equal(t, false, first[4])
	detail := first[5].([]any)
	require.Len(t, detail, 3)
	assert.Len(t, detail[2], day.DetailSlots)
	assert.Equal(t, false, first[6])
}

func TestFileRepository_LegacyMigration(t *testing.T) {
	emptyDetail := `[0, 0, [[0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0]]]`

	tests := []struct {
		name string
		day  string
		want day.Record
	}{
		{
			name: "three fields",
			day:  `[480, 1020, false]`,
			want: day.Record{Start: 480, End: 1020, LunchBreak: true, HomeOffice: true},
		},
		{
			name: "four fields",
			day:  `[480, 1020, true, false]`,
			want: day.Record{Start: 480, End: 1020, Vacation: true, LunchBreak: false, HomeOffice: true},
		},
		{
			name: "five fields with detail",
			day:  `[480, 1020, false, true, [420, 660, [[480, 600], [600, 720], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0], [0, 0]]]]`,
			want: day.Record{
				Start: 480, End: 1020, LunchBreak: true, HomeOffice: true,
				Detail: day.Detail{Start: 420, End: 660, Intervals: [day.DetailSlots]day.Interval{
					{Start: 480, End: 600, Activity: day.HomeOffice},
					{Start: 600, End: 720, Activity: day.HomeOffice},
				}},
			},
		},
		{
			name: "six fields",
			day:  `[480, 1020, false, true, false, ` + emptyDetail + `]`,
			want: day.Record{Start: 480, End: 1020, LunchBreak: true, HomeOffice: false},
		},
		{
			name: "seven fields keeps ZA only on vacation days",
			day:  `[0, 0, false, true, false, ` + emptyDetail + `, true]`,
			want: day.Record{LunchBreak: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, dir := setupRepositoryTest(t)
			writeMonthFile(t, dir, "October 2026", `{"MonthAndYear": "October 2026", "0": `+tt.day+`}`)

			ledger, err := repo.Load(context.Background(), 2026, time.October)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ledger.Days[0])
			assert.Equal(t, day.FreshRecord(), ledger.Days[1], "days missing from the file keep the fresh default")
		})
	}
}

func TestFileRepository_LegacyThreeFieldsMatchesNewRecordDefaults(t *testing.T) {
	repo, dir := setupRepositoryTest(t)
	writeMonthFile(t, dir, "October 2026", `{"MonthAndYear": "October 2026", "0": [480, 1020, false]}`)

	ledger, err := repo.Load(context.Background(), 2026, time.October)
	require.NoError(t, err)

	want := day.NewRecord()
	want.Start = timeofday.New(8, 0)
	want.End = timeofday.New(17, 0)
	assert.Equal(t, want, ledger.Days[0])
}

func TestFileRepository_MissingFile(t *testing.T) {
	repo, dir := setupRepositoryTest(t)

	ledger, err := repo.Load(context.Background(), 2026, time.October)

	require.NoError(t, err)
	assert.Equal(t, NewMonthLedger(2026, time.October), ledger)
	_, statErr := os.Stat(filepath.Join(dir, "October 2026.json.bak"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileRepository_Backup(t *testing.T) {
	t.Run("backup holds the content from before the session", func(t *testing.T) {
		repo, dir := setupRepositoryTest(t)
		original := `{"MonthAndYear": "October 2026", "0": [480, 1020, false]}`
		path := writeMonthFile(t, dir, "October 2026", original)

		ledger, err := repo.Load(context.Background(), 2026, time.October)
		require.NoError(t, err)
		ledger.Days[0].End = 1080
		require.NoError(t, repo.Save(context.Background(), ledger))
		ledger.Days[0].End = 1100
		require.NoError(t, repo.Save(context.Background(), ledger))
		_, err = repo.Load(context.Background(), 2026, time.October)
		require.NoError(t, err)

		backup, err := os.ReadFile(path + ".bak")
		require.NoError(t, err)
		assert.Equal(t, original, string(backup))
	})

	t.Run("saving over a file that was never loaded backs it up", func(t *testing.T) {
		repo, dir := setupRepositoryTest(t)
		original := `{"MonthAndYear": "October 2026"}`
		path := writeMonthFile(t, dir, "October 2026", original)

		require.NoError(t, repo.Save(context.Background(), NewMonthLedger(2026, time.October)))

		backup, err := os.ReadFile(path + ".bak")
		require.NoError(t, err)
		assert.Equal(t, original, string(backup))
	})
}

func TestFileRepository_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"MonthAndYear": `},
		{"day is not an array", `{"0": "08:00"}`},
		{"too few fields", `{"0": [480, 1020]}`},
		{"unknown activity", `{"0": [0, 0, false, true, true, [420, 480, [[420, 480, 9]]], false]}`},
		{"too many intervals", `{"0": [0, 0, false, true, true, [0, 0, [[0,0],[0,0],[0,0],[0,0],[0,0],[0,0],[0,0],[0,0],[0,0],[0,0],[0,0]]], false]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, dir := setupRepositoryTest(t)
			path := writeMonthFile(t, dir, "October 2026", tt.content)

			ledger, err := repo.Load(context.Background(), 2026, time.October)

			assert.ErrorIs(t, err, ErrConfigLoad)
			assert.ErrorIs(t, err, config.ErrConfigLoad)
			assert.Equal(t, NewMonthLedger(2026, time.October), ledger)
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "corrupt file is moved aside")
			quarantined, readErr := os.ReadFile(path + ".corrupt")
			require.NoError(t, readErr)
			assert.Equal(t, tt.content, string(quarantined))
		})
	}
}

func TestFileRepository_SaveRejectsWrongDayCount(t *testing.T) {
	repo, _ := setupRepositoryTest(t)
	ledger := NewMonthLedger(2026, time.October)
	ledger.Days = ledger.Days[:28]

	assert.Error(t, repo.Save(context.Background(), ledger))
}
