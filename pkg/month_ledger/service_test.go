package month_ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/timeofday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSchedule struct {
	week schedule.WeekSchedule
}

func (s staticSchedule) Current() schedule.WeekSchedule {
	return s.week
}

var ctx = context.Background()

func setupServiceTest(t *testing.T) (*ServiceImpl, *RepositoryStub, *utils.MockClock, *event_bus.EventBus, func()) {
	repo := NewRepositoryStub()
	clock := &utils.MockClock{}
	clock.SetNow(time.Date(2026, 10, 19, 8, 3, 0, 0, location))
	eventBus := event_bus.NewEventBus()

	service, err := NewService(ctx, repo, staticSchedule{week: defaultWeek}, clock, eventBus)
	require.NoError(t, err)

	return service, repo, clock, eventBus, func() {
		repo.Cleanup()
	}
}

func TestService_Current(t *testing.T) {
	service, _, _, _, teardown := setupServiceTest(t)
	defer teardown()

	year, month := service.Current()
	assert.Equal(t, 2026, year)
	assert.Equal(t, time.October, month)
	assert.False(t, service.Dirty())
}

func TestService_StampDay(t *testing.T) {
	t.Run("stamps start then end and saves each time", func(t *testing.T) {
		service, repo, clock, _, teardown := setupServiceTest(t)
		defer teardown()

		// when
		record, err := service.StampDay(ctx, 18)
		require.NoError(t, err)
		assert.Equal(t, timeofday.New(8, 3), record.Start)

		clock.Advance(8*time.Hour + 45*time.Minute)
		record, err = service.StampDay(ctx, 18)
		require.NoError(t, err)

		// then
		assert.Equal(t, timeofday.New(16, 48), record.End)
		assert.Equal(t, 2, repo.SaveCount())
		stored, ok := repo.Stored(2026, time.October)
		require.True(t, ok)
		assert.Equal(t, record, stored.Days[18])
	})

	t.Run("day outside of the month", func(t *testing.T) {
		service, repo, _, _, teardown := setupServiceTest(t)
		defer teardown()

		_, err := service.StampDay(ctx, 31)
		assert.ErrorIs(t, err, ErrDayOutOfRange)
		assert.Equal(t, 0, repo.SaveCount())
	})
}

func TestService_StartAndEndDay(t *testing.T) {
	t.Run("switches to today's month first", func(t *testing.T) {
		service, repo, _, _, teardown := setupServiceTest(t)
		defer teardown()
		require.NoError(t, service.SwitchMonth(ctx, 2026, time.September))

		record, err := service.StartDay(ctx)
		require.NoError(t, err)

		year, month := service.Current()
		assert.Equal(t, 2026, year)
		assert.Equal(t, time.October, month)
		assert.Equal(t, timeofday.New(8, 3), record.Start)
		_, septemberSaved := repo.Stored(2026, time.September)
		assert.True(t, septemberSaved)
	})

	t.Run("end day overwrites the end time", func(t *testing.T) {
		service, _, clock, _, teardown := setupServiceTest(t)
		defer teardown()
		_, err := service.StartDay(ctx)
		require.NoError(t, err)

		clock.Advance(9 * time.Hour)
		_, err = service.EndDay(ctx)
		require.NoError(t, err)
		clock.Advance(10 * time.Minute)
		record, err := service.EndDay(ctx)
		require.NoError(t, err)

		assert.Equal(t, timeofday.New(8, 3), record.Start)
		assert.Equal(t, timeofday.New(17, 13), record.End)
	})

	t.Run("ZA day rejects the start time", func(t *testing.T) {
		service, _, _, _, teardown := setupServiceTest(t)
		defer teardown()
		_, err := service.UpdateDay(ctx, 18, func(r *day.Record) error {
			r.SetZA(true)
			return nil
		})
		require.NoError(t, err)

		_, err = service.StartDay(ctx)
		assert.ErrorIs(t, err, day.ErrNotEditable)
	})
}

func TestService_SwitchMonth(t *testing.T) {
	t.Run("saves the old month and announces the switch", func(t *testing.T) {
		service, repo, _, eventBus, teardown := setupServiceTest(t)
		defer teardown()

		var switched []event_bus.MonthSwitchedEvent
		event_bus.SubscribeTyped(eventBus, event_bus.MonthSwitched, func(e event_bus.EventT[event_bus.MonthSwitchedEvent]) error {
			switched = append(switched, e.Data)
			return nil
		})

		require.NoError(t, service.SwitchMonth(ctx, 2026, time.November))

		_, octoberSaved := repo.Stored(2026, time.October)
		assert.True(t, octoberSaved)
		require.Len(t, switched, 1)
		assert.Equal(t, time.October, switched[0].FromMonth)
		assert.Equal(t, time.November, switched[0].ToMonth)
		assert.Len(t, service.Snapshot().Days, 30)
	})

	t.Run("unreadable month still switches", func(t *testing.T) {
		service, repo, _, _, teardown := setupServiceTest(t)
		defer teardown()
		repo.SetLoadError(ErrConfigLoad)

		err := service.SwitchMonth(ctx, 2026, time.November)

		assert.ErrorIs(t, err, ErrConfigLoad)
		_, month := service.Current()
		assert.Equal(t, time.November, month)
	})

	t.Run("failed save keeps the old month", func(t *testing.T) {
		service, repo, _, _, teardown := setupServiceTest(t)
		defer teardown()
		repo.SetSaveError(errors.New("disk full"))

		err := service.SwitchMonth(ctx, 2026, time.November)

		assert.Error(t, err)
		_, month := service.Current()
		assert.Equal(t, time.October, month)
	})

	t.Run("invalid month", func(t *testing.T) {
		service, _, _, _, teardown := setupServiceTest(t)
		defer teardown()
		assert.Error(t, service.SwitchMonth(ctx, 2026, time.Month(13)))
	})
}

func TestService_SaveFailure(t *testing.T) {
	service, repo, _, eventBus, teardown := setupServiceTest(t)
	defer teardown()

	saved := 0
	event_bus.SubscribeTyped(eventBus, event_bus.LedgerSaved, func(e event_bus.EventT[event_bus.LedgerSavedEvent]) error {
		saved++
		assert.Equal(t, "memory://October 2026", e.Data.Path)
		return nil
	})

	// given
	repo.SetSaveError(errors.New("disk full"))

	// when
	record, err := service.StampDay(ctx, 0)

	// then
	assert.Error(t, err)
	assert.Equal(t, timeofday.New(8, 3), record.Start, "the edit is kept in memory")
	assert.True(t, service.Dirty())
	assert.Equal(t, 0, saved)

	repo.SetSaveError(nil)
	require.NoError(t, service.Save(ctx))
	assert.False(t, service.Dirty())
	assert.Equal(t, 1, saved)
	stored, _ := repo.Stored(2026, time.October)
	assert.Equal(t, timeofday.New(8, 3), stored.Days[0].Start)
}

func TestService_ApplyDetail(t *testing.T) {
	service, _, _, _, teardown := setupServiceTest(t)
	defer teardown()

	var intervals [day.DetailSlots]day.Interval
	intervals[0] = day.Interval{Start: 480, End: 600, Activity: day.HomeOffice}

	record, err := service.ApplyDetail(ctx, 5, intervals)
	require.NoError(t, err)
	assert.True(t, record.IsLocked())
	assert.True(t, record.HomeOffice, "all home office is 0% office, within the default threshold")

	intervals[1] = day.Interval{Start: 600, End: 610, Activity: day.ActivityType(8)}
	_, err = service.ApplyDetail(ctx, 5, intervals)
	assert.ErrorIs(t, err, day.ErrInvalidDetail)

	record, err = service.ClearDetail(ctx, 5)
	require.NoError(t, err)
	assert.False(t, record.IsLocked())
}

func TestService_SummaryAndSnapshot(t *testing.T) {
	service, _, _, _, teardown := setupServiceTest(t)
	defer teardown()
	_, err := service.StartDay(ctx)
	require.NoError(t, err)

	summary := service.Summary()
	assert.Equal(t, Today, summary.Days[18].Status)
	assert.True(t, summary.Days[18].Result.ForecastApplied)

	snapshot := service.Snapshot()
	snapshot.Days[18].Start = 0
	again := service.Snapshot()
	assert.Equal(t, timeofday.New(8, 3), again.Days[18].Start)
}
