package month_ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/timeofday"
	log "github.com/sirupsen/logrus"
)

// ScheduleSource is the part of the settings service the ledger needs.
type ScheduleSource interface {
	Current() schedule.WeekSchedule
}

type Service interface {
	// Current returns the month that is being edited.
	Current() (year int, month time.Month)
	// SwitchMonth saves the active month and loads another one. A month file that could
	// not be read is reported in the returned error while the switch still happens.
	SwitchMonth(ctx context.Context, year int, month time.Month) error
	// UpdateDay applies fn to the record of the given day and saves the month.
	UpdateDay(ctx context.Context, index int, fn func(r *day.Record) error) (day.Record, error)
	StartDay(ctx context.Context) (day.Record, error)
	EndDay(ctx context.Context) (day.Record, error)
	StampDay(ctx context.Context, index int) (day.Record, error)
	ApplyDetail(ctx context.Context, index int, intervals [day.DetailSlots]day.Interval) (day.Record, error)
	// EditDay replaces the detail when one is given and then applies fn. Both changes are
	// saved together or not at all.
	EditDay(ctx context.Context, index int, detail *[day.DetailSlots]day.Interval, fn func(r *day.Record) error) (day.Record, error)
	ClearDetail(ctx context.Context, index int) (day.Record, error)
	Summary() Summary
	Save(ctx context.Context) error
	Dirty() bool
	// Snapshot is a deep copy of the active month that is safe to hand to other goroutines.
	Snapshot() MonthLedger
}

type ServiceImpl struct {
	mu        sync.Mutex
	repo      Repository
	schedules ScheduleSource
	clock     utils.Clock
	eventBus  *event_bus.EventBus
	ledger    MonthLedger
	dirty     bool
}

// NewService loads the current month. The returned error is only ever ErrConfigLoad,
// the service is usable either way.
func NewService(ctx context.Context, repo Repository, schedules ScheduleSource, clock utils.Clock, eventBus *event_bus.EventBus) (*ServiceImpl, error) {
	now := clock.Now()
	ledger, err := repo.Load(ctx, now.Year(), now.Month())
	s := &ServiceImpl{
		repo:      repo,
		schedules: schedules,
		clock:     clock,
		eventBus:  eventBus,
		ledger:    ledger,
	}
	return s, err
}

func (s *ServiceImpl) Current() (int, time.Month) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Year, s.ledger.Month
}

func (s *ServiceImpl) SwitchMonth(ctx context.Context, year int, month time.Month) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchMonth(ctx, year, month)
}

func (s *ServiceImpl) switchMonth(ctx context.Context, year int, month time.Month) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("invalid month %d", month)
	}
	if s.ledger.Year == year && s.ledger.Month == month {
		return nil
	}
	if err := s.save(ctx); err != nil {
		return fmt.Errorf("month was not switched: %w", err)
	}

	from := s.ledger
	ledger, loadErr := s.repo.Load(ctx, year, month)
	s.ledger = ledger
	log.Infof("Switched from %s to %s", from.Label(), ledger.Label())

	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.MonthSwitched, event_bus.MonthSwitchedEvent{
		FromYear:  from.Year,
		FromMonth: from.Month,
		ToYear:    year,
		ToMonth:   month,
	}))
	if err != nil {
		log.Errorf("failed to publish month switched event: %v", err)
	}
	return loadErr
}

func (s *ServiceImpl) UpdateDay(ctx context.Context, index int, fn func(r *day.Record) error) (day.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, index, fn)
}

func (s *ServiceImpl) update(ctx context.Context, index int, fn func(r *day.Record) error) (day.Record, error) {
	record, err := s.ledger.Day(index)
	if err != nil {
		return day.Record{}, err
	}
	if err := fn(&record); err != nil {
		return day.Record{}, err
	}
	if err := s.ledger.SetDay(index, record); err != nil {
		return day.Record{}, err
	}
	s.dirty = true
	return record, s.save(ctx)
}

// StartDay moves to today's month and writes the current minute into today's start time.
func (s *ServiceImpl) StartDay(ctx context.Context) (day.Record, error) {
	return s.today(ctx, func(r *day.Record, now timeofday.TimeOfDay) error {
		return r.SetStart(now)
	})
}

// EndDay moves to today's month and writes the current minute into today's end time.
func (s *ServiceImpl) EndDay(ctx context.Context) (day.Record, error) {
	return s.today(ctx, func(r *day.Record, now timeofday.TimeOfDay) error {
		return r.SetEnd(now)
	})
}

func (s *ServiceImpl) today(ctx context.Context, fn func(r *day.Record, now timeofday.TimeOfDay) error) (day.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if err := s.switchMonth(ctx, now.Year(), now.Month()); err != nil && !errors.Is(err, ErrConfigLoad) {
		return day.Record{}, err
	}
	return s.update(ctx, now.Day()-1, func(r *day.Record) error {
		return fn(r, timeofday.FromTime(now))
	})
}

// StampDay fills the start time of the day if it is empty, otherwise its end time.
func (s *ServiceImpl) StampDay(ctx context.Context, index int) (day.Record, error) {
	now := timeofday.FromTime(s.clock.Now())
	return s.UpdateDay(ctx, index, func(r *day.Record) error {
		return r.Stamp(now)
	})
}

func (s *ServiceImpl) ApplyDetail(ctx context.Context, index int, intervals [day.DetailSlots]day.Interval) (day.Record, error) {
	return s.EditDay(ctx, index, &intervals, nil)
}

func (s *ServiceImpl) EditDay(ctx context.Context, index int, detail *[day.DetailSlots]day.Interval, fn func(r *day.Record) error) (day.Record, error) {
	policy := s.schedules.Current().Office
	return s.UpdateDay(ctx, index, func(r *day.Record) error {
		if detail != nil {
			if err := r.ApplyDetail(*detail, policy); err != nil {
				return err
			}
		}
		if fn == nil {
			return nil
		}
		return fn(r)
	})
}

func (s *ServiceImpl) ClearDetail(ctx context.Context, index int) (day.Record, error) {
	return s.UpdateDay(ctx, index, func(r *day.Record) error {
		r.ClearDetail()
		return nil
	})
}

func (s *ServiceImpl) Summary() Summary {
	s.mu.Lock()
	ledger := s.ledger.Clone()
	s.mu.Unlock()
	return ledger.Summarize(s.schedules.Current(), s.clock.Now())
}

func (s *ServiceImpl) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

// save writes the active month. On failure the month stays dirty so the next save retries.
func (s *ServiceImpl) save(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.ledger); err != nil {
		s.dirty = true
		return err
	}
	s.dirty = false

	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.LedgerSaved, event_bus.LedgerSavedEvent{
		Year:  s.ledger.Year,
		Month: s.ledger.Month,
		Path:  s.repo.Location(s.ledger.Year, s.ledger.Month),
	}))
	if err != nil {
		log.Errorf("failed to publish ledger saved event: %v", err)
	}
	return nil
}

func (s *ServiceImpl) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *ServiceImpl) Snapshot() MonthLedger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone()
}
