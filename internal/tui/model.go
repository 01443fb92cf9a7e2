package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/klokku/flextime/internal/utils"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/month_ledger"
	"github.com/klokku/flextime/pkg/schedule"
	"github.com/klokku/flextime/pkg/timeofday"
	"github.com/klokku/flextime/pkg/work_package"
	"github.com/klokku/flextime/pkg/worklog"
	log "github.com/sirupsen/logrus"
)

const tickInterval = time.Second

type TickMsg time.Time

type worklogDoneMsg struct {
	result worklog.Result
}

type focus int

const (
	focusMonth focus = iota
	focusPackages
)

type inputMode int

const (
	inputNone inputMode = iota
	inputTimes
	inputPackageName
	inputPackageTicket
	inputConfirmRemove
	inputDetail
)

// Options wires the model to the application services.
type Options struct {
	Month    month_ledger.Service
	Packages work_package.Service
	Worklogs worklog.Service
	// Schedules decides how +/- step a time. Without it minutes wrap inside the hour.
	Schedules     month_ledger.ScheduleSource
	Clock         utils.Clock
	AutosaveTicks int
	// Shutdown runs the final saves when the user quits.
	Shutdown func(ctx context.Context) error
	Warnings []error
}

type Model struct {
	opts Options
	ctx  context.Context

	ticks       int
	focus       focus
	selectedDay int
	selectedWP  int

	input       inputMode
	inputValue  string
	pendingName string

	detail    [day.DetailSlots]day.Interval
	detailRow int
	detailCol int

	inFlight *worklog.Submission

	status    string
	statusErr bool
	exitErr   error
	quitting  bool
	width     int
}

func NewModel(ctx context.Context, opts Options) *Model {
	if opts.AutosaveTicks <= 0 {
		opts.AutosaveTicks = 60
	}
	m := &Model{opts: opts, ctx: ctx}
	m.selectedDay = m.todayIndex()
	if len(opts.Warnings) > 0 {
		m.setError(errors.Join(opts.Warnings...))
	}
	return m
}

// ExitError is the result of the final saves, nil until the model quit.
func (m *Model) ExitError() error {
	return m.exitErr
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		return m, m.onTick()
	case worklogDoneMsg:
		m.onWorklogDone(msg.result)
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.input == inputDetail {
			return m, m.handleDetailKey(msg)
		}
		if m.input != inputNone {
			return m, m.handleInput(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) onTick() tea.Cmd {
	m.ticks++
	if m.ticks%m.opts.AutosaveTicks == 0 {
		if err := m.opts.Packages.Save(m.ctx); err != nil {
			m.setError(fmt.Errorf("autosave failed: %w", err))
		} else if m.opts.Month.Dirty() {
			if err := m.opts.Month.Save(m.ctx); err != nil {
				m.setError(fmt.Errorf("autosave failed: %w", err))
			}
		}
	}
	return tick()
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	if m.inFlight != nil {
		m.inFlight.Cancel()
		m.onWorklogDone(m.inFlight.Wait())
	}
	if m.opts.Shutdown != nil {
		m.exitErr = m.opts.Shutdown(m.ctx)
	}
	return tea.Quit
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "esc":
		if m.inFlight != nil {
			m.inFlight.Cancel()
			m.setStatus("Cancelling worklog")
		}
		return nil
	case "tab":
		if m.focus == focusMonth {
			m.focus = focusPackages
		} else {
			m.focus = focusMonth
		}
		return nil
	}
	if m.focus == focusPackages {
		return m.handlePackageKey(msg)
	}
	return m.handleMonthKey(msg)
}

func (m *Model) handleMonthKey(msg tea.KeyMsg) tea.Cmd {
	days := month_ledger.DaysIn(m.opts.Month.Current())
	switch msg.String() {
	case "up", "k":
		if m.selectedDay > 0 {
			m.selectedDay--
		}
	case "down", "j":
		if m.selectedDay < days-1 {
			m.selectedDay++
		}
	case "left", "h":
		m.shiftMonth(-1)
	case "right", "l":
		m.shiftMonth(1)
	case "T":
		now := m.opts.Clock.Now()
		m.switchMonth(now.Year(), now.Month())
		m.selectedDay = m.todayIndex()
	case "s", "enter":
		m.editDay(func() (day.Record, error) { return m.opts.Month.StampDay(m.ctx, m.selectedDay) })
	case "v":
		m.toggleDay(func(r *day.Record) { r.SetVacation(!r.Vacation) })
	case "z":
		m.toggleDay(func(r *day.Record) { r.SetZA(!r.ZA) })
	case "b":
		m.toggleDay(func(r *day.Record) { r.LunchBreak = !r.LunchBreak })
	case "o":
		m.toggleDay(func(r *day.Record) { r.HomeOffice = !r.HomeOffice })
	case "e":
		m.input = inputTimes
		m.inputValue = ""
	case "c":
		m.editDay(func() (day.Record, error) { return m.opts.Month.ClearDetail(m.ctx, m.selectedDay) })
	case "D":
		m.openDetail()
	case "+", "=":
		m.stepTime(1)
	case "-":
		m.stepTime(-1)
	}
	return nil
}

// stepTime moves the selected day's end by delta minutes, or its start while no end is set.
func (m *Model) stepTime(delta int) {
	hourWrap := m.selectedSchedule().HourWrap
	m.editDay(func() (day.Record, error) {
		return m.opts.Month.UpdateDay(m.ctx, m.selectedDay, func(r *day.Record) error {
			switch {
			case !r.End.IsUnset():
				return r.SetEnd(timeofday.Step(r.End, delta, hourWrap))
			case !r.Start.IsUnset():
				return r.SetStart(timeofday.Step(r.Start, delta, hourWrap))
			default:
				return fmt.Errorf("%w: enter a start time first", timeofday.ErrInvalidTime)
			}
		})
	})
}

func (m *Model) selectedSchedule() schedule.DaySchedule {
	if m.opts.Schedules == nil {
		return schedule.DaySchedule{}
	}
	year, month := m.opts.Month.Current()
	return m.opts.Schedules.Current().ForDate(time.Date(year, month, m.selectedDay+1, 0, 0, 0, 0, time.UTC))
}

func (m *Model) handlePackageKey(msg tea.KeyMsg) tea.Cmd {
	packages := m.opts.Packages.List()
	selected := ""
	if m.selectedWP >= 0 && m.selectedWP < len(packages) {
		selected = packages[m.selectedWP].Name
	}
	switch msg.String() {
	case "up", "k":
		if m.selectedWP > 0 {
			m.selectedWP--
		}
	case "down", "j":
		if m.selectedWP < len(packages)-1 {
			m.selectedWP++
		}
	case "n":
		m.input = inputPackageName
		m.inputValue = ""
	case "enter", " ":
		if selected == "" {
			return nil
		}
		active, err := m.opts.Packages.Toggle(m.ctx, selected)
		if err != nil {
			m.setError(err)
		} else if active {
			m.setStatus("Started " + selected)
		} else {
			m.setStatus("Stopped " + selected)
		}
	case "S":
		if err := m.opts.Packages.StopAll(m.ctx); err != nil {
			m.setError(err)
		}
	case "r":
		if selected == "" {
			return nil
		}
		if err := m.opts.Packages.Reset(m.ctx, selected); err != nil {
			m.setError(err)
		}
	case "d":
		if selected == "" {
			return nil
		}
		return m.remove(selected, false)
	case "w":
		if selected == "" {
			return nil
		}
		return m.submitWorklog(selected)
	}
	return nil
}

func (m *Model) handleInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.input = inputNone
		m.inputValue = ""
		return nil
	case "backspace":
		if len(m.inputValue) > 0 {
			runes := []rune(m.inputValue)
			m.inputValue = string(runes[:len(runes)-1])
		}
		return nil
	case "enter":
		return m.submitInput()
	}
	if m.input == inputConfirmRemove {
		if msg.String() == "y" {
			m.input = inputNone
			return m.remove(m.pendingName, true)
		}
		m.input = inputNone
		return nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.inputValue += string(msg.Runes)
	}
	return nil
}

func (m *Model) submitInput() tea.Cmd {
	value := strings.TrimSpace(m.inputValue)
	mode := m.input
	m.input = inputNone
	m.inputValue = ""

	switch mode {
	case inputTimes:
		m.setTimes(value)
	case inputPackageName:
		if value == "" {
			return nil
		}
		m.pendingName = value
		m.input = inputPackageTicket
	case inputPackageTicket:
		view, err := m.opts.Packages.Create(m.ctx, m.pendingName, value, false)
		if err != nil {
			m.setError(err)
			return nil
		}
		m.setStatus("Created " + view.Name)
		m.selectedWP = len(m.opts.Packages.List()) - 1
	case inputConfirmRemove:
		return m.remove(m.pendingName, true)
	}
	return nil
}

// setTimes parses "HH:MM HH:MM"; either part may be "-" to clear it.
func (m *Model) setTimes(value string) {
	parts := strings.Fields(value)
	if len(parts) == 0 || len(parts) > 2 {
		m.setError(fmt.Errorf("%w: enter start and end as HH:MM HH:MM", timeofday.ErrInvalidTime))
		return
	}
	parse := func(s string) (timeofday.TimeOfDay, error) {
		if s == "-" {
			return timeofday.Unset, nil
		}
		return timeofday.Parse(s)
	}
	start, err := parse(parts[0])
	if err != nil {
		m.setError(err)
		return
	}
	m.editDay(func() (day.Record, error) {
		return m.opts.Month.UpdateDay(m.ctx, m.selectedDay, func(r *day.Record) error {
			if err := r.SetStart(start); err != nil {
				return err
			}
			if len(parts) < 2 {
				return nil
			}
			end, err := parse(parts[1])
			if err != nil {
				return err
			}
			return r.SetEnd(end)
		})
	})
}

func (m *Model) remove(name string, confirmed bool) tea.Cmd {
	err := m.opts.Packages.Remove(m.ctx, name, confirmed)
	switch {
	case errors.Is(err, work_package.ErrConfirmationRequired):
		m.pendingName = name
		m.input = inputConfirmRemove
		m.inputValue = ""
	case err != nil:
		m.setError(err)
	default:
		m.setStatus("Removed " + name)
		if m.selectedWP > 0 && m.selectedWP >= len(m.opts.Packages.List()) {
			m.selectedWP--
		}
	}
	return nil
}

func (m *Model) submitWorklog(name string) tea.Cmd {
	if m.inFlight != nil {
		m.setError(errors.New("a worklog is already being sent"))
		return nil
	}
	submission, err := m.opts.Worklogs.SubmitWorkPackage(m.ctx, name)
	if err != nil {
		m.setError(err)
		return nil
	}
	m.inFlight = submission
	m.setStatus(fmt.Sprintf("Sending %s to %s, esc to cancel", timeofday.FormatClock(float64(submission.Request.Seconds)), submission.Request.Ticket))
	return func() tea.Msg {
		return worklogDoneMsg{result: <-submission.Done()}
	}
}

func (m *Model) onWorklogDone(result worklog.Result) {
	if m.inFlight == nil || m.inFlight.Id != result.Id {
		return
	}
	m.inFlight = nil
	if err := m.opts.Worklogs.Apply(m.ctx, result); err != nil {
		m.setError(fmt.Errorf("worklog for %s sent but not booked: %w", result.Request.Ticket, err))
		return
	}
	switch {
	case result.Err == nil:
		m.setStatus(fmt.Sprintf("Logged %s on %s", timeofday.FormatClock(float64(result.Request.Seconds)), result.Request.Ticket))
	case errors.Is(result.Err, context.Canceled):
		m.setStatus("Worklog cancelled")
	default:
		m.setError(fmt.Errorf("worklog for %s failed: %w", result.Request.Ticket, result.Err))
	}
}

func (m *Model) shiftMonth(delta int) {
	year, month := m.opts.Month.Current()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	m.switchMonth(first.Year(), first.Month())
}

func (m *Model) switchMonth(year int, month time.Month) {
	if err := m.opts.Month.SwitchMonth(m.ctx, year, month); err != nil {
		m.setError(err)
	}
	if days := month_ledger.DaysIn(m.opts.Month.Current()); m.selectedDay >= days {
		m.selectedDay = days - 1
	}
}

func (m *Model) toggleDay(fn func(r *day.Record)) {
	m.editDay(func() (day.Record, error) {
		return m.opts.Month.UpdateDay(m.ctx, m.selectedDay, func(r *day.Record) error {
			fn(r)
			return nil
		})
	})
}

func (m *Model) editDay(fn func() (day.Record, error)) {
	if _, err := fn(); err != nil {
		m.setError(err)
		return
	}
	m.status = ""
	m.statusErr = false
}

func (m *Model) todayIndex() int {
	now := m.opts.Clock.Now()
	year, month := m.opts.Month.Current()
	if now.Year() == year && now.Month() == month {
		return now.Day() - 1
	}
	return 0
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusErr = false
}

func (m *Model) setError(err error) {
	log.Warn(err)
	m.status = err.Error()
	m.statusErr = true
}
