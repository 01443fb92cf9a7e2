package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/klokku/flextime/pkg/month_ledger"
	"github.com/klokku/flextime/pkg/timeofday"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	dayStyle = lipgloss.NewStyle().
			Padding(0, 1)

	daySelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	forecastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	overtimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("170"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	summary := m.opts.Month.Summary()

	var sb strings.Builder
	sb.WriteString(m.headerView(summary))
	sb.WriteString("\n\n")

	monthBox, packageBox := boxStyle, boxStyle
	if m.focus == focusMonth {
		monthBox = focusedBoxStyle
	} else {
		packageBox = focusedBoxStyle
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		monthBox.Render(m.monthView(summary)),
		"  ",
		packageBox.Render(m.packagesView()),
	))
	sb.WriteString("\n")
	sb.WriteString(m.inputView())
	sb.WriteString(m.statusView())
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(m.help()))
	return sb.String()
}

func (m *Model) headerView(summary month_ledger.Summary) string {
	header := titleStyle.Render(summary.Label) + "   " + summary.TotalText + "   " + summary.BalanceText
	if summary.OnSiteText != "" {
		onSite := "On-site: " + summary.OnSiteText
		if summary.OnSiteBelowThreshold {
			onSite = alertStyle.Render(onSite + " below target")
		}
		header += "   " + onSite
	}
	return header
}

func (m *Model) monthView(summary month_ledger.Summary) string {
	var sb strings.Builder
	sb.WriteString(inactiveStyle.Render(fmt.Sprintf("%-10s %5s %5s %2s %2s %5s %6s", "Day", "Start", "End", "L", "HO", "Work", "Diff")))
	sb.WriteString("\n")
	for _, view := range summary.Days {
		line := dayLine(view)
		style := dayStyle
		switch {
		case view.Index == m.selectedDay && m.focus == focusMonth:
			style = daySelectedStyle
		case view.Result.Skipped:
			style = dayStyle.Foreground(inactiveStyle.GetForeground())
		case view.Status == month_ledger.Today:
			style = dayStyle.Inherit(todayStyle)
		}
		if view.Result.Overtime {
			line = overtimeStyle.Render(line)
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func dayLine(view month_ledger.DayView) string {
	date := view.Date.Format("Mon 02")
	if view.Result.Skipped {
		return fmt.Sprintf("%-10s", date)
	}
	if view.Result.Excluded {
		return fmt.Sprintf("%-10s %s", date, "vacation")
	}

	start := timeText(view.Result.EffectiveStart)
	end := timeText(view.Result.EffectiveEnd)
	if view.Result.ForecastApplied {
		end = forecastStyle.Render(end)
	}
	lunch, homeOffice := "", ""
	if view.Record.LunchBreak {
		lunch = "L"
	}
	if view.Record.HomeOffice {
		homeOffice = "HO"
	}
	if view.Record.ZA {
		date += " ZA"
	} else if view.Record.IsLocked() {
		date += " *"
	}
	return fmt.Sprintf("%-10s %5s %5s %2s %2s %5s %6s", date, start, end, lunch, homeOffice, view.Result.WorkedText, view.Result.DiffText)
}

func timeText(t timeofday.TimeOfDay) string {
	if t.IsUnset() {
		return "--:--"
	}
	return t.String()
}

func (m *Model) packagesView() string {
	var sb strings.Builder
	sb.WriteString("Work packages\n\n")
	packages := m.opts.Packages.List()
	if len(packages) == 0 {
		sb.WriteString(inactiveStyle.Render("None yet. Press tab, then 'n'."))
		return sb.String()
	}
	for i, view := range packages {
		line := view.Text
		if view.Ticket != "" {
			line += " [" + view.Ticket + "]"
		}
		if view.Active {
			line = runningStyle.Render(line + " ●")
		}
		if i == m.selectedWP && m.focus == focusPackages {
			line = daySelectedStyle.Render(line)
		} else {
			line = dayStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) inputView() string {
	prompt := ""
	switch m.input {
	case inputNone:
		return ""
	case inputTimes:
		prompt = "Start and end (HH:MM HH:MM, - clears): "
	case inputPackageName:
		prompt = "Name: "
	case inputPackageTicket:
		prompt = "Ticket for " + m.pendingName + ": "
	case inputConfirmRemove:
		return inputStyle.Render(fmt.Sprintf("Remove %s and its tracked time? (y/n)", m.pendingName)) + "\n"
	case inputDetail:
		return m.detailView()
	}
	return inputStyle.Render(prompt+m.inputValue+"_") + "\n"
}

func (m *Model) statusView() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.status) + "\n"
	}
	return m.status + "\n"
}

func (m *Model) help() string {
	if m.input == inputDetail {
		return "Row: Up/Down | Field: Tab/Left/Right | Time: HH:MM, - clears | Activity: space | Save and close: esc"
	}
	if m.focus == focusPackages {
		return "Toggle: Enter | New: n | Reset: r | Delete: d | Worklog: w | Stop all: S | Cancel worklog: esc | Month: tab | Quit: q"
	}
	return "Day: Up/Down | Month: Left/Right | Today: T | Stamp: s | Times: e | Step end/start: +/- | Detail: D | Vacation: v | ZA: z | Lunch: b | Home office: o | Clear detail: c | Packages: tab | Quit: q"
}
