package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/timeofday"
)

// Columns of the detail editor.
const (
	detailStart = iota
	detailEnd
	detailActivity
	detailColumns
)

func (m *Model) openDetail() {
	ledger := m.opts.Month.Snapshot()
	if m.selectedDay < 0 || m.selectedDay >= len(ledger.Days) {
		return
	}
	m.detail = ledger.Days[m.selectedDay].Detail.Intervals
	m.detailRow = 0
	m.detailCol = detailStart
	m.input = inputDetail
	m.inputValue = ""
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.closeDetail()
		return nil
	case "up":
		if m.commitDetailValue() && m.detailRow > 0 {
			m.detailRow--
		}
		return nil
	case "down":
		if m.commitDetailValue() && m.detailRow < day.DetailSlots-1 {
			m.detailRow++
		}
		return nil
	case "tab", "right", "enter":
		if m.commitDetailValue() {
			m.moveDetail(1)
		}
		return nil
	case "shift+tab", "left":
		if m.commitDetailValue() {
			m.moveDetail(-1)
		}
		return nil
	case "backspace":
		if len(m.inputValue) > 0 {
			m.inputValue = m.inputValue[:len(m.inputValue)-1]
		}
		return nil
	case " ", "a":
		if m.detailCol == detailActivity {
			m.detail[m.detailRow].Activity = m.detail[m.detailRow].Activity.Next()
		}
		return nil
	}
	if m.detailCol != detailActivity && msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if (r >= '0' && r <= '9') || r == ':' || r == '-' {
				m.inputValue += string(r)
			}
		}
	}
	return nil
}

// moveDetail walks the cells row by row and stays inside the table.
func (m *Model) moveDetail(delta int) {
	cell := m.detailRow*detailColumns + m.detailCol + delta
	if cell < 0 || cell >= day.DetailSlots*detailColumns {
		return
	}
	m.detailRow = cell / detailColumns
	m.detailCol = cell % detailColumns
}

// commitDetailValue writes the typed time into the current cell. "-" clears the cell,
// an empty value keeps it. It reports false and keeps the text when it does not parse.
func (m *Model) commitDetailValue() bool {
	value := strings.TrimSpace(m.inputValue)
	if value == "" || m.detailCol == detailActivity {
		m.inputValue = ""
		return true
	}
	t := timeofday.Unset
	if value != "-" {
		parsed, err := timeofday.Parse(value)
		if err != nil {
			m.setError(err)
			return false
		}
		t = parsed
	}
	if m.detailCol == detailStart {
		m.detail[m.detailRow].Start = t
	} else {
		m.detail[m.detailRow].End = t
	}
	m.inputValue = ""
	return true
}

// closeDetail applies the edited breakdown. A rejected breakdown keeps the editor open.
func (m *Model) closeDetail() {
	if !m.commitDetailValue() {
		return
	}
	record, err := m.opts.Month.ApplyDetail(m.ctx, m.selectedDay, m.detail)
	if err != nil {
		m.setError(err)
		return
	}
	m.input = inputNone
	if record.IsLocked() {
		m.setStatus("Detail saved, day times follow the breakdown")
	} else {
		m.setStatus("Detail cleared")
	}
}

func (m *Model) detailView() string {
	var sb strings.Builder
	sb.WriteString(inputStyle.Render(fmt.Sprintf("Detail for day %d", m.selectedDay+1)))
	sb.WriteString("\n")
	sb.WriteString(inactiveStyle.Render(fmt.Sprintf("%3s  %-5s  %-5s  %s", "#", "Start", "End", "Activity")))
	sb.WriteString("\n")
	for i, interval := range m.detail {
		cells := [detailColumns]string{
			timeText(interval.Start),
			timeText(interval.End),
			interval.Activity.String(),
		}
		if i == m.detailRow {
			if m.inputValue != "" {
				cells[m.detailCol] = m.inputValue + "_"
			}
			cells[m.detailCol] = daySelectedStyle.Render(cells[m.detailCol])
		}
		sb.WriteString(fmt.Sprintf("%3d  %-5s  %-5s  %s\n", i+1, cells[detailStart], cells[detailEnd], cells[detailActivity]))
	}
	total := day.Detail{Intervals: m.detail}.Total()
	sb.WriteString(fmt.Sprintf("Total %s\n", timeofday.FormatDayTotal(total)))
	return sb.String()
}
