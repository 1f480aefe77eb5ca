package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const displayTimeLayout = "Jan 2, 2006 3:04 PM"

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	doneStyle      = cellStyle.Foreground(lipgloss.Color("240")).Strikethrough(true)
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	highStyle      = cellStyle.Foreground(lipgloss.Color("203"))
	lowStyle       = cellStyle.Foreground(lipgloss.Color("114"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	appliedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	rejectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	secondaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// renderTasks draws tasks as a table
func renderTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			done,
			t.Text,
			string(t.EffectivePriority()),
			t.Category,
			formatTimestamp(t.DueDate),
			formatTimestamp(t.ReminderTime),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "Done", "Task", "Priority", "Category", "Due", "Reminder").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			t := tasks[row]
			switch {
			case t.Completed:
				return doneStyle
			case col == 3 && t.EffectivePriority() == models.PriorityHigh:
				return highStyle
			case col == 3 && t.EffectivePriority() == models.PriorityLow:
				return lowStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, tbl.String())
}

func formatTimestamp(ts *models.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Local().Format(displayTimeLayout)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
