package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/calendar"
	"github.com/goalcal/goalcal/internal/types"
)

const cellWidth = 6

var (
	monthTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	weekdayStyle    = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center).Foreground(lipgloss.Color("241"))
	cellStyle       = lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	busyCellStyle   = cellStyle.Foreground(lipgloss.Color("220"))
	doneCellStyle   = cellStyle.Foreground(lipgloss.Color("46"))
	todayCellStyle  = cellStyle.Bold(true).Underline(true)
	legendStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	gridStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
)

var calendarCmd = &cobra.Command{
	Use:   "calendar <id>",
	Short: "Show a month grid of a plan's schedule",
	Long: `Show a month grid with the number of sessions on each day.
Days whose sessions are all done are green. Defaults to the month the
plan starts in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}

		month, _ := cmd.Flags().GetString("month")
		var anchor time.Time
		switch {
		case month != "":
			anchor, err = time.Parse("2006-01", month)
			if err != nil {
				return fmt.Errorf("invalid month %q, use YYYY-MM", month)
			}
		default:
			anchor, err = types.ParseDate(plan.StartDate)
			if err != nil {
				anchor = time.Now()
			}
		}

		grid := calendar.Month(anchor.Year(), anchor.Month(), calendar.IndexByDate(plan), time.Now())
		fmt.Fprintln(os.Stdout, plan.GoalTitle)
		fmt.Fprintln(os.Stdout, renderMonth(grid))
		return nil
	},
}

var dayCmd = &cobra.Command{
	Use:   "day <id> [date]",
	Short: "List the sessions scheduled on a date (default: today)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		date := time.Now().Format(types.DateLayout)
		if len(args) == 2 && args[1] != "today" {
			if _, err := types.ParseDate(args[1]); err != nil {
				return fmt.Errorf("invalid date %q, use YYYY-MM-DD", args[1])
			}
			date = args[1]
		}
		showDay(os.Stdout, plan, date)
		return nil
	},
}

func init() {
	calendarCmd.Flags().String("month", "", "Month to show, YYYY-MM")
	rootCmd.AddCommand(calendarCmd, dayCmd)
}

// renderMonth draws a Sunday-first grid. A day with sessions shows its
// count under the date.
func renderMonth(m calendar.CalendarMonth) string {
	header := make([]string, 0, len(calendar.Weekdays))
	for _, wd := range calendar.Weekdays {
		header = append(header, weekdayStyle.Render(wd))
	}

	rows := []string{
		monthTitleStyle.Render(fmt.Sprintf("%d年%d月", m.Year, int(m.Month))),
		lipgloss.JoinHorizontal(lipgloss.Top, header...),
	}
	for _, week := range m.Weeks {
		cells := make([]string, 0, len(week.Days))
		for _, d := range week.Days {
			cells = append(cells, renderDay(d))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	rows = append(rows, legendStyle.Render("n = sessions that day, * = today"))

	return gridStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderDay(d calendar.Day) string {
	if d.Blank {
		return cellStyle.Render("\n")
	}

	label := fmt.Sprintf("%d", d.Day)
	if d.IsToday {
		label += "*"
	}
	count := ""
	if d.HasEvents {
		count = fmt.Sprintf("%d", d.Entries)
	}
	text := label + "\n" + count

	switch {
	case d.IsToday:
		return todayCellStyle.Render(text)
	case d.HasEvents && d.Completed == d.Entries:
		return doneCellStyle.Render(text)
	case d.HasEvents:
		return busyCellStyle.Render(text)
	default:
		return cellStyle.Render(text)
	}
}

func showDay(w io.Writer, plan *types.GoalPlan, date string) {
	entries := calendar.IndexByDate(plan).EntriesOn(date)

	fmt.Fprintf(w, "\n%s\n", cyan(fmt.Sprintf("=== %s · %s ===", plan.GoalTitle, date)))
	if len(entries) == 0 {
		fmt.Fprintf(w, "  %s\n\n", gray("Nothing scheduled"))
		return
	}

	total := 0
	for _, e := range entries {
		total += e.Duration
		fmt.Fprintf(w, "  %s %-7s %s [%s] %s\n", checkMark(e.Completed), e.Ref, e.TimeSlot, e.Type.Label(), e.Content)
		fmt.Fprintf(w, "            %s\n", gray(strings.Join([]string{e.PhaseName, e.TaskTitle}, " / ")))
	}
	fmt.Fprintf(w, "\n  %d sessions, %d分钟\n\n", len(entries), total)
}
