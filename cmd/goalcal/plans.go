package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/calendar"
	"github.com/goalcal/goalcal/internal/prompt"
	"github.com/goalcal/goalcal/internal/storage"
	"github.com/goalcal/goalcal/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listPlans(cmd.Context(), os.Stdout, store)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a plan's phases, tasks and schedule",
	Long: `Show a plan in full. Each schedule entry is prefixed with its
<phase>/<task>/<entry> reference, used by 'edit' and 'done'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		showPlan(os.Stdout, plan)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		if !store.Delete(cmd.Context(), plan.GoalID) {
			return fmt.Errorf("failed to delete plan %s", plan.GoalID)
		}
		fmt.Printf("%s Deleted %s (%s)\n", green("✓"), plan.GoalTitle, shortID(plan.GoalID))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			rl, err := prompt.NewTerminal()
			if err != nil {
				return err
			}
			ok, err := prompt.NewWizard(rl, os.Stdout, nil).Confirm(fmt.Sprintf("Delete all %d saved plans?", len(store.List(cmd.Context()))))
			rl.Close()
			if err != nil || !ok {
				fmt.Println(gray("Cancelled"))
				return nil
			}
		}
		store.Clear(cmd.Context())
		fmt.Printf("%s Plan history cleared\n", green("✓"))
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolP("yes", "y", false, "Don't ask for confirmation")
	rootCmd.AddCommand(listCmd, showCmd, deleteCmd, clearCmd)
}

func listPlans(ctx context.Context, w io.Writer, s *storage.PlanStore) {
	plans := s.List(ctx)
	if len(plans) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No saved plans. Create one with 'goalcal new'."))
		return
	}

	fmt.Fprintf(w, "\n%s\n\n", cyan(fmt.Sprintf("=== Plans (%d/%d) ===", len(plans), s.Capacity())))
	for _, p := range plans {
		summary := calendar.Summarize(p)
		fmt.Fprintf(w, "  %s  %s\n", yellow(shortID(p.GoalID)), p.GoalTitle)
		fmt.Fprintf(w, "            %s → %s  progress %d%%  sessions %d/%d  created %s\n",
			p.StartDate, p.EndDate, p.OverallProgress,
			summary.CompletedEntries, summary.Entries,
			p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
}

func showPlan(w io.Writer, plan *types.GoalPlan) {
	summary := calendar.Summarize(plan)

	fmt.Fprintf(w, "\n%s\n", cyan("=== "+plan.GoalTitle+" ==="))
	fmt.Fprintf(w, "ID:        %s\n", plan.GoalID)
	fmt.Fprintf(w, "Period:    %s → %s (%s)\n", plan.StartDate, plan.EndDate, plan.TotalDuration)
	fmt.Fprintf(w, "Progress:  %d%%\n", plan.OverallProgress)
	fmt.Fprintf(w, "Completed: %d/%d sessions, %d/%d minutes\n",
		summary.CompletedEntries, summary.Entries, summary.CompletedMinutes, summary.Minutes)

	for p, phase := range plan.Phases {
		fmt.Fprintf(w, "\n%s %s %s\n", yellow(fmt.Sprintf("Phase %d:", p)), phase.PhaseName, gray(phase.Duration))
		for t, task := range phase.Tasks {
			fmt.Fprintf(w, "  %s (%gh)\n", task.Title, task.EstimatedHours)
			if task.Description != "" {
				fmt.Fprintf(w, "    %s\n", gray(task.Description))
			}
			for e, entry := range task.DailySchedule {
				ref := types.ScheduleRef{Phase: p, Task: t, Entry: e}
				fmt.Fprintf(w, "    %s %-7s %s %s [%s] %s %s\n",
					checkMark(entry.Completed), ref, entry.Date, entry.TimeSlot,
					entry.Type.Label(), entry.Content, gray(fmt.Sprintf("%d分钟", entry.Duration)))
			}
		}
	}

	if len(plan.Milestones) > 0 {
		fmt.Fprintf(w, "\n%s\n", yellow("Milestones:"))
		for _, m := range plan.Milestones {
			fmt.Fprintf(w, "  %s %s %s\n", checkMark(m.Completed), m.Date, m.Title)
			if m.Description != "" {
				fmt.Fprintf(w, "      %s\n", gray(m.Description))
			}
		}
	}
	fmt.Fprintln(w)
}
