package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/types"
)

var editCmd = &cobra.Command{
	Use:   "edit <id> <phase>/<task>/<entry>",
	Short: "Change a schedule entry's content, time slot, type or duration",
	Long: `Change one schedule entry. The date cannot be changed. The edited
entry is checked as a whole and nothing is saved if any field is invalid.

Example:
  $ goalcal edit 3f2a 0/1/2 --slot 20:00-21:30 --duration 90`,
	Args: cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseRef(args[1:])
		if err != nil {
			return err
		}

		var edit types.ScheduleEdit
		if cmd.Flags().Changed("content") {
			v, _ := cmd.Flags().GetString("content")
			edit.Content = &v
		}
		if cmd.Flags().Changed("slot") {
			v, _ := cmd.Flags().GetString("slot")
			edit.TimeSlot = &v
		}
		if cmd.Flags().Changed("type") {
			v, _ := cmd.Flags().GetString("type")
			st := types.ScheduleType(v)
			edit.Type = &st
		}
		if cmd.Flags().Changed("duration") {
			v, _ := cmd.Flags().GetInt("duration")
			edit.Duration = &v
		}
		if edit.IsEmpty() {
			return fmt.Errorf("nothing to change: pass --content, --slot, --type or --duration")
		}

		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		updated, err := store.Update(cmd.Context(), plan.GoalID, func(p *types.GoalPlan) error {
			return p.EditSchedule(ref, edit)
		})
		if err != nil {
			return err
		}

		entry, _ := updated.Locate(ref)
		fmt.Printf("%s Updated %s: %s %s [%s] %s (%d分钟)\n", green("✓"), ref,
			entry.Date, entry.TimeSlot, entry.Type.Label(), entry.Content, entry.Duration)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id> <phase>/<task>/<entry>",
	Short: "Mark a schedule entry as done (or not done with --undo)",
	Args:  cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseRef(args[1:])
		if err != nil {
			return err
		}
		undo, _ := cmd.Flags().GetBool("undo")

		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		updated, err := store.Update(cmd.Context(), plan.GoalID, func(p *types.GoalPlan) error {
			return p.SetCompleted(ref, !undo)
		})
		if err != nil {
			return err
		}

		entry, _ := updated.Locate(ref)
		fmt.Printf("%s %s %s %s\n", checkMark(entry.Completed), ref, entry.Date, entry.Content)
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <id> <0-100>",
	Short: "Set a plan's overall progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("progress must be a number between 0 and 100")
		}

		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		updated, err := store.Update(cmd.Context(), plan.GoalID, func(p *types.GoalPlan) error {
			p.SetProgress(n)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %d%%\n", green("✓"), updated.GoalTitle, updated.OverallProgress)
		return nil
	},
}

func init() {
	editCmd.Flags().String("content", "", "New content")
	editCmd.Flags().String("slot", "", "New time slot, HH:MM-HH:MM")
	editCmd.Flags().String("type", "", "New type: study, practice, review, project or milestone")
	editCmd.Flags().Int("duration", 0, "New duration in minutes")
	doneCmd.Flags().Bool("undo", false, "Mark as not done")
	rootCmd.AddCommand(editCmd, doneCmd, progressCmd)
}
