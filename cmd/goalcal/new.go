package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/ai"
	"github.com/goalcal/goalcal/internal/prompt"
	"github.com/goalcal/goalcal/internal/types"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a plan for a new goal",
	Long: `Generate a plan for a new goal and save it to the plan history.

Without --goal on a terminal, each field is asked for interactively.
If the model cannot be reached or returns an unusable plan, a minimal
one-phase plan is saved instead and a warning is shown.

Example:
  $ goalcal new --goal "学习Go语言" --timeframe 3个月 --daily 2小时 --start 2024-01-15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := types.GoalInput{}
		input.Goal, _ = cmd.Flags().GetString("goal")
		input.Timeframe, _ = cmd.Flags().GetString("timeframe")
		input.StartDate, _ = cmd.Flags().GetString("start")
		input.DailyTimeAvailable, _ = cmd.Flags().GetString("daily")
		priority, _ := cmd.Flags().GetString("priority")
		input.Priority = types.Priority(priority)
		input.Description, _ = cmd.Flags().GetString("description")
		interactive, _ := cmd.Flags().GetBool("interactive")

		if interactive || (input.Goal == "" && isatty.IsTerminal(os.Stdin.Fd())) {
			rl, err := prompt.NewTerminal()
			if err != nil {
				return err
			}
			input, err = prompt.NewWizard(rl, os.Stdout, time.Now).GoalInput(input)
			rl.Close()
			if errors.Is(err, prompt.ErrAborted) {
				fmt.Println(gray("Cancelled"))
				return nil
			}
			if err != nil {
				return err
			}
		}

		if input.StartDate == "" {
			input.StartDate = time.Now().Format(types.DateLayout)
		}
		if input.Priority == "" {
			input.Priority = types.PriorityMedium
		}
		if err := input.Validate(); err != nil {
			return err
		}

		generator, err := newGenerator(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("%s Generating plan for %q...\n", cyan("→"), input.Goal)
		result := generator.Generate(cmd.Context(), input)
		store.Save(cmd.Context(), result.Plan)

		printResult(result)
		return nil
	},
}

func init() {
	newCmd.Flags().String("goal", "", "What you want to achieve")
	newCmd.Flags().String("timeframe", "", "How long you have, e.g. 3个月")
	newCmd.Flags().String("start", "", "Start date YYYY-MM-DD (default: today)")
	newCmd.Flags().String("daily", "", "Time available per day, e.g. 2小时 or 90分钟")
	newCmd.Flags().String("priority", "medium", "Priority: low, medium or high")
	newCmd.Flags().String("description", "", "Anything else the planner should know")
	newCmd.Flags().BoolP("interactive", "i", false, "Ask for each field interactively")
	rootCmd.AddCommand(newCmd)
}

func printResult(result *ai.Result) {
	plan := result.Plan
	if result.Degraded() {
		fmt.Printf("%s Plan generation failed, saved a basic plan instead\n", yellow("⚠"))
		fmt.Printf("  %s %v\n", gray("Reason:"), result.Reason)
		fmt.Printf("  %s\n", gray("Run 'goalcal new' again to retry."))
	} else {
		fmt.Printf("%s Plan generated in %v (%d input / %d output tokens)\n",
			green("✓"), result.Duration.Round(time.Millisecond), result.InputTokens, result.OutputTokens)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  %s %s\n", yellow("⚠"), w.Message)
	}

	fmt.Println()
	fmt.Printf("  ID:       %s\n", plan.GoalID)
	fmt.Printf("  Goal:     %s\n", plan.GoalTitle)
	fmt.Printf("  Period:   %s → %s\n", plan.StartDate, plan.EndDate)
	fmt.Printf("  Phases:   %d\n", len(plan.Phases))
	fmt.Printf("  Sessions: %d\n", plan.ScheduleCount())
	fmt.Println()
	fmt.Printf("Next: goalcal show %s, goalcal calendar %s, goalcal export %s\n",
		shortID(plan.GoalID), shortID(plan.GoalID), shortID(plan.GoalID))
}
