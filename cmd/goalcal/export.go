package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a plan's schedule as an iCalendar (.ics) file",
	Long: `Write every schedule entry of a plan as an event in an iCalendar file,
ready to import into Apple Calendar, Google Calendar or Outlook. Times are
read in the configured timezone (default Asia/Shanghai).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := resolvePlan(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}

		toStdout, _ := cmd.Flags().GetBool("stdout")
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.ExportDir
		}
		device, _ := cmd.Flags().GetString("device")

		var sink export.Sink = export.DirSink{Dir: dir}
		if toStdout {
			sink = export.WriterSink{W: os.Stdout}
		}

		outcome := export.Sync(cmd.Context(), plan, sink, export.Options{Timezone: cfg.Timezone})
		if toStdout {
			if !outcome.Success {
				return fmt.Errorf("%s", outcome.Message)
			}
			return nil
		}

		if !outcome.Success {
			// An empty plan is reported, not treated as a failure
			if plan.ScheduleCount() == 0 {
				fmt.Printf("%s %s\n", yellow("⚠"), outcome.Message)
				return nil
			}
			return fmt.Errorf("%s", outcome.Message)
		}

		fmt.Printf("%s %s (%d events)\n", green("✓"), outcome.Message, outcome.Events)
		fmt.Printf("\n%s\n%s\n", cyan("导入步骤:"), export.Instructions(export.Device(device)))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "Directory to write the file to (default: export_dir from config)")
	exportCmd.Flags().Bool("stdout", false, "Write the calendar to stdout instead of a file")
	exportCmd.Flags().String("device", string(export.DeviceDesktop), "Show import steps for: ios, android or desktop")
	rootCmd.AddCommand(exportCmd)
}
