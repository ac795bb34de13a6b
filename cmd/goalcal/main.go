package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/config"
	"github.com/goalcal/goalcal/internal/storage"
)

var (
	// Global flags
	configPath string
	dbPath     string
	verbose    bool

	// Resolved in PersistentPreRunE
	cfg   *config.Config
	store *storage.PlanStore
)

// skipStoreAnnotation marks commands that run without opening the plan store
const skipStoreAnnotation = "goalcal/skip-store"

var rootCmd = &cobra.Command{
	Use:   "goalcal",
	Short: "Turn a goal into a dated study plan and calendar",
	Long: `goalcal asks a language model to break a goal into phases, tasks and a
day-by-day schedule, keeps the last plans locally, and exports them as an
iCalendar file for any calendar app.

Configuration is read from $XDG_CONFIG_HOME/goalcal/config.yaml (or --config)
and GOALCAL_* environment variables. The API key is read from GOALCAL_API_KEY,
DEEPSEEK_API_KEY or ANTHROPIC_API_KEY.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.DatabasePath = dbPath
		}
		cfg = loaded

		if cmd.Annotations[skipStoreAnnotation] == "true" || store != nil {
			return nil
		}
		s, err := storage.Open(cmd.Context(), &storage.Config{
			Backend:  storage.BackendSQLite,
			Path:     cfg.DatabasePath,
			Capacity: cfg.HistoryLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to open plan store: %w", err)
		}
		store = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/goalcal/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to plan database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
}

// setupLogging sends library diagnostics to stderr. Without --verbose only
// warnings and errors are shown so they don't interleave with command output.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// closeStore releases the plan store opened by PersistentPreRunE
func closeStore() {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		slog.Warn("failed to close plan store", "error", err)
	}
	store = nil
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	closeStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
