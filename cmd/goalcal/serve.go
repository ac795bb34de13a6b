package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goalcal/goalcal/internal/export"
	"github.com/goalcal/goalcal/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for a browser front-end",
	Long: `Serve the plan API on a loopback address. Only one plan is generated
at a time; a second request while one is running gets 409 Conflict.

Routes:
  POST   /api/v1/plans                      generate and save a plan
  GET    /api/v1/plans                      list saved plans
  DELETE /api/v1/plans                      clear history
  GET    /api/v1/plans/{id}                 one plan
  DELETE /api/v1/plans/{id}                 delete a plan
  GET    /api/v1/plans/{id}/summary         completion summary
  GET    /api/v1/plans/{id}/calendar        month grid (?month=YYYY-MM)
  GET    /api/v1/plans/{id}/days/{date}     sessions on a date (or "today")
  PATCH  /api/v1/plans/{id}/schedule        edit or complete an entry
  PUT    /api/v1/plans/{id}/progress        set overall progress
  GET    /api/v1/plans/{id}/export.ics      download the calendar file
  GET    /api/v1/export/instructions        import steps for the caller's device
  GET    /health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ListenAddr
		}

		generator, err := newGenerator(cfg)
		if err != nil {
			return err
		}

		// Leave room for every retry of a slow generation
		handlerTimeout := cfg.RequestTimeout*time.Duration(cfg.MaxRetries+1) + 30*time.Second

		srv, err := server.New(&server.Config{
			Addr:           addr,
			AllowedOrigins: cfg.AllowedOrigins,
			HandlerTimeout: handlerTimeout,
			Export:         export.Options{Timezone: cfg.Timezone},
		}, store, generator)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Serving on http://%s (Ctrl+C to stop)\n", green("✓"), addr)
		if err := srv.Run(ctx); err != nil {
			return err
		}
		fmt.Println(gray("Server stopped"))
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: listen_addr from config)")
	rootCmd.AddCommand(serveCmd)
}
