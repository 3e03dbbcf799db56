package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/photocore/pkg/journal"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/log"
	"github.com/cuemby/photocore/pkg/metrics"
	"github.com/cuemby/photocore/pkg/upload"
)

// serveMaintenanceCmd runs the startup sequence every process touching
// a data directory must run before anything else does: open the store,
// replay the deletion journal, sweep derivative files the journal
// replay left orphaned, then serve /metrics until interrupted. It is
// the maintenance counterpart to whatever serves the actual catalog
// HTTP surface. bbolt holds an exclusive lock on the data file while
// the store is open, so another process opening the same data
// directory waits at open until this command exits.
var serveMaintenanceCmd = &cobra.Command{
	Use:   "serve-maintenance",
	Short: "Run startup recovery (journal replay, orphan sweep) and serve /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		imageDir, _ := cmd.Flags().GetString("image-dir")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		kv, err := kvstore.Open(dataDir)
		if err != nil {
			return fmt.Errorf("open data directory: %w", err)
		}
		defer kv.Close()

		up, err := upload.New(imageDir)
		if err != nil {
			return fmt.Errorf("open image directory: %w", err)
		}

		j := journal.New(kv, up.RemoveDerivatives)

		timer := metrics.NewTimer()
		if err := j.Restore(); err != nil {
			return fmt.Errorf("restore journal: %w", err)
		}
		timer.ObserveDuration(metrics.JournalReplayDuration)
		log.Info("deletion journal replayed")

		if err := up.SweepOrphans(kv); err != nil {
			return fmt.Errorf("sweep orphan derivatives: %w", err)
		}
		log.Info("orphan derivative sweep complete")

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}

		errCh := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		log.Logger.Info().Str("addr", metricsAddr).Msg("metrics server listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			return fmt.Errorf("metrics server: %w", err)
		}
		return server.Close()
	},
}

func init() {
	serveMaintenanceCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address the /metrics endpoint listens on")
}
