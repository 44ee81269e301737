package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/burrowdb/burrow/pkg/blog"
	"github.com/burrowdb/burrow/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Hold the database open and serve metrics and health endpoints",
	Long: `Open the database and block, exposing Prometheus metrics on /metrics
and health probes on /health, /ready, and /live. This is the mode a
task scheduler or network front-end embeds around; burrowd serve runs
it standalone for observation and smoke testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")

		db, fresh, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		if fresh {
			sys, err := bootstrap(db)
			if err != nil {
				return err
			}
			blog.Logger.Info().Stringer("system", sys).Msg("fresh database bootstrapped")
		}

		metrics.SetVersion(Version)
		// Both critical components are up once Open returns: the buckets
		// are bound and the committer goroutine is draining its channel.
		metrics.RegisterComponent(metrics.ComponentRelationStore, true, "open")
		metrics.RegisterComponent(metrics.ComponentCommitPipeline, true, "running")

		collector := metrics.NewCollector(db)
		collector.Start()
		defer collector.Stop()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/health", metrics.HealthHandler())
		mux.HandleFunc("/ready", metrics.ReadyHandler())
		mux.HandleFunc("/live", metrics.LivenessHandler())

		server := &http.Server{Addr: listen, Handler: mux}
		errCh := make(chan error, 1)
		go func() {
			blog.Logger.Info().Str("addr", listen).Msg("serving metrics")
			errCh <- server.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			fmt.Printf("Received %s, shutting down\n", sig)
			return server.Close()
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().String("listen", ":9823", "Metrics/health listen address")
}
