package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"karmafeed/internal/devbackend"
)

var (
	devAddr  string   // listen address of the development backend
	devSeeds []string // username:password pairs created at startup
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web UI",
	Long: `Serves the feed, threads, login form and leaderboard on KARMAFEED_LISTEN_ADDR.

The leaderboard is refreshed every KARMAFEED_LEADERBOARD_INTERVAL and after
every like, login and logout.`,
	RunE: runServe,
}

var devBackendCmd = &cobra.Command{
	Use:   "devbackend",
	Short: "Run an in-memory feed backend for local development",
	Example: `  karmafeed devbackend --addr :8000
  karmafeed devbackend --seed alice:wonderland --seed bob:builder`,
	RunE: runDevBackend,
}

func init() {
	devBackendCmd.Flags().StringVar(&devAddr, "addr", ":8000", "listen address")
	devBackendCmd.Flags().StringArrayVar(&devSeeds, "seed",
		[]string{"alice:wonderland", "bob:builder", "carol:password"}, "seed user as username:password")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := loadApp(ctx, false)
	if err != nil {
		return err
	}
	// the UI degrades to stale or empty views, so a failed start is not fatal
	if err := a.Bootstrap(ctx); err != nil {
		log.WithError(err).Warn("Initial load failed")
	}

	handler, err := a.Handler()
	if err != nil {
		return err
	}

	a.Scheduler.Start(ctx)
	defer a.Scheduler.Stop()

	return listen(ctx, a.Config.ListenAddr, handler, "Local UI")
}

func runDevBackend(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var seeds []devbackend.Seed
	for _, s := range devSeeds {
		name, pass, ok := strings.Cut(s, ":")
		if !ok || name == "" || pass == "" {
			return errors.New("seed must be username:password, got " + s)
		}
		seeds = append(seeds, devbackend.Seed{Username: name, Password: pass})
	}

	backend, err := devbackend.New(devbackend.Options{Seeds: seeds, Secret: os.Getenv("KARMAFEED_DEV_SECRET")})
	if err != nil {
		return err
	}
	return listen(ctx, devAddr, backend.Handler(), "Dev backend")
}

// listen serves handler until ctx is cancelled, then shuts down gracefully.
func listen(ctx context.Context, addr string, handler http.Handler, name string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Infof("%s listening", name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("%s shutting down", name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
