// Command karmafeed is a client for the community feed: a local web UI plus
// one-shot commands for reading and engaging with the feed.
package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"karmafeed/internal/app"
	"karmafeed/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "karmafeed",
	Short:         "Client for the karmafeed community feed",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	setupLogging()

	rootCmd.AddCommand(serveCmd, devBackendCmd)
	rootCmd.AddCommand(feedCmd, threadCmd, postCmd, replyCmd, likeCmd, likeCommentCmd, leaderboardCmd, meCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// setupLogging configures the log format; the level comes from config later.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
}

// loadApp reads the configuration and builds the application. With bootstrap
// set it also establishes the session and loads the feed and leaderboard.
func loadApp(ctx context.Context, bootstrap bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	if bootstrap {
		if err := a.Bootstrap(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}
