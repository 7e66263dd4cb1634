package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// leaderboardRefreshes counts leaderboard fetches.
	// Labels: trigger (timer, signal, startup, manual), result (ok, error)
	leaderboardRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karmafeed",
		Subsystem: "leaderboard",
		Name:      "refreshes_total",
		Help:      "Leaderboard refreshes by trigger and result",
	}, []string{"trigger", "result"})

	likesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karmafeed",
		Subsystem: "engagement",
		Name:      "likes_total",
		Help:      "Like toggles sent to the server",
	}, []string{"target", "result"})

	divergedPosts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "karmafeed",
		Subsystem: "feed",
		Name:      "diverged_posts",
		Help:      "Posts whose optimistic like state was not confirmed by the server",
	})
)
