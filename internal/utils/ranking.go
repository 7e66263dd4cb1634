package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity       float64 // time gravity (1.5)
	WeightLike    float64 // 1.0
	WeightComment float64 // 2.0
	ScaleFactor   float64 // 100
}

var DefaultConfig = RankConfig{
	Gravity:       1.5,
	WeightLike:    1.0,
	WeightComment: 2.0,
	ScaleFactor:   100.0,
}

// CalculateScore is the "hot" score of a post: log-smoothed engagement divided
// by a power of its age in hours.
func CalculateScore(t, now time.Time, likes, comments int) float64 {
	hours := now.Sub(t).Hours()
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(likes)*DefaultConfig.WeightLike +
		float64(comments)*DefaultConfig.WeightComment
	if weightedSum < 0 {
		weightedSum = 0
	}

	// log10(sum + 1) keeps a post with no engagement at zero
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return numerator / decay
}
