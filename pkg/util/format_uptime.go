// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"fmt"
	"math"
	"time"
)

// FormatUptime renders whole seconds as "1d 2h 3m 4s". The days part is left
// out when it is zero. Negative or non finite input renders as "0h 0m 0s".
func FormatUptime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	total := int64(math.Floor(seconds))

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, secs)
	}

	return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
}

// UptimeSeconds prefers the uptime reported by the bot and falls back to the
// time elapsed since startedAt.
func UptimeSeconds(reported float64, startedAt, now time.Time) float64 {
	if !math.IsNaN(reported) && !math.IsInf(reported, 0) && reported >= 0 {
		return math.Floor(reported)
	}

	return math.Max(0, math.Floor(now.Sub(startedAt).Seconds()))
}
