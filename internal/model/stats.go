// Package model defines the stats record and its storage shapes
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StatsRecord is the bot telemetry snapshot served to the website. Once a store
// has been constructed every field is populated.
type StatsRecord struct {
	ServerCount  int64     `json:"serverCount"`
	UserCount    int64     `json:"userCount"`
	CommandsUsed int64     `json:"commandsUsed"`
	Uptime       float64   `json:"uptime"` // seconds, as reported by the bot
	Ping         float64   `json:"ping"`   // gateway latency in ms
	Version      string    `json:"version,omitempty"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// DefaultStats returns the placeholder record used on a cold start.
func DefaultStats(now time.Time) StatsRecord {
	return StatsRecord{
		ServerCount:  8,
		UserCount:    30,
		CommandsUsed: 150,
		Uptime:       50.0,
		Ping:         42,
		LastUpdated:  now,
	}
}

// StatsPatch holds the fields a bot is allowed to write. Anything else in a
// request body is dropped while decoding, and lastUpdated is owned by the store.
type StatsPatch struct {
	ServerCount  *int64   `json:"serverCount,omitempty"`
	UserCount    *int64   `json:"userCount,omitempty"`
	CommandsUsed *int64   `json:"commandsUsed,omitempty"`
	Uptime       *float64 `json:"uptime,omitempty"`
	Ping         *float64 `json:"ping,omitempty"`
	Version      *string  `json:"version,omitempty"`
}

// DecodePatch parses a write body. The body must be exactly one JSON object.
// Keys are matched case sensitively and everything outside the whitelist is
// dropped.
func DecodePatch(b []byte) (StatsPatch, error) {
	var (
		raw map[string]json.RawMessage
		p   StatsPatch
	)

	if err := json.Unmarshal(b, &raw); err != nil {
		return p, err
	}

	if raw == nil {
		return p, errors.New("stats patch must be a JSON object")
	}

	fields := []struct {
		key string
		dst any
	}{
		{"serverCount", &p.ServerCount},
		{"userCount", &p.UserCount},
		{"commandsUsed", &p.CommandsUsed},
		{"uptime", &p.Uptime},
		{"ping", &p.Ping},
		{"version", &p.Version},
	}

	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(v, f.dst); err != nil {
			return StatsPatch{}, fmt.Errorf("invalid %s, %w", f.key, err)
		}
	}

	return p, nil
}

// Apply overlays the fields present in p onto r
func (p StatsPatch) Apply(r *StatsRecord) {
	if p.ServerCount != nil {
		r.ServerCount = *p.ServerCount
	}
	if p.UserCount != nil {
		r.UserCount = *p.UserCount
	}
	if p.CommandsUsed != nil {
		r.CommandsUsed = *p.CommandsUsed
	}
	if p.Uptime != nil {
		r.Uptime = *p.Uptime
	}
	if p.Ping != nil {
		r.Ping = *p.Ping
	}
	if p.Version != nil {
		r.Version = *p.Version
	}
}

// StoredStats is the single row the SQL durable backend keeps per blob key
type StoredStats struct {
	Key       string    `gorm:"primaryKey"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
