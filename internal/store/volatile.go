// Package store contains the volatile and durable stats stores and the
// read-fallback protocol tying them together
package store

import (
	"sync"
	"time"

	"github.com/Rusal42/floofwebsite/internal/model"
)

// Volatile keeps the current record in process memory. It resets to the
// defaults whenever the process restarts.
type Volatile struct {
	mu    sync.RWMutex
	rec   model.StatsRecord
	clock func() time.Time
}

// NewVolatile creates a store seeded with the default record. A nil clock
// means time.Now.
func NewVolatile(clock func() time.Time) *Volatile {
	if clock == nil {
		clock = time.Now
	}

	return &Volatile{
		rec:   model.DefaultStats(clock().UTC()),
		clock: clock,
	}
}

// Get returns a copy of the current record
func (v *Volatile) Get() model.StatsRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.rec
}

// Merge overlays the present fields of p, stamps lastUpdated and returns the
// resulting record. Values are stored as sent, negative counts included.
func (v *Volatile) Merge(p model.StatsPatch) model.StatsRecord {
	v.mu.Lock()
	defer v.mu.Unlock()

	p.Apply(&v.rec)

	now := v.clock().UTC()
	if !now.After(v.rec.LastUpdated) {
		now = v.rec.LastUpdated.Add(time.Nanosecond)
	}
	v.rec.LastUpdated = now

	return v.rec
}
