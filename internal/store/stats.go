package store

import (
	"context"

	"github.com/Rusal42/floofwebsite/internal/metrics"
	"github.com/Rusal42/floofwebsite/internal/model"
)

// Stats combines the volatile record with the optional durable copy. Reads
// prefer the durable copy, writes go to both with the durable half best-effort.
type Stats struct {
	volatile *Volatile
	durable  Durable
}

func New(v *Volatile, d Durable) *Stats {
	if d == nil {
		d = Noop{}
	}

	return &Stats{
		volatile: v,
		durable:  d,
	}
}

// Read never fails. Without a usable durable copy it answers from memory.
func (s *Stats) Read(ctx context.Context) model.StatsRecord {
	if rec, ok := s.durable.TryGet(ctx); ok {
		metrics.StatsReads.WithLabelValues("durable").Inc()
		return rec
	}

	metrics.StatsReads.WithLabelValues("volatile").Inc()
	return s.volatile.Get()
}

// Write merges p into the volatile record and mirrors the result to the
// durable store. There is no retry and no rollback if the mirror fails.
func (s *Stats) Write(ctx context.Context, p model.StatsPatch) model.StatsRecord {
	rec := s.volatile.Merge(p)
	s.durable.TrySet(ctx, rec)

	metrics.StatsWrites.WithLabelValues("ok").Inc()
	return rec
}

// Backend names the durable store in use
func (s *Stats) Backend() string {
	return s.durable.Name()
}

func (s *Stats) Close() error {
	return s.durable.Close()
}
