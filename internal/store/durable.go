package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Rusal42/floofwebsite/internal/metrics"
	"github.com/Rusal42/floofwebsite/internal/model"
	"go.uber.org/zap"
)

// Durable is an optional store shared by every instance of the service. All
// failures are absorbed: a failed read reports absent, a failed write is dropped.
type Durable interface {
	TryGet(ctx context.Context) (model.StatsRecord, bool)
	TrySet(ctx context.Context, rec model.StatsRecord)
	Name() string
	Close() error
}

var errMalformed = errors.New("stored stats payload is not a stats object")

// Noop is the durable store used when none is configured
type Noop struct{}

func (Noop) TryGet(context.Context) (model.StatsRecord, bool) { return model.StatsRecord{}, false }
func (Noop) TrySet(context.Context, model.StatsRecord)        {}
func (Noop) Name() string                                     { return "none" }
func (Noop) Close() error                                     { return nil }

// decodeRecord parses a stored payload. Anything that isn't a JSON object with
// a lastUpdated stamp is treated as malformed.
func decodeRecord(b []byte) (model.StatsRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return model.StatsRecord{}, err
	}

	if _, ok := raw["lastUpdated"]; !ok {
		return model.StatsRecord{}, errMalformed
	}

	var rec model.StatsRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return model.StatsRecord{}, err
	}

	return rec, nil
}

// absorb counts a backend failure. It logs at debug only, an outage would
// otherwise produce one warning (and Sentry event) per request.
func absorb(backend, op string, err error) {
	metrics.DurableErrors.WithLabelValues(backend, op).Inc()
	zap.L().Debug("Durable stats store failure ignored",
		zap.String("backend", backend),
		zap.String("op", op),
		zap.Error(err),
	)
}
