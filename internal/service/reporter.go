package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Rusal42/floofwebsite/internal/model"
	"github.com/Rusal42/floofwebsite/pkg/middleware"
	"go.uber.org/zap"
)

// Source produces the stats a bot reports to the website
type Source interface {
	Snapshot() model.StatsPatch
}

// Reporter pushes bot stats to the website's update endpoint
type Reporter struct {
	URL      string
	Token    string
	Interval time.Duration
	Source   Source
	Client   *http.Client
}

// Push sends one snapshot
func (r *Reporter) Push(ctx context.Context) error {
	body, err := json.Marshal(r.Source.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode stats, %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request, %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if r.Token != "" {
		req.Header.Set(middleware.BotTokenHeader, r.Token)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push stats, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("website responded with %d: %s", resp.StatusCode, msg)
	}

	return nil
}

// Run pushes right away and then every Interval until ctx is done. Failed
// pushes are logged and retried on the next tick only.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	zap.L().Debug("Stats reporter attached", zap.Duration("tick_every", r.Interval), zap.String("url", r.URL))

	for {
		if err := r.Push(ctx); ctx.Err() != nil {
			return
		} else if err != nil {
			zap.L().Error("Failed to update website stats", zap.Error(err))
		} else {
			zap.L().Debug("Website stats updated")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
