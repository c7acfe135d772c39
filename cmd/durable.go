package cmd

import (
	"context"
	"time"

	"github.com/Rusal42/floofwebsite/aws"
	"github.com/Rusal42/floofwebsite/cloudflare"
	"github.com/Rusal42/floofwebsite/config"
	"github.com/Rusal42/floofwebsite/db"
	"github.com/Rusal42/floofwebsite/internal/store"

	"go.uber.org/zap"
)

// newDurable picks the durable stats backend once at startup. A backend that
// can't be reached degrades to the no-op store instead of stopping the server.
func newDurable(ctx context.Context, cfg *config.Config) store.Durable {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	key := cfg.Durable.Key

	var (
		d   store.Durable
		err error
	)

	switch cfg.Durable.Type {
	case "s3":
		var c *aws.S3Client
		c, err = aws.NewS3(ctx, aws.S3Options{
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.Bucket,
			Region:          cfg.AWS.Region,
			BaseEndpoint:    cfg.AWS.Endpoint,
		})
		if err == nil {
			d = store.NewBlob(c, key, "s3")
		}
	case "r2":
		var c *aws.S3Client
		c, err = cloudflare.NewR2(ctx, cloudflare.R2Options{
			AccountID:       cfg.Cloudflare.AccountID,
			AccessKeyID:     cfg.Cloudflare.AccessKeyID,
			SecretAccessKey: cfg.Cloudflare.SecretAccessKey,
			Bucket:          cfg.Cloudflare.Bucket,
		})
		if err == nil {
			d = store.NewBlob(c, key, "r2")
		}
	case "redis":
		d, err = store.NewRedis(ctx, cfg.Redis.URL, key)
	case "sqlite", "postgres":
		dsn := cfg.Database.Path
		if cfg.Durable.Type == "postgres" {
			dsn = cfg.Database.DSN
		}

		conn, openErr := db.New(cfg.Durable.Type, dsn)
		if openErr == nil {
			d = store.NewSQL(conn, key, cfg.Durable.Type)
		}
		err = openErr
	default:
		return store.Noop{}
	}

	if err != nil {
		zap.L().Warn("Durable stats store unavailable, using memory only",
			zap.String("type", cfg.Durable.Type),
			zap.Error(err),
		)
		return store.Noop{}
	}

	zap.L().Info("Durable stats store attached", zap.String("type", d.Name()), zap.String("key", key))
	return d
}
