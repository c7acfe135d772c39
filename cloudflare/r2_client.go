// Package cloudflare provides a client for Cloudflare's S3-compatible R2 storage.
package cloudflare

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rusal42/floofwebsite/aws"
)

type R2Options struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Endpoint returns the account scoped R2 endpoint
func Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2 builds an S3 client pointed at R2. R2 ignores regions but the SDK
// requires one, "auto" is what Cloudflare documents.
func NewR2(ctx context.Context, o R2Options) (*aws.S3Client, error) {
	if o.AccountID == "" {
		return nil, errors.New("account id can't be empty")
	}

	return aws.NewS3(ctx, aws.S3Options{
		AccessKeyID:     o.AccessKeyID,
		SecretAccessKey: o.SecretAccessKey,
		Bucket:          o.Bucket,
		Region:          "auto",
		BaseEndpoint:    Endpoint(o.AccountID),
	})
}
