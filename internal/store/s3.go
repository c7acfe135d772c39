package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	a "github.com/Rusal42/floofwebsite/aws"
	"github.com/Rusal42/floofwebsite/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the part of *s3.Client the blob store needs
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// blobStore keeps the record as one JSON object in an S3 compatible bucket
type blobStore struct {
	api    objectAPI
	bucket *string
	key    string
	name   string
}

// NewBlob wraps an S3 (or R2) client. The object key is "<key>.json".
func NewBlob(c *a.S3Client, key, name string) Durable {
	return newBlob(c.C, c.Bucket, key, name)
}

func newBlob(api objectAPI, bucket *string, key, name string) *blobStore {
	return &blobStore{
		api:    api,
		bucket: bucket,
		key:    key + ".json",
		name:   name,
	}
}

func (b *blobStore) TryGet(ctx context.Context) (model.StatsRecord, bool) {
	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: b.bucket,
		Key:    aws.String(b.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if !errors.As(err, &noKey) {
			absorb(b.name, "get", err)
		}

		return model.StatsRecord{}, false
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		absorb(b.name, "get", fmt.Errorf("failed to read object body, %w", err))
		return model.StatsRecord{}, false
	}

	rec, err := decodeRecord(body)
	if err != nil {
		absorb(b.name, "decode", err)
		return model.StatsRecord{}, false
	}

	return rec, true
}

func (b *blobStore) TrySet(ctx context.Context, rec model.StatsRecord) {
	body, err := json.Marshal(rec)
	if err != nil {
		absorb(b.name, "encode", err)
		return
	}

	_, err = b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       b.bucket,
		Key:          aws.String(b.key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-store"),
	})
	if err != nil {
		absorb(b.name, "set", err)
	}
}

func (b *blobStore) Name() string { return b.name }

func (b *blobStore) Close() error { return nil }
