package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
)

// DefaultBucket is the KV bucket records are written to.
const DefaultBucket = "campus-search"

// keyValue is the part of jetstream.KeyValue the uploader needs.
type keyValue interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATSUploader writes records to a JetStream key/value bucket, one key per
// object id. It stands in for a hosted search service: an indexer
// subscribed to the bucket picks records up from there.
type NATSUploader struct {
	conn *nats.Conn
	kv   keyValue
}

// DialNATS connects to url and opens (or creates) the bucket.
func DialNATS(ctx context.Context, url, bucket string) (*NATSUploader, error) {
	if url == "" {
		return nil, ferrors.ConfigError("NATS URL is required").Build()
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategorySearch, "connect to NATS").
			WithContext("url", url).Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategorySearch, "create JetStream context").Build()
	}
	kv, err := initBucket(ctx, js, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	slog.Info("NATS search bucket ready", logfields.Backend(BackendNATS), slog.String("bucket", bucket))
	return &NATSUploader{conn: conn, kv: kv}, nil
}

func initBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if kv, err := js.KeyValue(ctx, bucket); err == nil {
		return kv, nil
	}
	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Search records for campus",
		MaxBytes:    64 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategorySearch, "create KV bucket").
			WithContext("bucket", bucket).Build()
	}
	return kv, nil
}

func (u *NATSUploader) Name() string { return BackendNATS }

// Upload puts every record. It stops at the first failure.
func (u *NATSUploader) Upload(ctx context.Context, records []Record) error {
	for i := range records {
		data, err := json.Marshal(records[i])
		if err != nil {
			return ferrors.InternalError("encode search record").WithCause(err).
				WithContext("id", records[i].ObjectID).Build()
		}
		if _, err := u.kv.Put(ctx, recordKey(records[i].ObjectID), data); err != nil {
			return ferrors.WrapError(err, ferrors.CategorySearch, "put search record").
				WithContext("id", records[i].ObjectID).Build()
		}
	}
	return nil
}

func recordKey(objectID string) string { return "post." + objectID }

func (u *NATSUploader) Close() error {
	if u.conn != nil {
		u.conn.Close()
	}
	return nil
}
