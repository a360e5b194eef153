package search

import (
	"context"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/metrics"
)

// Backend names.
const (
	BackendNone  = "none"
	BackendBleve = "bleve"
	BackendNATS  = "nats"
)

// Uploader stores search records in an index.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, records []Record) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend   string
	BlevePath string
	NATSURL   string
	Bucket    string
}

// Open returns the uploader for opts.Backend. The "none" backend yields a
// nil uploader, which Publish treats as a no-op.
func Open(ctx context.Context, opts Options) (Uploader, error) {
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendBleve:
		idx, err := OpenBleve(opts.BlevePath)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case BackendNATS:
		up, err := DialNATS(ctx, opts.NATSURL, opts.Bucket)
		if err != nil {
			return nil, err
		}
		return up, nil
	default:
		return nil, ferrors.ConfigError("unknown search backend").WithContext("backend", opts.Backend).Build()
	}
}

// Publish uploads records and never fails the caller: upload errors are
// logged as warnings and reported through the recorder. It returns whether
// the upload succeeded.
func Publish(ctx context.Context, up Uploader, records []Record, rec metrics.Recorder) bool {
	if up == nil {
		return false
	}
	rec = metrics.OrNoop(rec)
	start := time.Now()
	err := up.Upload(ctx, records)
	if err != nil {
		err = ferrors.WrapError(err, ferrors.CategorySearch, "search upload failed").
			Warning().
			WithContext("backend", up.Name()).
			WithContext("records", len(records)).
			Build()
		slog.Warn("Search index upload failed",
			logfields.Backend(up.Name()),
			logfields.Count(len(records)),
			logfields.Error(err))
		rec.IncSearchUpload(up.Name(), metrics.OutcomeWarning)
		return false
	}
	rec.IncSearchUpload(up.Name(), metrics.OutcomeSuccess)
	slog.Info("Search index uploaded",
		logfields.Backend(up.Name()),
		logfields.Count(len(records)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return true
}
