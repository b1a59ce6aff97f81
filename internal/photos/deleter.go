package photos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/metrics"
	"github.com/shopfront/storefront-backend/pkg/storage"
)

const (
	// DefaultStorageTimeout bounds every individual blob call.
	DefaultStorageTimeout = 20 * time.Second

	maxParallelStorageCalls = 4
	minKeyLength            = 3
)

// OutcomeKind classifies what happened to one requested deletion.
type OutcomeKind string

const (
	OutcomeDeleted  OutcomeKind = "deleted"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// DeleteOutcome is the result of a best-effort blob deletion.
type DeleteOutcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

// OK reports whether the outcome is success-equivalent.
func (o DeleteOutcome) OK() bool {
	return o.Kind != OutcomeFailed
}

func deleted() DeleteOutcome              { return DeleteOutcome{Kind: OutcomeDeleted} }
func notFound() DeleteOutcome             { return DeleteOutcome{Kind: OutcomeNotFound} }
func skipped(reason string) DeleteOutcome { return DeleteOutcome{Kind: OutcomeSkipped, Reason: reason} }
func failed(reason string) DeleteOutcome  { return DeleteOutcome{Kind: OutcomeFailed, Reason: reason} }

// DeleteReport pairs a requested URL with its outcome.
type DeleteReport struct {
	URL     string        `json:"url"`
	Outcome DeleteOutcome `json:"outcome"`
}

// Deleter removes blobs referenced by public photo URLs. It never returns errors; failures
// are logged, counted and reported in the outcome.
type Deleter struct {
	blob     storage.Blob
	resolver Resolver
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.PhotoMetrics
}

func NewDeleter(blob storage.Blob, resolver Resolver, timeout time.Duration, logg *logger.Logger, m *metrics.PhotoMetrics) *Deleter {
	if timeout <= 0 {
		timeout = DefaultStorageTimeout
	}
	return &Deleter{
		blob:     blob,
		resolver: resolver,
		timeout:  timeout,
		logg:     logg,
		metrics:  m,
	}
}

// DeleteURL deletes the blob behind one resolved photo URL.
func (d *Deleter) DeleteURL(ctx context.Context, rawURL string) DeleteOutcome {
	outcome := d.deleteURL(ctx, rawURL)
	d.metrics.IncDelete(string(outcome.Kind))

	if d.logg != nil {
		lctx := d.logg.WithFields(ctx, map[string]any{"photo_url": rawURL, "outcome": outcome.Kind})
		switch outcome.Kind {
		case OutcomeFailed:
			d.logg.Warn(d.logg.WithField(lctx, "reason", outcome.Reason), "photo delete failed")
		case OutcomeSkipped:
			d.logg.Debug(d.logg.WithField(lctx, "reason", outcome.Reason), "photo delete skipped")
		default:
			d.logg.Debug(lctx, "photo delete completed")
		}
	}
	return outcome
}

func (d *Deleter) deleteURL(ctx context.Context, rawURL string) DeleteOutcome {
	if IsPlaceholder(rawURL) {
		return skipped("placeholder url")
	}
	if d.blob == nil {
		return skipped("storage not configured")
	}
	if !IsAbsoluteURL(rawURL) || !d.resolver.Owns(rawURL) {
		return skipped("url not served by configured storage")
	}

	key := KeyFromURL(rawURL)
	if len(key) < minKeyLength {
		return failed("invalid filename")
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	err := d.blob.Delete(callCtx, key)
	d.metrics.ObserveStorage("delete", time.Since(started))

	switch {
	case err == nil:
		return deleted()
	case errors.Is(err, storage.ErrNotFound):
		return notFound()
	case errors.Is(err, context.DeadlineExceeded):
		return failed(fmt.Sprintf("timed out after %s", d.timeout))
	default:
		return failed(err.Error())
	}
}

// DeleteURLs deletes every URL concurrently. Reports keep the input order.
func (d *Deleter) DeleteURLs(ctx context.Context, urls []string) []DeleteReport {
	reports := make([]DeleteReport, len(urls))
	if len(urls) == 0 {
		return reports
	}

	// Outcomes land in reports; workers never return an error, so the group only caps
	// concurrent storage calls.
	var g errgroup.Group
	g.SetLimit(maxParallelStorageCalls)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			reports[i] = DeleteReport{URL: u, Outcome: d.DeleteURL(ctx, u)}
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// FailedDeletes folds the failed reports of a batch into one error, or nil.
func FailedDeletes(reports []DeleteReport) error {
	var err error
	for _, r := range reports {
		if !r.Outcome.OK() {
			err = multierr.Append(err, fmt.Errorf("delete %s: %s", r.URL, r.Outcome.Reason))
		}
	}
	return err
}
