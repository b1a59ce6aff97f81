package photos

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/metrics"
	"github.com/shopfront/storefront-backend/pkg/storage"
)

// Upload is one accepted image file from a create or update request.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is the outcome of one reconciliation. Records is the collection to persist;
// Removed lists the URLs whose blobs go once that collection is saved.
type Result struct {
	Records  []Record
	Removed  []string
	Degraded int
}

// Reconciler applies removals and uploads to a product's photo collection.
type Reconciler struct {
	blob     storage.Blob
	resolver Resolver
	deleter  *Deleter
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.PhotoMetrics
	now      func() time.Time
}

func NewReconciler(blob storage.Blob, resolver Resolver, timeout time.Duration, logg *logger.Logger, m *metrics.PhotoMetrics) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultStorageTimeout
	}
	return &Reconciler{
		blob:     blob,
		resolver: resolver,
		deleter:  NewDeleter(blob, resolver, timeout, logg, m),
		timeout:  timeout,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}
}

// Resolver returns the URL resolver used for removal matching.
func (r *Reconciler) Resolver() Resolver {
	return r.resolver
}

// DeleteURLs issues best-effort deletions for the given resolved URLs.
func (r *Reconciler) DeleteURLs(ctx context.Context, urls []string) []DeleteReport {
	return r.deleter.DeleteURLs(ctx, urls)
}

// Reconcile drops every record whose resolved URL is listed in removedURLs, uploads files
// and appends one record per file with ordinals counting up from startOrdinal. No blob is
// deleted here: callers persist Records first and then call DeleteRemoved. Storage
// failures never fail the call.
func (r *Reconciler) Reconcile(ctx context.Context, existing []Record, removedURLs []string, files []Upload, startOrdinal int) Result {
	if startOrdinal < 0 {
		startOrdinal = 0
	}

	added, degraded := r.uploadAll(ctx, files, startOrdinal)
	surviving := r.filterRemoved(existing, removedURLs)
	records := make([]Record, 0, len(surviving)+len(added))
	records = append(records, surviving...)
	records = append(records, added...)

	var removed []string
	if len(removedURLs) > 0 {
		removed = append(removed, removedURLs...)
	}
	return Result{
		Records:  records,
		Removed:  removed,
		Degraded: degraded,
	}
}

// DeleteRemoved issues the deletions planned by Reconcile. Call it only after the
// collection in res has been persisted.
func (r *Reconciler) DeleteRemoved(ctx context.Context, res Result) []DeleteReport {
	deletes := r.deleter.DeleteURLs(ctx, res.Removed)
	if err := FailedDeletes(deletes); err != nil && r.logg != nil {
		r.logg.WarnErr(ctx, "some removed photos could not be deleted from storage", err)
	}
	return deletes
}

func (r *Reconciler) filterRemoved(existing []Record, removedURLs []string) []Record {
	if len(removedURLs) == 0 {
		out := make([]Record, len(existing))
		copy(out, existing)
		return out
	}
	removed := make(map[string]struct{}, len(removedURLs))
	for _, u := range removedURLs {
		removed[u] = struct{}{}
	}
	out := make([]Record, 0, len(existing))
	for _, rec := range existing {
		if _, drop := removed[r.resolver.Resolve(rec.StorageKey)]; drop {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (r *Reconciler) uploadAll(ctx context.Context, files []Upload, startOrdinal int) ([]Record, int) {
	records := make([]Record, len(files))
	degraded := make([]bool, len(files))
	if len(files) == 0 {
		return records, 0
	}

	now := r.now()
	// Workers record their own outcome and never return an error; the group only caps
	// concurrent storage calls.
	var g errgroup.Group
	g.SetLimit(maxParallelStorageCalls)
	for i, file := range files {
		i, file := i, file
		ordinal := startOrdinal + i
		g.Go(func() error {
			key, ok := r.upload(ctx, now, ordinal, file)
			records[i] = Record{StorageKey: key, DisplayName: file.Name, Ordinal: ordinal}
			degraded[i] = !ok
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, d := range degraded {
		if d {
			count++
		}
	}
	return records, count
}

// upload stores one file and returns its key. When storage is missing or the upload fails
// the returned key is a placeholder URL and ok is false.
func (r *Reconciler) upload(ctx context.Context, now time.Time, ordinal int, file Upload) (string, bool) {
	key := BuildKey(now, ordinal, file.Name)
	if r.blob == nil {
		r.metrics.IncUpload("skipped")
		if r.logg != nil {
			r.logg.Warn(r.logg.WithPhoto(ctx, file.Name, ""), "storage not configured; storing placeholder")
		}
		return NoImagePlaceholder, false
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	err := r.blob.Put(callCtx, key, file.Data, file.ContentType)
	r.metrics.ObserveStorage("put", time.Since(started))
	if err != nil {
		r.metrics.IncUpload("failed")
		if r.logg != nil {
			r.logg.WarnErr(r.logg.WithPhoto(ctx, file.Name, key), "photo upload failed; storing placeholder", err)
		}
		return UploadFailedPlaceholder, false
	}
	r.metrics.IncUpload("ok")
	return key, true
}
