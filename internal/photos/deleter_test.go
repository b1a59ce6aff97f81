package photos

import (
	"context"
	"testing"
	"time"

	"github.com/shopfront/storefront-backend/pkg/logger"
)

const testBase = "https://cdn.example.com/photos"

func TestDeleterDeleteURL(t *testing.T) {
	ctx := context.Background()

	t.Run("placeholder skipped without contacting storage", func(t *testing.T) {
		blob := newFakeBlob()
		d := NewDeleter(blob, NewResolver(testBase), time.Second, logger.Nop(), nil)
		out := d.DeleteURL(ctx, UploadFailedPlaceholder)
		if out.Kind != OutcomeSkipped || !out.OK() {
			t.Fatalf("expected skipped, got %+v", out)
		}
		if blob.deleteCount() != 0 {
			t.Fatal("storage must not be contacted for placeholders")
		}
	})

	t.Run("no storage configured", func(t *testing.T) {
		d := NewDeleter(nil, NewResolver(testBase), time.Second, nil, nil)
		if out := d.DeleteURL(ctx, testBase+"/1700-0-a.jpg"); out.Kind != OutcomeSkipped {
			t.Fatalf("expected skipped, got %+v", out)
		}
	})

	t.Run("foreign host skipped", func(t *testing.T) {
		blob := newFakeBlob()
		d := NewDeleter(blob, NewResolver(testBase), time.Second, nil, nil)
		if out := d.DeleteURL(ctx, "https://images.other.com/1700-0-a.jpg"); out.Kind != OutcomeSkipped {
			t.Fatalf("expected skipped, got %+v", out)
		}
		if blob.deleteCount() != 0 {
			t.Fatal("storage must not be contacted for foreign urls")
		}
	})

	t.Run("short filename fails", func(t *testing.T) {
		d := NewDeleter(newFakeBlob(), NewResolver(testBase), time.Second, nil, nil)
		out := d.DeleteURL(ctx, testBase+"/ab?x=1")
		if out.Kind != OutcomeFailed || out.Reason != "invalid filename" {
			t.Fatalf("expected invalid filename failure, got %+v", out)
		}
	})

	t.Run("deleted and not found", func(t *testing.T) {
		blob := newFakeBlob()
		blob.objects["1700-0-a.jpg"] = []byte("x")
		d := NewDeleter(blob, NewResolver(testBase), time.Second, nil, nil)

		if out := d.DeleteURL(ctx, testBase+"/1700-0-a.jpg?sig=abc"); out.Kind != OutcomeDeleted {
			t.Fatalf("expected deleted, got %+v", out)
		}
		out := d.DeleteURL(ctx, testBase+"/1700-0-a.jpg")
		if out.Kind != OutcomeNotFound || !out.OK() {
			t.Fatalf("expected not found success, got %+v", out)
		}
	})

	t.Run("hung storage times out", func(t *testing.T) {
		blob := newFakeBlob()
		blob.block = true
		d := NewDeleter(blob, NewResolver(testBase), 20*time.Millisecond, nil, nil)
		started := time.Now()
		out := d.DeleteURL(ctx, testBase+"/1700-0-a.jpg")
		if out.Kind != OutcomeFailed {
			t.Fatalf("expected failure on timeout, got %+v", out)
		}
		if time.Since(started) > 2*time.Second {
			t.Fatal("delete did not honour the per-call timeout")
		}
	})
}

func TestDeleteURLsKeepsOrderAndFoldsFailures(t *testing.T) {
	blob := newFakeBlob()
	blob.objects["1700-0-a.jpg"] = []byte("a")
	blob.objects["1700-1-b.jpg"] = []byte("b")
	d := NewDeleter(blob, NewResolver(testBase), time.Second, nil, nil)

	urls := []string{
		testBase + "/1700-0-a.jpg",
		NoImagePlaceholder,
		testBase + "/x",
		testBase + "/1700-1-b.jpg",
	}
	reports := d.DeleteURLs(context.Background(), urls)
	if len(reports) != len(urls) {
		t.Fatalf("expected %d reports, got %d", len(urls), len(reports))
	}
	wantKinds := []OutcomeKind{OutcomeDeleted, OutcomeSkipped, OutcomeFailed, OutcomeDeleted}
	for i, r := range reports {
		if r.URL != urls[i] {
			t.Fatalf("report %d out of order: %s", i, r.URL)
		}
		if r.Outcome.Kind != wantKinds[i] {
			t.Fatalf("report %d kind = %s, want %s", i, r.Outcome.Kind, wantKinds[i])
		}
	}

	if err := FailedDeletes(reports); err == nil {
		t.Fatal("expected folded error for the failed delete")
	}
	if err := FailedDeletes(reports[:2]); err != nil {
		t.Fatalf("expected nil for successful batch, got %v", err)
	}
}
