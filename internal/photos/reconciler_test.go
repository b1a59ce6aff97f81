package photos

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func newTestReconciler(blob *fakeBlob) *Reconciler {
	r := NewReconciler(nil, NewResolver(testBase), time.Second, nil, nil)
	if blob != nil {
		r = NewReconciler(blob, NewResolver(testBase), time.Second, nil, nil)
	}
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r
}

func TestReconcileCreateAssignsOrdinalsFromStart(t *testing.T) {
	blob := newFakeBlob()
	r := newTestReconciler(blob)

	files := []Upload{
		{Name: "Front View.JPG", ContentType: "image/jpeg", Data: []byte("a")},
		{Name: "back.png", ContentType: "image/png", Data: []byte("b")},
	}
	res := r.Reconcile(context.Background(), nil, nil, files, 0)

	want := []Record{
		{StorageKey: "1700000000000-0-front-view.jpg", DisplayName: "Front View.JPG", Ordinal: 0},
		{StorageKey: "1700000000000-1-back.png", DisplayName: "back.png", Ordinal: 1},
	}
	if !reflect.DeepEqual(res.Records, want) {
		t.Fatalf("records = %+v\nwant %+v", res.Records, want)
	}
	if res.Degraded != 0 {
		t.Fatalf("expected no degraded uploads, got %d", res.Degraded)
	}
	if blob.types["1700000000000-1-back.png"] != "image/png" {
		t.Fatal("content type not carried to storage")
	}
}

func TestReconcileUpdateRemovesByResolvedURL(t *testing.T) {
	blob := newFakeBlob()
	blob.objects["1-0-a.jpg"] = []byte("a")
	blob.objects["1-1-b.jpg"] = []byte("b")
	r := newTestReconciler(blob)

	existing := []Record{
		{StorageKey: "1-0-a.jpg", DisplayName: "a.jpg", Ordinal: 0},
		{StorageKey: "1-1-b.jpg", DisplayName: "b.jpg", Ordinal: 1},
		{StorageKey: "https://legacy.example.com/c.jpg", DisplayName: "c.jpg", Ordinal: 2},
	}
	removed := []string{
		testBase + "/1-0-a.jpg",
		"https://legacy.example.com/c.jpg",
		// key-only match must not remove anything
		"1-1-b.jpg",
	}
	files := []Upload{{Name: "new.jpg", ContentType: "image/jpeg", Data: []byte("n")}}

	res := r.Reconcile(context.Background(), existing, removed, files, NextOrdinal(existing))

	want := []Record{
		{StorageKey: "1-1-b.jpg", DisplayName: "b.jpg", Ordinal: 1},
		{StorageKey: "1700000000000-3-new.jpg", DisplayName: "new.jpg", Ordinal: 3},
	}
	if !reflect.DeepEqual(res.Records, want) {
		t.Fatalf("records = %+v\nwant %+v", res.Records, want)
	}
	if _, ok := blob.objects["1-0-a.jpg"]; !ok {
		t.Fatal("blobs must survive until the collection is persisted")
	}
	if !reflect.DeepEqual(res.Removed, removed) {
		t.Fatalf("removed = %v, want %v", res.Removed, removed)
	}

	deletes := r.DeleteRemoved(context.Background(), res)
	if len(deletes) != 3 {
		t.Fatalf("expected a delete report per removed url, got %d", len(deletes))
	}
	if deletes[0].Outcome.Kind != OutcomeDeleted {
		t.Fatalf("expected first removal deleted, got %+v", deletes[0])
	}
	if deletes[1].Outcome.Kind != OutcomeSkipped {
		t.Fatalf("foreign url should be skipped, got %+v", deletes[1])
	}
	if deletes[2].Outcome.Kind != OutcomeSkipped {
		t.Fatalf("bare keys are not storage urls, got %+v", deletes[2])
	}
	if _, ok := blob.objects["1-1-b.jpg"]; !ok {
		t.Fatal("surviving blob was deleted")
	}
	if _, ok := blob.objects["1-0-a.jpg"]; ok {
		t.Fatal("removed blob still present")
	}
}

func TestReconcileUploadFailureStoresPlaceholder(t *testing.T) {
	blob := newFakeBlob()
	blob.putErr["-bad.jpg"] = errBoom
	r := newTestReconciler(blob)

	files := []Upload{
		{Name: "good.jpg", Data: []byte("g")},
		{Name: "bad.jpg", Data: []byte("b")},
		{Name: "other.jpg", Data: []byte("o")},
	}
	res := r.Reconcile(context.Background(), nil, nil, files, 5)

	if len(res.Records) != 3 {
		t.Fatalf("batch must continue past failures, got %d records", len(res.Records))
	}
	if res.Records[1].StorageKey != UploadFailedPlaceholder {
		t.Fatalf("expected placeholder for failed upload, got %q", res.Records[1].StorageKey)
	}
	if res.Records[1].Ordinal != 6 || res.Records[2].Ordinal != 7 {
		t.Fatalf("ordinals must follow input order, got %+v", res.Records)
	}
	if res.Degraded != 1 {
		t.Fatalf("expected 1 degraded upload, got %d", res.Degraded)
	}
}

func TestReconcileWithoutStorageUsesNoImagePlaceholder(t *testing.T) {
	r := newTestReconciler(nil)
	res := r.Reconcile(context.Background(), nil, []string{testBase + "/1-0-a.jpg"}, []Upload{{Name: "a.jpg"}}, 0)
	if len(res.Records) != 1 || res.Records[0].StorageKey != NoImagePlaceholder {
		t.Fatalf("expected no-image placeholder, got %+v", res.Records)
	}
	deletes := r.DeleteRemoved(context.Background(), res)
	if len(deletes) != 1 || deletes[0].Outcome.Kind != OutcomeSkipped {
		t.Fatalf("expected skipped delete without storage, got %+v", deletes)
	}
}

func TestReconcileManyUploadsStayOrdered(t *testing.T) {
	blob := newFakeBlob()
	r := newTestReconciler(blob)

	files := make([]Upload, 12)
	for i := range files {
		files[i] = Upload{Name: fmt.Sprintf("p%02d.jpg", i), Data: []byte{byte(i)}}
	}
	res := r.Reconcile(context.Background(), nil, nil, files, 0)
	for i, rec := range res.Records {
		if rec.Ordinal != i || rec.DisplayName != files[i].Name {
			t.Fatalf("record %d out of order: %+v", i, rec)
		}
	}
	if blob.putCalls != len(files) {
		t.Fatalf("expected %d uploads, got %d", len(files), blob.putCalls)
	}
}
