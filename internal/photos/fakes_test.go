package photos

import (
	"context"
	"errors"
	"sync"

	"github.com/shopfront/storefront-backend/pkg/storage"
)

type fakeBlob struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	putErr   map[string]error
	block    bool
	deletes  []string
	putCalls int
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{
		objects: map[string][]byte{},
		types:   map[string]string{},
		putErr:  map[string]error{},
	}
}

func (f *fakeBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	for name, err := range f.putErr {
		if containsName(key, name) {
			return err
		}
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeBlob) Delete(ctx context.Context, key string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if _, ok := f.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlob) Ping(context.Context) error { return nil }

func (f *fakeBlob) Close() error { return nil }

func (f *fakeBlob) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func containsName(key, name string) bool {
	return len(name) > 0 && len(key) >= len(name) && key[len(key)-len(name):] == name
}

var errBoom = errors.New("boom")
