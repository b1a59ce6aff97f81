package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeTooLarge, status: http.StatusRequestEntityTooLarge, publicMsg: "payload too large", detailsOK: true},
		{code: CodeUnsupported, status: http.StatusUnsupportedMediaType, publicMsg: "unsupported media type", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "too many requests", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeNotFound, "no product")
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeSeesThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "revision changed")
	wrapped := fmt.Errorf("update product: %w", inner)
	if !IsCode(wrapped, CodeConflict) {
		t.Fatalf("expected conflict code through wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Fatalf("unexpected code match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("cart: %w", New(CodeDependency, "redis down"))); got != CodeDependency {
		t.Fatalf("expected dependency, got %s", got)
	}
}

func TestRetryAfter(t *testing.T) {
	err := New(CodeRateLimit, "slow down").WithRetryAfter(30 * time.Second)
	if err.RetryAfter() != 30*time.Second {
		t.Fatalf("unexpected retry after %s", err.RetryAfter())
	}
	var nilErr *Error
	if nilErr.RetryAfter() != 0 || nilErr.WithRetryAfter(time.Second) != nil {
		t.Fatal("nil errors must stay nil")
	}
}

func TestDumpCapturesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_favourites_product_id", TableName: "favourites", Detail: "Key (product_id)=(7) already exists."}
	err := Wrap(CodeConflict, fmt.Errorf("insert favourite: %w", pgErr), "already a favourite")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if d.Store != "postgres" || d.StoreCode != "23505" || d.Table != "favourites" {
		t.Fatalf("unexpected store fields %+v", d)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three links in the chain, got %v", d.Chain)
	}

	fields := d.Fields()
	if fields["db_constraint"] != "idx_favourites_product_id" {
		t.Fatalf("missing constraint field: %v", fields)
	}
	if _, ok := fields["error_chain_truncated"]; ok {
		t.Fatal("short chains are not truncated")
	}
}

func TestDumpTruncatesLongChains(t *testing.T) {
	var err error = stdErrors.New("root")
	for i := 0; i < maxDumpChain+4; i++ {
		err = fmt.Errorf("layer %d: %w", i, err)
	}
	d := Dump(err)
	if len(d.Chain) != maxDumpChain || !d.Truncated {
		t.Fatalf("expected truncated chain of %d, got %d (truncated=%v)", maxDumpChain, len(d.Chain), d.Truncated)
	}
	if d.Store != "" {
		t.Fatalf("plain errors have no store, got %q", d.Store)
	}
	if _, ok := d.Fields()["db_store"]; ok {
		t.Fatal("store fields must be omitted for plain errors")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
