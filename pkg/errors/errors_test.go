package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
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
		{code: CodeOutOfStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
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

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if Wrap(CodeConflict, nil, "ctx").Unwrap() != nil {
		t.Fatalf("nil cause should produce a plain error")
	}
}

func TestIsCodeFindsWrappedTypedError(t *testing.T) {
	typed := New(CodeOutOfStock, "insufficient stock for Pulsera Luna")
	chained := fmt.Errorf("verify order: %w", typed)

	if !IsCode(chained, CodeOutOfStock) {
		t.Fatalf("expected IsCode to see through fmt wrapping")
	}
	if IsCode(chained, CodeNotFound) {
		t.Fatalf("unexpected code match")
	}
	if IsCode(nil, CodeOutOfStock) {
		t.Fatalf("nil error must not match")
	}
}

func TestDumpCapturesPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check", TableName: "products"}
	err := Wrap(CodeInternal, pgErr, "update stock")

	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("expected code in dump, got %s", dump.Code)
	}
	if dump.PGCode != "23514" || dump.PGConstraint != "products_stock_check" || dump.PGTable != "products" {
		t.Fatalf("unexpected pg fields %+v", dump)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}
}

func TestSQLStateUnderstandsLibPQ(t *testing.T) {
	err := fmt.Errorf("exec: %w", &pq.Error{Code: "40001"})
	if got := SQLState(err); got != "40001" {
		t.Fatalf("expected 40001, got %q", got)
	}
	if got := SQLState(stdErrors.New("plain")); got != "" {
		t.Fatalf("expected empty sqlstate, got %q", got)
	}
}
