package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
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
		{code: CodeUpstream, status: http.StatusServiceUnavailable, publicMsg: "workforce platform unavailable", retryable: true, detailsOK: true},
		{code: CodeUnsupportedShape, status: http.StatusBadGateway, publicMsg: "workforce platform returned an unrecognized payload", detailsOK: true},
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
	cause := stdErrors.New("socket closed")
	err := Wrap(CodeUpstream, cause, "list users")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	typed := As(err)
	if typed == nil || typed.Code() != CodeUpstream {
		t.Fatalf("expected upstream code, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeUpstream, "down")) {
		t.Fatal("upstream errors should be retryable")
	}
	if IsRetryable(New(CodeValidation, "bad input")) {
		t.Fatal("validation errors should not be retryable")
	}
	if IsRetryable(stdErrors.New("untyped")) {
		t.Fatal("untyped errors should not be retryable")
	}
}
