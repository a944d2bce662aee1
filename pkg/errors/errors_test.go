package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row not found")
	err := Wrap(CodeNotFound, cause, "address not found")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be matchable")
	}
	if err.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodePartialCheckout, "2 of 3 items ordered")
	wrapped := Wrap(CodeInternal, inner, "checkout failed")

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInternal {
		t.Fatalf("unexpected outer code %s", typed.Code())
	}
	if !IsCode(wrapped, CodeInternal) {
		t.Fatal("IsCode should match the outermost code")
	}
}

func TestMetadataFor(t *testing.T) {
	cases := []struct {
		code    Code
		status  int
		details bool
	}{
		{CodeValidation, http.StatusBadRequest, true},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodePaymentDismissed, http.StatusPaymentRequired, true},
		{CodePartialCheckout, http.StatusInternalServerError, true},
		{Code("UNKNOWN"), http.StatusInternalServerError, false},
	}

	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: unexpected status %d", tc.code, meta.HTTPStatus)
		}
		if meta.DetailsAllowed != tc.details {
			t.Fatalf("%s: unexpected details gate %v", tc.code, meta.DetailsAllowed)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodePartialCheckout, "partial").WithDetails(map[string]int{"placed": 1, "failed": 2})
	details, ok := err.Details().(map[string]int)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["placed"] != 1 || details["failed"] != 2 {
		t.Fatalf("unexpected details %v", details)
	}
}
