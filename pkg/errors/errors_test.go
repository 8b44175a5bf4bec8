package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeInsufficientBalance, http.StatusUnprocessableEntity},
		{CodeAlreadyRefunded, http.StatusConflict},
		{CodeNotRefundable, http.StatusUnprocessableEntity},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "query failed")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable with errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeAlreadyRefunded, "already refunded")
	outer := fmt.Errorf("refund tx 42: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeAlreadyRefunded {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeInsufficientBalance, "balance too low")
	if !IsCode(err, CodeInsufficientBalance) {
		t.Fatal("expected IsCode to match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("expected IsCode mismatch")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatal("nil error should not match any code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"amount": "must be positive"})
	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatal("expected map details")
	}
	if details["amount"] != "must be positive" {
		t.Fatalf("unexpected details: %v", details)
	}
}
