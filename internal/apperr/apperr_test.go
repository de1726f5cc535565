package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Authentication("login required"), http.StatusUnauthorized},
		{Authorization("no permission"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("duplicate"), http.StatusConflict},
		{&Error{}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.Status(); got != tc.want {
			t.Fatalf("expected status %d, got %d", tc.want, got)
		}
	}
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	base := NotFound("task not found")
	wrapped := fmt.Errorf("load task: %w", base)

	tagged, ok := From(wrapped)
	if !ok || tagged.Kind != KindNotFound {
		t.Fatalf("expected tagged not found, got %v ok=%v", tagged, ok)
	}

	if _, ok := From(errors.New("plain")); ok {
		t.Fatal("plain errors must not be tagged")
	}
}

func TestValidationFieldsInMessage(t *testing.T) {
	err := Validation("invalid payload", "title is required", "priority unknown")
	if err.Error() != "invalid payload: title is required; priority unknown" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestWithCauseKeepsChain(t *testing.T) {
	cause := errors.New("underlying")
	err := Conflict("duplicate").WithCause(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to remain in the chain")
	}
}
