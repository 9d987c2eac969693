package schedsvc

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindRejected, Message: "unknown dependency \"ghost\""}
	want := `rejected: unknown dependency "ghost"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Kind: KindServiceUnavailable, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("acting: %w", &Error{Kind: KindNotFound, Message: "project missing"})
	if !IsKind(err, KindNotFound) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(err, KindRejected) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("IsKind should be false for non-client errors")
	}
}
