package schedsvc

import (
	"errors"
	"fmt"
)

// Kind classifies a scheduling service client failure. The orchestration
// loop converts every one of these into an observation rather than
// propagating it.
type Kind string

const (
	// KindInvalidTaskRecord means local validation rejected the record and
	// the service was never contacted.
	KindInvalidTaskRecord Kind = "invalid_task_record"
	// KindServiceUnavailable covers transport and infrastructure failures.
	KindServiceUnavailable Kind = "service_unavailable"
	// KindNotFound means the project does not exist.
	KindNotFound Kind = "not_found"
	// KindRejected is a service-side business-rule rejection, for example a
	// dependency cycle or an unknown dependency reference.
	KindRejected Kind = "rejected"
	// KindMalformedResponse means the service payload violated the contract.
	KindMalformedResponse Kind = "malformed_response"
)

// Error is a structured failure from the scheduling service client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) a client Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		return false
	}
	return svcErr.Kind == kind
}
