package graph

import (
	"errors"
	"fmt"
)

// ValidationKind classifies structural workflow defects.
type ValidationKind string

const (
	KindCyclicGraph   ValidationKind = "cyclic_graph"
	KindNoStartNodes  ValidationKind = "no_start_nodes"
	KindUnknownNode   ValidationKind = "unknown_node"
	KindDuplicateNode ValidationKind = "duplicate_node"
)

// ValidationError rejects a malformed workflow before any node runs. It is
// surfaced synchronously to the trigger caller.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow validation failed (%s): %s", e.Kind, e.Detail)
}

func newValidationError(kind ValidationKind, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Detail: detail}
}

// IsValidationError checks whether err is a workflow validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
