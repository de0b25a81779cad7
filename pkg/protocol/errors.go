package protocol

import (
	"errors"
	"fmt"
)

// NodeExecutionError is an executor-level failure, wrapping the underlying
// cause together with the node it belongs to.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s execution failed: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// NewNodeExecutionError wraps err as a failure of the given node.
func NewNodeExecutionError(nodeID string, err error) *NodeExecutionError {
	return &NodeExecutionError{NodeID: nodeID, Err: err}
}

// IsNodeExecutionError checks whether err is an executor-level failure.
func IsNodeExecutionError(err error) bool {
	var nee *NodeExecutionError

	return errors.As(err, &nee)
}

// CredentialError indicates a missing or unusable credential for a node.
type CredentialError struct {
	Integration string
	Err         error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential error for integration %s: %v", e.Integration, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// NewCredentialError reports a credential problem for an integration.
func NewCredentialError(integration string, err error) *CredentialError {
	return &CredentialError{Integration: integration, Err: err}
}

// IsCredentialError checks whether err is a credential failure.
func IsCredentialError(err error) bool {
	var ce *CredentialError

	return errors.As(err, &ce)
}
