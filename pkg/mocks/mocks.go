// Package mocks provides testify mock implementations of engine-facing
// interfaces for use in tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// CredentialResolver is a mock implementation of protocol.CredentialResolver.
type CredentialResolver struct {
	mock.Mock
}

func (m *CredentialResolver) ResolveCredentials(ctx context.Context, userID string) (map[string]map[string]any, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]map[string]any), args.Error(1)
}
