package protocol

import "context"

// CredentialResolver hands the engine plaintext credentials for a user,
// keyed by integration name. Decryption and storage live behind this
// interface; the engine calls it once per execution before node dispatch.
type CredentialResolver interface {
	ResolveCredentials(ctx context.Context, userID string) (map[string]map[string]any, error)
}

// StaticCredentials is a fixed in-memory resolver, useful for tests and
// single-tenant deployments.
type StaticCredentials map[string]map[string]any

func (s StaticCredentials) ResolveCredentials(_ context.Context, _ string) (map[string]map[string]any, error) {
	return s, nil
}
