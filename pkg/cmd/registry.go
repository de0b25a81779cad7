// Package cmd provides common initialization helpers for the command-line
// binaries: registry, persistence, and event bus construction.
package cmd

import (
	"log/slog"

	"github.com/reporunner/reporunner/pkg/registry"
)

// NewRegistry builds the node executor registry with all built-in node types.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	return registry.NewDefaultRegistry(logger)
}
