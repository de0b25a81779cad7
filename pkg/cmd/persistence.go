package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/persistence/file"
	"github.com/reporunner/reporunner/pkg/persistence/postgres"
)

// NewPersistence creates a persistence backend from a database URL. A
// postgres:// or postgresql:// URL selects PostgreSQL; anything else is
// treated as a file path.
func NewPersistence(ctx context.Context, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres":
		store, err := postgres.NewPersistence(ctx, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to postgres: %w", err))
		}

		return store
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return "postgres"
	}

	return "file"
}
