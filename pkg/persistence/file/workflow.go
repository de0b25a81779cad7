package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
)

// WorkflowRepository stores one JSON document per workflow.
type WorkflowRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewWorkflowRepository(dir string) *WorkflowRepository {
	return &WorkflowRepository{dir: dir}
}

func (r *WorkflowRepository) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeDocument(r.dir, workflow.ID, workflow)
}

func (r *WorkflowRepository) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var workflow models.Workflow
	if err := readDocument(r.dir, id, &workflow); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", id, err)
	}

	return &workflow, nil
}

func (r *WorkflowRepository) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	r.mu.RLock()
	ids, err := listDocumentIDs(r.dir)
	r.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := r.GetWorkflow(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (r *WorkflowRepository) DeleteWorkflow(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(documentPath(r.dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.ErrWorkflowNotFound
	}

	return err
}

// Shared document helpers for file repositories.

func documentPath(dir, id string) string {
	return filepath.Join(dir, id+".json")
}

func writeDocument(dir, id string, doc any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	// Write-then-rename keeps readers from observing partial documents.
	tmp := documentPath(dir, id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", id, err)
	}

	return os.Rename(tmp, documentPath(dir, id))
}

func readDocument(dir, id string, doc any) error {
	data, err := os.ReadFile(documentPath(dir, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, doc)
}

func listDocumentIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}
