// Package file provides a file-system backed persistence implementation.
// Workflows and executions are stored as one JSON document each; suitable
// for development and single-node deployments.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/reporunner/reporunner/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file system.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(filepath.Join(cleanRoot, "workflows")),
		executionRepo: NewExecutionRepository(filepath.Join(cleanRoot, "executions")),
	}
}

// WorkflowRepository returns the workflow repository implementation.
func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

// ExecutionRepository returns the execution repository implementation.
func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

// HealthCheck verifies the root directory is usable.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(fp.root, 0o755)
}

// Close is a no-op for file persistence.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
