// Package web provides HTTP handlers and REST API endpoints for workflow
// management and execution control.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/reporunner/reporunner/pkg/engine"
	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/registry"
)

const (
	defaultExecutionsLimit = 50
	maxExecutionsLimit     = 500
)

type APIHandlers struct {
	logger      *slog.Logger
	manager     *engine.Manager
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	manager *engine.Manager,
	store persistence.Persistence,
	registry *registry.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:      logger,
		manager:     manager,
		persistence: store,
		registry:    registry,
		validator:   validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.WorkflowRepository().ListWorkflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.persistence.WorkflowRepository().GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var workflow models.Workflow
	if err := c.Bind().JSON(&workflow); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := h.validator.Struct(&workflow); err != nil {
		return badRequest(c, err.Error())
	}

	// Reject structurally broken graphs at save time instead of first run.
	if _, err := graph.Build(&workflow); err != nil {
		return handleEngineError(c, err)
	}

	if err := h.persistence.WorkflowRepository().SaveWorkflow(c.Context(), &workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.persistence.WorkflowRepository().DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	triggerType := models.TriggerTypeAPI
	if req.TriggerType != "" {
		triggerType = models.TriggerType(req.TriggerType)
	}

	executionID, err := h.manager.ExecuteByID(c.Context(), c.Params("id"), triggerType, req.TriggerData, req.UserID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"execution_id": executionID,
		"status":       string(models.ExecutionStatusPending),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.manager.GetExecutionStatus(c.Context(), c.Params("id"))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) StopExecution(c fiber.Ctx) error {
	if err := h.manager.StopExecution(c.Context(), c.Params("id")); err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"execution_id": c.Params("id"),
		"stop":         "requested",
	})
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	req, err := h.parseListExecutionsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	executions, err := h.manager.GetExecutionHistory(c.Context(), c.Params("id"), req.Limit, req.Offset)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  executions,
		"total_count": len(executions),
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

// parseListExecutionsRequest parses and validates pagination query parameters.
func (h *APIHandlers) parseListExecutionsRequest(c fiber.Ctx) (*ListExecutionsRequest, error) {
	req := &ListExecutionsRequest{Limit: defaultExecutionsLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return req, nil
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := h.registry.NodeTypes()

	return c.JSON(fiber.Map{
		"node_types":  types,
		"total_count": len(types),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	if repositoryErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = repositoryErr.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
