package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/reporunner/reporunner/pkg/engine"
	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/persistence"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps engine and store errors to problem responses.
func handleEngineError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow not found")
	case persistence.IsExecutionNotFound(err):
		return notFound(c, "execution not found")
	case errors.Is(err, persistence.ErrExecutionTerminal):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("execution_terminal").
			WithDetail("execution already reached a terminal status")

		return c.Status(fiber.StatusConflict).JSON(problem)
	case graph.IsValidationError(err):
		return badRequest(c, err.Error())
	case errors.Is(err, engine.ErrQueueFull):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("queue_full").
			WithDetail("execution queue is full, try again later")

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
	default:
		return internalError(c, err)
	}
}
