package registry

import (
	"log/slog"

	"github.com/reporunner/reporunner/pkg/nodes/condition"
	"github.com/reporunner/reporunner/pkg/nodes/delay"
	httpnode "github.com/reporunner/reporunner/pkg/nodes/httprequest"
	lognode "github.com/reporunner/reporunner/pkg/nodes/log"
	"github.com/reporunner/reporunner/pkg/nodes/transform"
	"github.com/reporunner/reporunner/pkg/nodes/trigger"
)

// NewDefaultRegistry returns a registry with the built-in node types and
// the bundled action integrations registered.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	r.Register(trigger.NewFactory())
	r.Register(condition.NewFactory())
	r.Register(transform.NewFactory())
	r.Register(delay.NewFactory())
	r.Register(httpnode.NewFactory())
	r.Register(lognode.NewFactory())

	return r
}
