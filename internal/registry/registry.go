package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/pipeline"
)

// ErrUnknownStage is returned when no module registered the requested stage.
var ErrUnknownStage = errors.New("unknown stage")

// Module is the interface that all stage modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the stage factories for a single application instance.
type Registry struct {
	factories map[string]Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterStage registers the factory for a stage name.
func (r *Registry) RegisterStage(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("stage with name '%s' already registered", name))
	}
	slog.Debug("Registering stage.", "name", name)
	r.factories[name] = factory
}

// Names returns the registered stage names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a stage is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Build constructs one invocation of the named stage.
func (r *Registry) Build(name string, env Env) (pipeline.Stage, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStage, "%q (known: %v)", name, r.Names())
	}
	stage, err := factory(env)
	if err != nil {
		return nil, errors.Wrapf(err, "building stage %q", name)
	}
	return stage, nil
}

// BuildAll constructs a chain of stages sharing env. Settings are looked up
// per stage in sections.
func (r *Registry) BuildAll(names []string, env Env, sections map[string]map[string]any) ([]pipeline.Stage, error) {
	stages := make([]pipeline.Stage, 0, len(names))
	for _, name := range names {
		stageEnv := env
		stageEnv.Settings = sections[name]
		stage, err := r.Build(name, stageEnv)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}
