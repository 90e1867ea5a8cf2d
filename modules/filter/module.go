// Package filter drops packages that do not match a predicate.
package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
)

// Name is the stage name.
const Name = "filter"

// ErrNoPredicate is returned when neither has_dependency nor expression is set.
var ErrNoPredicate = errors.New("filter needs has_dependency or expression")

// Config holds the filter stage settings. When both are set a package must
// satisfy both.
type Config struct {
	HasDependency string `mapstructure:"has_dependency"`
	Expression    string `mapstructure:"expression"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

// New builds a filter stage from its settings.
func New(env registry.Env) (pipeline.Stage, error) {
	var cfg Config
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}

	var predicates []Predicate
	if cfg.HasDependency != "" {
		predicates = append(predicates, HasDependency(cfg.HasDependency))
	}
	if cfg.Expression != "" {
		p, err := Expr(cfg.Expression)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, p)
	}
	if len(predicates) == 0 {
		return nil, ErrNoPredicate
	}
	return NewStage(env.Options, predicates...), nil
}

// NewStage returns a stage keeping the packages every predicate accepts.
func NewStage(opts pipeline.Options, predicates ...Predicate) pipeline.Stage {
	return pipeline.NewStage(Name, opts, predicates, filterPackage)
}

func filterPackage(ctx context.Context, predicates []Predicate, pkg *pipeline.Package) (bool, error) {
	for idx, p := range predicates {
		keep, err := p(pkg.Descriptor, pkg.Dir)
		if err != nil {
			return false, err
		}
		if !keep {
			ctxlog.FromContext(ctx).Debug("Package filtered out.", "package", pkg.Name(), "predicate", idx)
			return false, nil
		}
	}
	return true, nil
}
