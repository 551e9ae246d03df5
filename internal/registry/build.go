package registry

import (
	"context"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

// Root aggregate names. Both select every transform of every class.
const (
	AggregateBuild = "build"
	AggregateAll   = "all"
)

// Handler supplies the functions behind the registered tasks.
type Handler interface {
	Transform(spec plan.TaskSpec) runner.Func
	PreCheck(spec plan.TaskSpec) runner.Func
}

// TaskName is the registered name of the transform for spec.
func TaskName(class config.AssetClass, id string) string {
	return string(class) + ":" + id
}

// PreCheckName is the registered name of the lint task gating a script.
func PreCheckName(id string) string {
	return "lint:" + id
}

// Build registers one transform per task spec, one pre-check per script
// spec that requires it, an aggregate per class and the root aggregates.
func Build(ctx context.Context, p *plan.BuildPlan, h Handler) *Registry {
	logger := ctxlog.FromContext(ctx)
	r := New()

	for _, class := range config.Classes {
		specs := p.Specs(class)
		logger.Debug("Registering class tasks.", "class", class, "count", len(specs))
		for _, spec := range specs {
			t := &Task{
				Name:  TaskName(class, spec.ID),
				Class: class,
				Kind:  KindTransform,
				Spec:  spec,
				Fn:    h.Transform(spec),
			}
			if spec.PreCheck {
				check := &Task{
					Name:  PreCheckName(spec.ID),
					Class: class,
					Kind:  KindPreCheck,
					Spec:  spec,
					Fn:    h.PreCheck(spec),
				}
				r.Register(check)
				t.DependsOn = []string{check.Name}
			}
			r.Register(t)
		}
	}

	for _, class := range config.Classes {
		r.RegisterAggregate(&Aggregate{Name: string(class), Select: transformsOf(class)})
	}
	for _, name := range []string{AggregateBuild, AggregateAll} {
		r.RegisterAggregate(&Aggregate{
			Name:   name,
			Select: func(t *Task) bool { return t.Kind == KindTransform },
		})
	}

	logger.Debug("Registry build complete.", "tasks", len(r.order), "aggregates", len(r.aggOrder))
	return r
}

func transformsOf(class config.AssetClass) func(t *Task) bool {
	return func(t *Task) bool {
		return t.Kind == KindTransform && t.Class == class
	}
}
