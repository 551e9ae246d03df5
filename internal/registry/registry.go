package registry

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/plan"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

// Kind distinguishes transforms from the checks that gate them.
type Kind int

const (
	KindTransform Kind = iota
	KindPreCheck
)

func (k Kind) String() string {
	if k == KindPreCheck {
		return "precheck"
	}
	return "transform"
}

// Task is a registered unit of work.
type Task struct {
	Name      string
	Class     config.AssetClass
	Kind      Kind
	Spec      plan.TaskSpec
	DependsOn []string
	Fn        runner.Func
}

// Aggregate is a named selection of tasks.
type Aggregate struct {
	Name   string
	Select func(t *Task) bool
}

// Registry holds every task and aggregate of a single build plan, in
// registration order.
type Registry struct {
	tasks      map[string]*Task
	order      []string
	aggregates map[string]*Aggregate
	aggOrder   []string
}

// New creates and initializes an empty Registry.
func New() *Registry {
	return &Registry{
		tasks:      make(map[string]*Task),
		aggregates: make(map[string]*Aggregate),
	}
}

// Register adds a task. Registering the same name twice is a programming
// error.
func (r *Registry) Register(t *Task) {
	if r.taken(t.Name) {
		panic(fmt.Sprintf("task with name '%s' already registered", t.Name))
	}
	slog.Debug("Registering task.", "name", t.Name, "kind", t.Kind, "deps", t.DependsOn)
	r.tasks[t.Name] = t
	r.order = append(r.order, t.Name)
}

// RegisterAggregate adds a named task selection.
func (r *Registry) RegisterAggregate(a *Aggregate) {
	if r.taken(a.Name) {
		panic(fmt.Sprintf("aggregate with name '%s' already registered", a.Name))
	}
	slog.Debug("Registering aggregate.", "name", a.Name)
	r.aggregates[a.Name] = a
	r.aggOrder = append(r.aggOrder, a.Name)
}

func (r *Registry) taken(name string) bool {
	_, isTask := r.tasks[name]
	_, isAgg := r.aggregates[name]
	return isTask || isAgg
}

// Task looks a task up by name.
func (r *Registry) Task(name string) (*Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Tasks returns every task in registration order.
func (r *Registry) Tasks() []*Task {
	out := make([]*Task, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tasks[name])
	}
	return out
}

// Names returns every task name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Aggregates returns the aggregate names in registration order.
func (r *Registry) Aggregates() []string {
	return append([]string(nil), r.aggOrder...)
}

// Resolve expands task and aggregate names into task names, in registration
// order and without duplicates. Dependencies are not included.
func (r *Registry) Resolve(names ...string) ([]string, error) {
	selected := make(map[string]bool)
	for _, name := range names {
		if _, ok := r.tasks[name]; ok {
			selected[name] = true
			continue
		}
		agg, ok := r.aggregates[name]
		if !ok {
			return nil, fmt.Errorf("unknown task or aggregate '%s'", name)
		}
		for _, taskName := range r.order {
			if agg.Select(r.tasks[taskName]) {
				selected[taskName] = true
			}
		}
	}

	out := make([]string, 0, len(selected))
	for _, name := range r.order {
		if selected[name] {
			out = append(out, name)
		}
	}
	return out, nil
}
