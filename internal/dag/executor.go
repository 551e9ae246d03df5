package dag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

// ErrSkipped marks a task that never ran because a dependency failed or the
// run was cancelled.
var ErrSkipped = errors.New("skipped")

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 4

// Executor runs selections of registered tasks.
type Executor struct {
	registry   *registry.Registry
	numWorkers int
}

// NewExecutor creates an Executor over reg. A non-positive worker count
// selects DefaultWorkers.
func NewExecutor(reg *registry.Registry, workers int) *Executor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Executor{registry: reg, numWorkers: workers}
}

// Report holds one Result per scheduled task in registration order.
type Report struct {
	Results []runner.Result
}

// Result returns the result of a task.
func (r *Report) Result(task string) (runner.Result, bool) {
	for _, res := range r.Results {
		if res.Task == task {
			return res, true
		}
	}
	return runner.Result{}, false
}

// Failed returns the results of tasks that ran and failed.
func (r *Report) Failed() []runner.Result {
	var out []runner.Result
	for _, res := range r.Results {
		if res.Status == runner.StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Skipped returns the results of tasks that never ran.
func (r *Report) Skipped() []runner.Result {
	var out []runner.Result
	for _, res := range r.Results {
		if res.Status == runner.StatusSkipped {
			out = append(out, res)
		}
	}
	return out
}

// Err returns the first real failure wrapped with the list of failed tasks,
// or nil when nothing failed. Skips are symptoms, not causes.
func (r *Report) Err() error {
	var failedNodes []string
	var rootCauseError error
	for _, res := range r.Results {
		if res.Status != runner.StatusFailed {
			continue
		}
		failedNodes = append(failedNodes, res.Task)
		if rootCauseError == nil {
			rootCauseError = res.Err
		}
	}
	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}
	if skipped := r.Skipped(); len(skipped) > 0 {
		return fmt.Errorf("execution incomplete for %d task(s): %w", len(skipped), skipped[0].Err)
	}
	return nil
}

// Run executes the named tasks and aggregates together with every task they
// depend on. The returned error covers selection and graph problems only;
// task outcomes are in the Report.
func (e *Executor) Run(ctx context.Context, targets ...string) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	nodes, err := e.schedule(targets)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	if len(nodes) == 0 {
		logger.Info("Nothing to run.", "targets", targets)
		return report, nil
	}

	readyChan := make(chan *taskNode, len(nodes))
	var wg sync.WaitGroup
	wg.Add(len(nodes))

	logger.Debug("Initializing executor, finding root nodes...")
	for _, n := range nodes {
		if n.depCount.Load() == 0 {
			readyChan <- n
		}
	}

	workers := min(e.numWorkers, len(nodes))
	logger.Debug("Starting worker pool.", "workers", workers, "tasks", len(nodes))
	for i := 0; i < workers; i++ {
		go e.worker(ctx, readyChan, &wg, i)
	}

	wg.Wait()
	close(readyChan)
	logger.Debug("All tasks completed.")

	for _, n := range nodes {
		report.Results = append(report.Results, n.result)
	}
	return report, nil
}

// Graph returns the dependency graph of the named tasks and aggregates
// together with every task they depend on. Edges point from a dependency
// to its dependent.
func (e *Executor) Graph(targets ...string) (*Graph, error) {
	selected, err := e.registry.Resolve(targets...)
	if err != nil {
		return nil, err
	}

	g := New()
	var visit func(name string) error
	visit = func(name string) error {
		if g.Has(name) {
			return nil
		}
		t, ok := e.registry.Task(name)
		if !ok {
			return fmt.Errorf("unknown dependency '%s'", name)
		}
		g.AddNode(name)
		for _, dep := range t.DependsOn {
			if err := visit(dep); err != nil {
				return fmt.Errorf("task '%s': %w", name, err)
			}
			if err := g.AddEdge(dep, name); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range selected {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating task graph: %w", err)
	}
	return g, nil
}

// schedule collects the selected tasks and their dependency closure into
// task nodes with initialized counters, in registration order.
func (e *Executor) schedule(targets []string) ([]*taskNode, error) {
	g, err := e.Graph(targets...)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*taskNode)
	var nodes []*taskNode
	for _, name := range e.registry.Names() {
		if !g.Has(name) {
			continue
		}
		t, _ := e.registry.Task(name)
		n := &taskNode{task: t, result: runner.Result{Task: name}}
		byName[name] = n
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		deps, _ := g.Dependencies(n.task.Name)
		for _, dep := range deps {
			d := byName[dep]
			n.deps = append(n.deps, d)
			d.dependents = append(d.dependents, n)
		}
		n.depCount.Store(int32(len(n.deps)))
	}
	return nodes, nil
}

// skipDependents recursively marks all downstream nodes as skipped.
func (e *Executor) skipDependents(ctx context.Context, n *taskNode, wg *sync.WaitGroup) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range n.dependents {
		if !dependent.claim(finished) {
			continue
		}
		logger.Warn("Skipping dependent task due to upstream failure.", "task", dependent.task.Name, "dependency", n.task.Name)
		dependent.result = runner.Result{
			Task:   dependent.task.Name,
			Status: runner.StatusSkipped,
			Err:    fmt.Errorf("%w: upstream failure of '%s'", ErrSkipped, n.task.Name),
		}
		e.skipDependents(ctx, dependent, wg)
		wg.Done()
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *taskNode, wg *sync.WaitGroup, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "task", n.task.Name)

		if err := ctx.Err(); err != nil {
			if n.claim(finished) {
				workerLogger.Warn("Context canceled, skipping task.")
				n.result = runner.Result{
					Task:   n.task.Name,
					Status: runner.StatusSkipped,
					Err:    fmt.Errorf("%w: %w", ErrSkipped, err),
				}
				e.skipDependents(ctx, n, wg)
				wg.Done()
			}
			continue
		}

		if !n.claim(running) {
			// Already skipped through another failed dependency.
			continue
		}

		workerLogger.Debug("Worker picked up task for execution.")
		fn := n.task.Fn
		if fn == nil {
			fn = func(context.Context) error { return fmt.Errorf("task '%s' has no function", n.task.Name) }
		}
		n.result = runner.Isolate(ctx, n.task.Name, fn)
		n.state.Store(int32(finished))

		if !n.result.OK() {
			e.skipDependents(ctx, n, wg)
			wg.Done()
			continue
		}

		for _, dependent := range n.dependents {
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent task.", "dependent", dependent.task.Name)
				readyChan <- dependent
			}
		}
		wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
