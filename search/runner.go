package search

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/YuminosukeSato/hedonic/core/parallel"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/pkg/log"
)

// Outcome is what a task reports for its cell.
type Outcome struct {
	// R2 is the hold-out R², NaN when the cell produced no usable model.
	R2 float64
	// Warning is a non-fatal condition, e.g. a ConvergenceWarning.
	Warning error
	// Details carries family-specific diagnostics such as the selected λ.
	Details map[string]float64
}

// Task fits and scores one variant.
type Task struct {
	Variant Variant
	Seed    uint64
	Run     func(ctx context.Context, seed uint64) (Outcome, error)
}

// NewTask derives the task seed from base and the variant key.
func NewTask(base uint64, v Variant, run func(ctx context.Context, seed uint64) (Outcome, error)) Task {
	return Task{Variant: v, Seed: DeriveSeedKey(base, v.Key()), Run: run}
}

// Result is one row of an R² table.
type Result struct {
	Variant  Variant
	Seed     uint64
	R2       float64
	Warning  error
	Err      error
	Details  map[string]float64
	Duration time.Duration
}

// Usable reports whether the result can take part in selection.
func (r Result) Usable() bool {
	return r.Err == nil && !math.IsNaN(r.R2) && !math.IsInf(r.R2, 0)
}

// Runner executes a list of tasks and returns one Result per task, in task
// order. A cancelled context stops dispatching and returns ctx.Err().
type Runner interface {
	Run(ctx context.Context, tasks []Task) (Results, error)
}

// Sequential runs tasks one after another.
type Sequential struct{}

// Run implements Runner.
func (Sequential) Run(ctx context.Context, tasks []Task) (Results, error) {
	return runTasks(ctx, tasks, 1)
}

// Parallel runs tasks on a pool of Workers goroutines. Workers <= 0 uses
// runtime.NumCPU().
type Parallel struct {
	Workers int
}

// Run implements Runner.
func (p Parallel) Run(ctx context.Context, tasks []Task) (Results, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return runTasks(ctx, tasks, workers)
}

func runTasks(ctx context.Context, tasks []Task, workers int) (Results, error) {
	if len(tasks) == 0 {
		return nil, errors.NewInvalidArgumentError("search.Run", "tasks", "grid is empty", 0)
	}
	logger := log.GetLogger().With(log.ComponentKey, "search", log.OperationKey, log.OperationSearch)
	logger.Debug("Grid search started", log.CellsKey, len(tasks), log.WorkersKey, workers)

	results := make(Results, len(tasks))
	err := parallel.ForEach(ctx, len(tasks), workers, func(i int) {
		results[i] = runTask(ctx, tasks[i], logger)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func runTask(ctx context.Context, task Task, logger log.Logger) Result {
	key := task.Variant.Key()
	start := time.Now()

	var out Outcome
	err := errors.SafeExecute("search cell "+key, func() error {
		var runErr error
		out, runErr = task.Run(ctx, task.Seed)
		return runErr
	})

	res := Result{
		Variant:  task.Variant,
		Seed:     task.Seed,
		R2:       out.R2,
		Warning:  out.Warning,
		Details:  out.Details,
		Duration: time.Since(start),
	}
	if err != nil {
		res.R2 = math.NaN()
		res.Err = err
		logger.Warn("Grid cell failed", log.CellKey, key, log.ErrAttrKey, err)
		return res
	}
	if res.Warning != nil {
		logger.Warn("Grid cell finished with a warning", log.CellKey, key, log.R2ScoreKey, res.R2, log.ErrAttrKey, res.Warning)
		return res
	}
	logger.Debug("Grid cell evaluated",
		log.CellKey, key,
		log.R2ScoreKey, res.R2,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res
}
