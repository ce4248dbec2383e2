// Package taskgroup runs independent tasks concurrently and waits for all of
// them. A failing task never cancels or short-circuits its siblings: its
// error is returned as data in its Result.
package taskgroup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one task.
type Result[T any] struct {
	Name     string
	Value    T
	Err      error
	Start    time.Time
	Duration time.Duration
}

// Group collects tasks until Wait is called. It is not reusable.
type Group[T any] struct {
	eg      errgroup.Group
	results []*Result[T]
	timeout time.Duration
}

// New creates a group. limit bounds how many tasks run at once (<= 0 means
// unbounded); timeout, when positive, is applied to each task separately.
func New[T any](limit int, timeout time.Duration) *Group[T] {
	g := &Group[T]{timeout: timeout}
	if limit > 0 {
		g.eg.SetLimit(limit)
	}
	return g
}

// Go schedules fn. Must not be called after Wait.
func (g *Group[T]) Go(ctx context.Context, name string, fn func(ctx context.Context) (T, error)) {
	res := &Result[T]{Name: name}
	g.results = append(g.results, res)

	g.eg.Go(func() error {
		taskCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		start := time.Now()
		value, err := run(taskCtx, fn)
		if err == nil && taskCtx.Err() != nil {
			// The task returned after its deadline; its value is not trusted
			err = taskCtx.Err()
		}

		res.Value = value
		res.Err = err
		res.Start = start
		res.Duration = time.Since(start)
		return nil
	})
}

// Wait blocks until every task has finished and returns the results in the
// order the tasks were scheduled.
func (g *Group[T]) Wait() []Result[T] {
	_ = g.eg.Wait()
	out := make([]Result[T], len(g.results))
	for i, res := range g.results {
		out[i] = *res
	}
	return out
}

func run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}
