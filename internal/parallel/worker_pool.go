// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel redacts several documents at once. A Runner admits one
// run at a time, so every worker owns its own processor.
package parallel

import (
	"context"
	"sort"
	"sync"
	"time"

	"docguard/internal/documents"
	"docguard/internal/observability"
)

// Processor redacts one file
type Processor interface {
	Process(ctx context.Context, path string) (documents.Outcome, error)
}

// ProcessorFactory builds the processor owned by one worker
type ProcessorFactory func() Processor

// Job represents a file processing task
type Job struct {
	Index int
	Path  string
}

// Result represents processing results
type Result struct {
	Job
	Outcome  documents.Outcome
	Err      error
	Duration time.Duration
}

// WorkerPool manages parallel document processing
type WorkerPool struct {
	workers  int
	factory  ProcessorFactory
	jobs     chan Job
	results  chan Result
	wg       sync.WaitGroup
	observer *observability.StandardObserver
}

// NewWorkerPool creates a pool of at least one worker
func NewWorkerPool(workers int, factory ProcessorFactory, observer *observability.StandardObserver) *WorkerPool {
	workers = max(workers, 1)
	if observer == nil {
		observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	return &WorkerPool{
		workers:  workers,
		factory:  factory,
		jobs:     make(chan Job, workers*2),
		results:  make(chan Result, workers*2),
		observer: observer,
	}
}

// Start initializes worker goroutines
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, wp.factory())
	}
}

// Submit queues a job. It returns false when ctx is cancelled first.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops accepting jobs. Results is closed once every queued job is done.
func (wp *WorkerPool) Close() {
	close(wp.jobs)
	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
}

// Results returns the results channel
func (wp *WorkerPool) Results() <-chan Result {
	return wp.results
}

func (wp *WorkerPool) worker(ctx context.Context, processor Processor) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		if ctx.Err() != nil {
			wp.results <- Result{Job: job, Err: ctx.Err()}
			continue
		}
		wp.results <- wp.processJob(ctx, processor, job)
	}
}

func (wp *WorkerPool) processJob(ctx context.Context, processor Processor, job Job) Result {
	start := time.Now()
	finishTiming := wp.observer.StartTiming("worker_pool", "process_job", job.Path)

	outcome, err := processor.Process(ctx, job.Path)

	result := Result{Job: job, Outcome: outcome, Err: err, Duration: time.Since(start)}
	finishTiming(err == nil, map[string]interface{}{"index": job.Index})
	return result
}

// ProcessAll redacts paths with the given number of workers and returns the
// results in input order.
func ProcessAll(ctx context.Context, workers int, factory ProcessorFactory, observer *observability.StandardObserver, paths []string) []Result {
	wp := NewWorkerPool(workers, factory, observer)
	wp.Start(ctx)

	go func() {
		defer wp.Close()
		for i, path := range paths {
			if !wp.Submit(ctx, Job{Index: i, Path: path}) {
				return
			}
		}
	}()

	results := make([]Result, 0, len(paths))
	for r := range wp.Results() {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}
