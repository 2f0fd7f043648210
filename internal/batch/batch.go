// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package batch verifies many proofs concurrently, one merkle/smt.State
// per goroutine per the engine's concurrency contract. Its fan-out shape
// (a bounded work queue feeding a pool of workers, each of which inserts
// its results into one mutex-guarded ordered tree) is adapted from
// merkle.subtreeWriter.buildSubtree's leafQueue/root channel pattern.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/google/btree"

	"github.com/google/smtverify/internal/metrics"
	"github.com/google/smtverify/merkle/smt"
)

// Job is one proof to verify.
type Job struct {
	Tag   string // caller-supplied label, carried through to Result
	Root  smt.Digest
	State *smt.State
	Proof []byte
}

// Result is the outcome of verifying one Job.
type Result struct {
	Job Job
	Err error
}

// resultItem adapts Result to btree.Item, ordering by root bytes so
// Verifier.Drain can hand results back in canonical, root-sorted order
// regardless of which worker finished first.
type resultItem struct{ Result }

func (r resultItem) Less(than btree.Item) bool {
	return bytes.Compare(r.Job.Root[:], than.(resultItem).Job.Root[:]) < 0
}

// Verifier runs a bounded pool of workers verifying Jobs submitted via
// Submit. Each worker owns no shared mutable state beyond the result
// tree, which is guarded by a mutex.
type Verifier struct {
	jobs chan Job
	wg   sync.WaitGroup

	mu   sync.Mutex
	tree *btree.BTree

	inst metrics.Verifier
}

// NewVerifier starts workers goroutines ready to accept Jobs. workers <= 0
// is treated as 1.
func NewVerifier(workers int) *Verifier {
	if workers <= 0 {
		workers = 1
	}
	v := &Verifier{
		jobs: make(chan Job, workers*4),
		tree: btree.New(32),
	}
	v.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go v.worker()
	}
	return v
}

func (v *Verifier) worker() {
	defer v.wg.Done()
	for job := range v.jobs {
		err := v.inst.Verify(job.Root, job.State, job.Proof)
		if err != nil {
			glog.V(2).Infof("batch: verify failed for %x: %v", job.Root, err)
		}
		v.mu.Lock()
		v.tree.ReplaceOrInsert(resultItem{Result{Job: job, Err: err}})
		v.mu.Unlock()
	}
}

// Submit enqueues job for verification. It blocks if the internal queue
// is full and ctx is not done.
func (v *Verifier) Submit(ctx context.Context, job Job) error {
	select {
	case v.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("batch: submit: %w", ctx.Err())
	}
}

// Close stops accepting new jobs and blocks until every submitted job has
// been verified.
func (v *Verifier) Close() {
	close(v.jobs)
	v.wg.Wait()
}

// Drain returns every completed Result in ascending root order. Call
// after Close.
func (v *Verifier) Drain() []Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Result, 0, v.tree.Len())
	v.tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(resultItem).Result)
		return true
	})
	return out
}
