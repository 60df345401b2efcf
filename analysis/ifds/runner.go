// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ifds

import (
	"context"
	"errors"
	"fmt"
)

type runnerState int

const (
	runnerAlive runnerState = iota
	runnerTornDown
	runnerFailed
)

func (s runnerState) String() string {
	switch s {
	case runnerAlive:
		return "alive"
	case runnerTornDown:
		return "torn down"
	case runnerFailed:
		return "failed"
	}
	return "?"
}

type runnerMessage interface {
	isRunnerMessage()
}

// seedMessage asks the runner to seed the start facts of methods
type seedMessage struct {
	methods []Method
}

// edgeMessage carries an edge sent by another unit
type edgeMessage struct {
	edge Edge
}

// factMessage carries a summary fact delivered by a subscription
type factMessage struct {
	fact SummaryFact
}

func (seedMessage) isRunnerMessage() {}
func (edgeMessage) isRunnerMessage() {}
func (factMessage) isRunnerMessage() {}

// unitRunner owns the solvers of a unit and runs them in its own goroutine. The solvers are only accessed by that
// goroutine while it runs, and by the manager once it has returned.
type unitRunner struct {
	unit    UnitID
	manager *Manager
	forward *Solver
	bidi    *bidiCoordinator
	inbox   *mailbox[runnerMessage]
	ctx     context.Context
	cancel  context.CancelFunc

	// guarded by manager.mu
	state   runnerState
	pending int
	err     error
}

// Deliver implements SummarySink: summary edges of subscriptions are posted to the runner's mailbox. The other
// facts of the store are only read once the analysis has finished.
func (r *unitRunner) Deliver(fact SummaryFact) {
	if _, ok := fact.(SummaryEdgeFact); !ok {
		return
	}
	if !r.manager.post(r.unit, factMessage{fact: fact}) {
		r.manager.dropped(func(s *Stats) { s.DroppedFacts++ })
	}
}

// run processes the messages of the mailbox until the runner's context is done. After each batch of messages, the
// solvers run to their fixed point before the manager is told the work is done.
func (r *unitRunner) run() error {
	for {
		msgs := r.inbox.drain()
		if len(msgs) == 0 {
			select {
			case <-r.inbox.wake:
				continue
			case <-r.ctx.Done():
				return r.ctx.Err()
			}
		}
		for _, msg := range msgs {
			r.apply(msg)
		}
		if err := r.solve(); err != nil {
			return err
		}
		r.manager.workDone(r, len(msgs))
	}
}

func (r *unitRunner) apply(msg runnerMessage) {
	switch msg := msg.(type) {
	case seedMessage:
		r.forward.Seed(msg.methods)
	case edgeMessage:
		r.forward.SubmitExternalEdge(msg.edge)
	case factMessage:
		r.forward.OnSummaryFact(msg.fact)
	}
}

func (r *unitRunner) solve() error {
	if r.bidi != nil {
		return r.bidi.run(r.ctx)
	}
	return r.forward.RunToFixedPoint(r.ctx)
}

// runUnit runs r until it is torn down or cancelled. A panic in the unit only fails that unit, except routing errors
// which abort the whole analysis.
func (m *Manager) runUnit(r *unitRunner) (err error) {
	defer func() {
		if p := recover(); p != nil {
			var re *RoutingError
			if e, ok := p.(error); ok && errors.As(e, &re) {
				err = fmt.Errorf("routing error in unit %s: %w", r.unit, re)
				return
			}
			m.unitFailed(r, fmt.Errorf("analysis of unit %s failed: %v", r.unit, p))
			err = nil
		}
	}()
	if err := r.run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
