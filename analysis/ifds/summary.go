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
	"fmt"
	"sync"
)

// SummaryFact is a fact published in the summary store. Every summary fact is keyed by a method. The set of summary
// facts is closed.
type SummaryFact interface {
	fmt.Stringer
	// Method returns the method the fact is stored under
	Method() Method
	isSummaryFact()
}

// SummaryEdgeFact is a summary edge of a method: a path edge from an entry vertex to an exit vertex
type SummaryEdgeFact struct {
	Edge Edge
}

// VulnerabilityFact is a vulnerability, keyed by the method of its sink
type VulnerabilityFact struct {
	Vulnerability Vulnerability
}

// CrossUnitCallFact records a call from a caller vertex to a callee start vertex in another unit. It is keyed by the
// callee method so that traces can be continued in the caller's unit.
type CrossUnitCallFact struct {
	Caller Vertex
	Callee Vertex
}

func (f SummaryEdgeFact) Method() Method   { return f.Edge.Method() }
func (f VulnerabilityFact) Method() Method { return f.Vulnerability.Sink.Method() }
func (f CrossUnitCallFact) Method() Method { return f.Callee.Method() }

func (f SummaryEdgeFact) String() string   { return "summary " + f.Edge.String() }
func (f VulnerabilityFact) String() string { return "vulnerability " + f.Vulnerability.String() }
func (f CrossUnitCallFact) String() string {
	return fmt.Sprintf("cross-unit call %s -> %s", f.Caller, f.Callee)
}

func (SummaryEdgeFact) isSummaryFact()   {}
func (VulnerabilityFact) isSummaryFact() {}
func (CrossUnitCallFact) isSummaryFact() {}

// SummarySink receives the facts of a subscription. Deliver is called with the store locked: it must not block and
// must not call back into the store.
type SummarySink interface {
	Deliver(fact SummaryFact)
}

// SummaryStore is the shared, thread-safe store of summary facts. For each method, the store keeps an append-only
// log of distinct facts. A subscriber receives every fact of the log exactly once, in the order they were sent: the
// facts already stored when it subscribed, then every new fact.
type SummaryStore struct {
	mu     sync.Mutex
	logs   map[Method]*methodLog
	order  []Method
	nextID int
}

type methodLog struct {
	facts    []SummaryFact
	seen     map[SummaryFact]bool
	sinks    map[int]SummarySink
	sinkList []int
}

// NewSummaryStore returns an empty store
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{logs: map[Method]*methodLog{}}
}

func (s *SummaryStore) logOf(m Method) *methodLog {
	l, ok := s.logs[m]
	if !ok {
		l = &methodLog{seen: map[SummaryFact]bool{}, sinks: map[int]SummarySink{}}
		s.logs[m] = l
		s.order = append(s.order, m)
	}
	return l
}

// Send appends fact to the log of its method and delivers it to the subscribers of that method. Returns false if
// the fact was already stored, in which case nothing is delivered.
func (s *SummaryStore) Send(fact SummaryFact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.logOf(fact.Method())
	if l.seen[fact] {
		return false
	}
	l.seen[fact] = true
	l.facts = append(l.facts, fact)
	for _, id := range l.sinkList {
		if sink, ok := l.sinks[id]; ok {
			sink.Deliver(fact)
		}
	}
	return true
}

// Subscribe registers sink for the facts of m. The facts already stored are delivered before Subscribe returns.
// Calling the returned function cancels the subscription.
func (s *SummaryStore) Subscribe(m Method, sink SummarySink) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.logOf(m)
	id := s.nextID
	s.nextID++
	l.sinks[id] = sink
	l.sinkList = append(l.sinkList, id)
	for _, f := range l.facts {
		sink.Deliver(f)
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(l.sinks, id)
	}
}

// CurrentFacts returns a snapshot of the facts stored for m
func (s *SummaryStore) CurrentFacts(m Method) []SummaryFact {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[m]
	if !ok {
		return nil
	}
	return append([]SummaryFact(nil), l.facts...)
}

// Methods returns the methods that have a log in the store, in creation order
func (s *SummaryStore) Methods() []Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Method(nil), s.order...)
}

// Stream subscribes to the facts of m and returns them as a stream. The stream must be closed once unused.
func (s *SummaryStore) Stream(m Method) *Stream {
	st := &Stream{box: newMailbox[SummaryFact]()}
	st.cancel = s.Subscribe(m, st)
	return st
}

// Stream is an unbounded queue of the facts of a subscription
type Stream struct {
	box    *mailbox[SummaryFact]
	buf    []SummaryFact
	cancel func()
}

// Deliver implements SummarySink
func (st *Stream) Deliver(fact SummaryFact) {
	st.box.push(fact)
}

// TryRecv returns the next fact of the stream if one is available
func (st *Stream) TryRecv() (SummaryFact, bool) {
	if len(st.buf) == 0 {
		st.buf = st.box.drain()
	}
	if len(st.buf) == 0 {
		return nil, false
	}
	f := st.buf[0]
	st.buf = st.buf[1:]
	return f, true
}

// Recv blocks until the next fact is available or ctx is done
func (st *Stream) Recv(ctx context.Context) (SummaryFact, error) {
	for {
		if f, ok := st.TryRecv(); ok {
			return f, nil
		}
		select {
		case <-st.box.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close cancels the subscription of the stream
func (st *Stream) Close() {
	if st.cancel != nil {
		st.cancel()
	}
}
