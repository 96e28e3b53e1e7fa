// Package coverage records which documented (operation, response) pairs
// a test run exercised.
//
// A Tracker is built from a definition and shared by every request of a
// run. Recording is lock-free for documented pairs, so it can sit on the
// hot path of a middleware serving concurrent tests.
package coverage

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/httpvalidator"
)

// Pair identifies a documented response of an operation. Status is the
// declared response key, e.g. "200", "4XX", or "default".
type Pair struct {
	OperationID string `json:"operationId"`
	Status      string `json:"status"`
}

// String returns "<operationId> <status>".
func (p Pair) String() string {
	return p.OperationID + " " + p.Status
}

// Tracker counts exercised pairs. It is safe for concurrent use.
type Tracker struct {
	def    *definition.Definition
	pairs  []Pair
	index  map[Pair]int
	counts []atomic.Int64

	// undeclared holds pairs recorded outside the definition, keyed by
	// Pair with *atomic.Int64 values.
	undeclared sync.Map
}

// New returns a Tracker for every declared response of def, in
// declaration order.
func New(def *definition.Definition) *Tracker {
	t := &Tracker{def: def, index: make(map[Pair]int)}
	for _, op := range def.Operations() {
		for _, resp := range op.Responses {
			p := Pair{OperationID: op.ID, Status: resp.Status}
			t.index[p] = len(t.pairs)
			t.pairs = append(t.pairs, p)
		}
	}
	t.counts = make([]atomic.Int64, len(t.pairs))
	return t
}

// Record marks a pair as exercised. It reports whether the pair is
// declared in the definition; undeclared pairs are still counted and
// listed by Undeclared.
func (t *Tracker) Record(operationID, status string) bool {
	p := Pair{OperationID: operationID, Status: status}
	if i, ok := t.index[p]; ok {
		t.counts[i].Add(1)
		return true
	}
	v, _ := t.undeclared.LoadOrStore(p, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
	return false
}

// RecordResponse records the pair a validated response resolved to.
// Responses with an undocumented status are recorded under their numeric
// status code.
func (t *Tracker) RecordResponse(r *httpvalidator.ResponseResult) bool {
	if r == nil || r.Operation == nil {
		return false
	}
	status := r.ResponseKey
	if status == "" {
		status = strconv.Itoa(r.StatusCode)
	}
	return t.Record(r.Operation.ID, status)
}

// Count returns how often a pair was recorded.
func (t *Tracker) Count(operationID, status string) int64 {
	p := Pair{OperationID: operationID, Status: status}
	if i, ok := t.index[p]; ok {
		return t.counts[i].Load()
	}
	if v, ok := t.undeclared.Load(p); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}

// Declared returns every declared pair in declaration order.
func (t *Tracker) Declared() []Pair {
	return append([]Pair(nil), t.pairs...)
}

// Unexercised returns the declared pairs never recorded, in declaration
// order.
func (t *Tracker) Unexercised() []Pair {
	var out []Pair
	for i, p := range t.pairs {
		if t.counts[i].Load() == 0 {
			out = append(out, p)
		}
	}
	return out
}

// Undeclared returns recorded pairs that the definition does not
// declare, sorted.
func (t *Tracker) Undeclared() []Pair {
	var out []Pair
	t.undeclared.Range(func(k, _ any) bool {
		out = append(out, k.(Pair))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].OperationID != out[j].OperationID {
			return out[i].OperationID < out[j].OperationID
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// Reset clears every count for a new run.
func (t *Tracker) Reset() {
	for i := range t.counts {
		t.counts[i].Store(0)
	}
	t.undeclared.Range(func(k, _ any) bool {
		t.undeclared.Delete(k)
		return true
	})
}

// ResponseCoverage is the count of one declared response.
type ResponseCoverage struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// OperationCoverage groups the responses of one operation.
type OperationCoverage struct {
	ID        string             `json:"id"`
	Method    string             `json:"method"`
	Path      string             `json:"path"`
	Responses []ResponseCoverage `json:"responses"`
}

// Report is a snapshot of a tracker.
type Report struct {
	Declared   int                 `json:"declared"`
	Exercised  int                 `json:"exercised"`
	Operations []OperationCoverage `json:"operations"`
	Undeclared []Pair              `json:"undeclared,omitempty"`
}

// Percent returns the share of declared pairs exercised, from 0 to 100.
// A definition without responses is fully covered.
func (r Report) Percent() float64 {
	if r.Declared == 0 {
		return 100
	}
	return float64(r.Exercised) * 100 / float64(r.Declared)
}

// String returns a one-line summary.
func (r Report) String() string {
	return fmt.Sprintf("%d/%d responses exercised (%.1f%%)", r.Exercised, r.Declared, r.Percent())
}

// Report returns a snapshot of all counts.
func (t *Tracker) Report() Report {
	r := Report{Declared: len(t.pairs), Undeclared: t.Undeclared()}
	i := 0
	for _, op := range t.def.Operations() {
		oc := OperationCoverage{ID: op.ID, Method: op.Method, Path: op.Path}
		for range op.Responses {
			n := t.counts[i].Load()
			if n > 0 {
				r.Exercised++
			}
			oc.Responses = append(oc.Responses, ResponseCoverage{Status: t.pairs[i].Status, Count: n})
			i++
		}
		r.Operations = append(r.Operations, oc)
	}
	return r
}
