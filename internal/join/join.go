// Package join implements the Join Executor (§4.4): an N-table nested
// loop driven by the predicate-separation algorithm — single-table
// predicates pre-filter each table via the Filter Driver, cross-table
// predicates prune the incrementally built working set.
package join

import (
	"github.com/oakdb/oakdb/internal/oakerr"
	"github.com/oakdb/oakdb/internal/predicate"
	"github.com/oakdb/oakdb/internal/record"
)

// Tuple is one joined row: one record.Row per bound table, in the
// statement's textual table order.
type Tuple []record.Row

// Plan is an already-partitioned, already-compiled join: per-table
// single-table predicates live in the Filter Driver call the caller
// makes to produce Rows; Plan only holds the cross-table matrix and
// drives the incremental nested loop over pre-filtered row sets.
type Plan struct {
	K     int                     // number of tables
	Cross [][]predicate.PairPred // len K*K; Cross[i*K+j] is a list ANDed together, possibly empty
}

// NewPlan allocates an empty K-table cross matrix.
func NewPlan(k int) *Plan {
	return &Plan{K: k, Cross: make([][]predicate.PairPred, k*k)}
}

// CheckDupTables rejects a FROM clause naming the same table twice
// (§4.4: "Duplicate table names in a single query => DupTable").
func CheckDupTables(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return oakerr.New(oakerr.DupTable, "table %q bound more than once", n)
		}
		seen[n] = true
	}
	return nil
}

// Set appends a compiled pair-predicate to the (i, j) slot. Multiple
// WHERE comparisons naming the same (i, j) table pair accumulate here
// and are reduced by short-circuit AND (§4.2), rather than the last
// one overwriting the rest.
func (p *Plan) Set(i, j int, pred predicate.PairPred) {
	p.Cross[i*p.K+j] = append(p.Cross[i*p.K+j], pred)
}

func (p *Plan) get(i, j int) []predicate.PairPred { return p.Cross[i*p.K+j] }

// Run executes the incremental nested loop (§4.4 steps 2-4) given, for
// each table i, its filter-driver-surviving row set Rows[i] (already
// in Filter Driver visit order — ascending slot, page-chain order, or
// index order).
func (p *Plan) Run(rows [][]record.Row) ([]Tuple, error) {
	if len(rows) != p.K {
		return nil, oakerr.New(oakerr.DupTable, "join plan expects %d tables, got %d row sets", p.K, len(rows))
	}
	if p.K == 0 {
		return nil, nil
	}

	working := make([]Tuple, 0, len(rows[0]))
	for _, r0 := range rows[0] {
		working = append(working, Tuple{r0})
	}

	for r := 1; r < p.K; r++ {
		var next []Tuple
		for _, t := range working {
			for _, s := range rows[r] {
				if acceptPair(p, t, s, r) {
					nt := make(Tuple, len(t), len(t)+1)
					copy(nt, t)
					next = append(next, append(nt, s))
				}
			}
		}
		working = next
	}
	return working, nil
}

// acceptPair checks every earlier table l < r against the candidate
// row s for table r, symmetrically (§4.4 step 3): every predicate in
// cross[l*k+r] applied to (t[l],s) AND every predicate in cross[r*k+l]
// applied to (s,t[l]) must hold, for every l.
func acceptPair(p *Plan, t Tuple, s record.Row, r int) bool {
	for l := 0; l < r; l++ {
		for _, pred := range p.get(l, r) {
			if !pred(t[l], s) {
				return false
			}
		}
		for _, pred := range p.get(r, l) {
			if !pred(s, t[l]) {
				return false
			}
		}
	}
	return true
}
