// Package index implements the B+ index interface the Filter Driver and
// Mutator consume (§6 "Index interface (consumed)"): insert, delete,
// point_scan and range_scan over ordered key bytes mapping to Rids.
//
// The on-disk B+Tree itself is an external collaborator whose contract
// is fixed by the specification, not its storage format (§1 Non-goals:
// "The on-disk B+ index (§6 fixes the index interface)"). Index backs
// the contract with an ordered in-memory structure; a future on-disk
// implementation would satisfy the same Index interface.
package index

import (
	"bytes"
	"sort"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/record"
)

// entry is one (key, rid) pair, kept sorted by Key.
type entry struct {
	Key []byte
	Rid record.Rid
}

// Index is an ordered map from column-value bytes to Rid (GLOSSARY
// "Index"), maintained exclusively by the Mutator (§4.6: "The index is
// mutated only by the Mutator, never by scans").
type Index struct {
	entries []entry // sorted ascending by Key
}

// New returns an empty index.
func New() *Index { return &Index{} }

func (ix *Index) search(key []byte) (pos int, found bool) {
	pos = sort.Search(len(ix.entries), func(i int) bool {
		return bytes.Compare(ix.entries[i].Key, key) >= 0
	})
	if pos < len(ix.entries) && bytes.Equal(ix.entries[pos].Key, key) {
		found = true
	}
	return pos, found
}

// Insert adds one (key, rid) entry. NULL values are never inserted
// (§3 "Index entry": "NULL values are never present in indexes") — the
// Mutator is responsible for not calling Insert for a NULL column.
func (ix *Index) Insert(key []byte, rid record.Rid) {
	pos, _ := ix.search(key)
	// Advance past any existing entries with the same key so that
	// equal keys sort by insertion order, matching heap-scan order
	// for duplicate-key lookups.
	for pos < len(ix.entries) && bytes.Equal(ix.entries[pos].Key, key) {
		pos++
	}
	ix.entries = append(ix.entries, entry{})
	copy(ix.entries[pos+1:], ix.entries[pos:])
	ix.entries[pos] = entry{Key: append([]byte(nil), key...), Rid: rid}
}

// Delete removes the entry matching (key, rid) exactly. It is a no-op
// if no such entry exists.
func (ix *Index) Delete(key []byte, rid record.Rid) {
	pos, found := ix.search(key)
	if !found {
		return
	}
	for i := pos; i < len(ix.entries) && bytes.Equal(ix.entries[i].Key, key); i++ {
		if ix.entries[i].Rid == rid {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return
		}
	}
}

// PointScan returns every Rid stored under key, in index order.
func (ix *Index) PointScan(key []byte) []record.Rid {
	pos, found := ix.search(key)
	if !found {
		return nil
	}
	var out []record.Rid
	for i := pos; i < len(ix.entries) && bytes.Equal(ix.entries[i].Key, key); i++ {
		out = append(out, ix.entries[i].Rid)
	}
	return out
}

// RangeScan returns every Rid whose key satisfies `key OP bound`, in
// index order (§4.3: "index-backed scans visit keys in index order").
// op must be one of Lt, Le, Ge, Gt, Eq; Eq behaves like PointScan.
func (ix *Index) RangeScan(op ast.CmpOp, bound []byte) []record.Rid {
	var out []record.Rid
	switch op {
	case ast.Eq:
		return ix.PointScan(bound)
	case ast.Lt:
		pos, _ := ix.search(bound)
		for i := 0; i < pos; i++ {
			out = append(out, ix.entries[i].Rid)
		}
	case ast.Le:
		pos, found := ix.search(bound)
		end := pos
		if found {
			for end < len(ix.entries) && bytes.Equal(ix.entries[end].Key, bound) {
				end++
			}
		}
		for i := 0; i < end; i++ {
			out = append(out, ix.entries[i].Rid)
		}
	case ast.Ge:
		pos, _ := ix.search(bound)
		for i := pos; i < len(ix.entries); i++ {
			out = append(out, ix.entries[i].Rid)
		}
	case ast.Gt:
		pos, found := ix.search(bound)
		start := pos
		if found {
			for start < len(ix.entries) && bytes.Equal(ix.entries[start].Key, bound) {
				start++
			}
		}
		for i := start; i < len(ix.entries); i++ {
			out = append(out, ix.entries[i].Rid)
		}
	}
	return out
}

// Len reports the number of entries currently in the index, used by
// tests to reason about index population without depending on internal
// layout.
func (ix *Index) Len() int { return len(ix.entries) }
