package index

import (
	"reflect"
	"testing"

	"github.com/oakdb/oakdb/internal/ast"
	"github.com/oakdb/oakdb/internal/record"
	"github.com/oakdb/oakdb/internal/storage/page"
	"github.com/oakdb/oakdb/internal/storage/schema"
)

func rid(slot int) record.Rid { return record.Rid{Page: page.Pgno(1), Slot: slot} }

func key(n int32) []byte {
	return record.Value{Type: schema.Int32, I32: n}.KeyBytes()
}

func TestIndexInsertAndPointScan(t *testing.T) {
	ix := New()
	ix.Insert(key(5), rid(0))
	ix.Insert(key(7), rid(1))

	got := ix.PointScan(key(5))
	want := []record.Rid{rid(0)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PointScan(5) = %v, want %v", got, want)
	}

	if got := ix.PointScan(key(99)); got != nil {
		t.Fatalf("PointScan(99) = %v, want nil", got)
	}
}

func TestIndexInsertPreservesDuplicateKeyOrder(t *testing.T) {
	ix := New()
	ix.Insert(key(3), rid(0))
	ix.Insert(key(3), rid(1))
	ix.Insert(key(3), rid(2))

	got := ix.PointScan(key(3))
	want := []record.Rid{rid(0), rid(1), rid(2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PointScan(3) = %v, want %v (insertion order preserved)", got, want)
	}
	if ix.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ix.Len())
	}
}

func TestIndexDeleteRemovesOnlyMatchingEntry(t *testing.T) {
	ix := New()
	ix.Insert(key(3), rid(0))
	ix.Insert(key(3), rid(1))

	ix.Delete(key(3), rid(0))

	got := ix.PointScan(key(3))
	want := []record.Rid{rid(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PointScan(3) after deleting rid(0) = %v, want %v", got, want)
	}
}

func TestIndexDeleteNonexistentIsNoop(t *testing.T) {
	ix := New()
	ix.Insert(key(1), rid(0))
	ix.Delete(key(999), rid(0)) // no such key
	ix.Delete(key(1), rid(42))  // wrong rid
	if ix.Len() != 1 {
		t.Fatalf("Len() = %d after no-op deletes, want 1", ix.Len())
	}
}

func TestIndexRangeScanOperators(t *testing.T) {
	ix := New()
	for _, n := range []int32{1, 2, 3, 4, 5} {
		ix.Insert(key(n), rid(int(n)))
	}

	cases := []struct {
		op     ast.CmpOp
		bound  int32
		wantN  []int32
	}{
		{ast.Lt, 3, []int32{1, 2}},
		{ast.Le, 3, []int32{1, 2, 3}},
		{ast.Ge, 3, []int32{3, 4, 5}},
		{ast.Gt, 3, []int32{4, 5}},
		{ast.Eq, 3, []int32{3}},
	}
	for _, c := range cases {
		got := ix.RangeScan(c.op, key(c.bound))
		if len(got) != len(c.wantN) {
			t.Errorf("RangeScan(%v, %d) returned %d rids, want %d", c.op, c.bound, len(got), len(c.wantN))
			continue
		}
		for i, n := range c.wantN {
			if got[i] != rid(int(n)) {
				t.Errorf("RangeScan(%v, %d)[%d] = %v, want %v", c.op, c.bound, i, got[i], rid(int(n)))
			}
		}
	}
}

func TestIndexRangeScanOrdersByValueNotByteLayout(t *testing.T) {
	ix := New()
	ix.Insert(key(2), rid(2))
	ix.Insert(key(256), rid(256))

	got := ix.RangeScan(ast.Ge, key(100))
	if len(got) != 1 || got[0] != rid(256) {
		t.Fatalf("RangeScan(Ge, 100) over {2, 256} = %v, want [256] (little-endian byte order would wrongly drop 256)", got)
	}
}

func TestIndexRangeScanOrdersNegativeIntsBelowPositive(t *testing.T) {
	ix := New()
	ix.Insert(key(-1), rid(1))
	ix.Insert(key(0), rid(2))
	ix.Insert(key(1), rid(3))

	got := ix.RangeScan(ast.Lt, key(0))
	if len(got) != 1 || got[0] != rid(1) {
		t.Fatalf("RangeScan(Lt, 0) over {-1, 0, 1} = %v, want [-1] (raw byte order sorts -1 highest)", got)
	}
	got = ix.RangeScan(ast.Ge, key(0))
	if len(got) != 2 || got[0] != rid(2) || got[1] != rid(3) {
		t.Fatalf("RangeScan(Ge, 0) over {-1, 0, 1} = %v, want [0, 1]", got)
	}
}

func TestIndexRangeScanOrdersStringsLexicographically(t *testing.T) {
	strKey := func(s string) []byte { return record.Value{Type: schema.VarChar, Str: s}.KeyBytes() }

	ix := New()
	ix.Insert(strKey("aa"), rid(1))
	ix.Insert(strKey("z"), rid(2))

	got := ix.RangeScan(ast.Lt, strKey("b"))
	if len(got) != 1 || got[0] != rid(1) {
		t.Fatalf("RangeScan(Lt, \"b\") over {\"aa\", \"z\"} = %v, want [\"aa\"] (length-prefixed bytes would sort \"z\" first)", got)
	}
}

func TestIndexRangeScanOnMissingBound(t *testing.T) {
	ix := New()
	for _, n := range []int32{10, 20, 30} {
		ix.Insert(key(n), rid(int(n)))
	}

	// bound 25 matches no entry exactly; Lt/Le should behave identically,
	// as should Ge/Gt.
	lt := ix.RangeScan(ast.Lt, key(25))
	le := ix.RangeScan(ast.Le, key(25))
	if len(lt) != 2 || len(le) != 2 {
		t.Fatalf("Lt/Le around a missing bound = %d/%d rids, want 2/2", len(lt), len(le))
	}
	ge := ix.RangeScan(ast.Ge, key(25))
	gt := ix.RangeScan(ast.Gt, key(25))
	if len(ge) != 1 || len(gt) != 1 {
		t.Fatalf("Ge/Gt around a missing bound = %d/%d rids, want 1/1", len(ge), len(gt))
	}
}
