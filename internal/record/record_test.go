package record

import (
	"testing"

	"github.com/oakdb/oakdb/internal/storage/schema"
)

func testTable() *schema.Table {
	return schema.NewTable("t", []schema.Column{
		{Name: "id", Type: schema.Int32, NotNull: true, PrimaryKey: true},
		{Name: "active", Type: schema.Bool},
		{Name: "score", Type: schema.Float32},
		{Name: "name", Type: schema.VarChar, N: 16},
	}, nil, nil)
}

func newTestRow(tbl *schema.Table) Row {
	return NewRow(make([]byte, tbl.RecordSize()), tbl)
}

func TestRowNullBitmapRoundTrip(t *testing.T) {
	tbl := testTable()
	row := newTestRow(tbl)

	for i := range tbl.Columns {
		if row.IsNull(i) {
			t.Fatalf("column %d should start non-null on a zeroed buffer", i)
		}
	}

	row.SetNull(1, true)
	if !row.IsNull(1) {
		t.Fatal("SetNull(1, true) did not set the bit")
	}
	if row.IsNull(0) || row.IsNull(2) {
		t.Fatal("SetNull(1, true) affected an unrelated column's bit")
	}

	row.SetNull(1, false)
	if row.IsNull(1) {
		t.Fatal("SetNull(1, false) did not clear the bit")
	}
}

func TestRowTypedReadWrite(t *testing.T) {
	tbl := testTable()
	row := newTestRow(tbl)

	writeInt32(row, 0, 42)
	if got := row.ReadInt32(0); got != 42 {
		t.Fatalf("ReadInt32(0) = %d, want 42", got)
	}

	off := row.fieldOffset(1)
	row.Buf[off] = 1
	if !row.ReadBool(1) {
		t.Fatal("ReadBool(1) = false, want true")
	}

	writeFloat32(row, 2, 3.5)
	if got := row.ReadFloat32(2); got != 3.5 {
		t.Fatalf("ReadFloat32(2) = %v, want 3.5", got)
	}

	if err := writeStr(row, 3, 16, "hello"); err != nil {
		t.Fatalf("writeStr() error = %v", err)
	}
	if got := row.ReadStr(3); got != "hello" {
		t.Fatalf("ReadStr(3) = %q, want %q", got, "hello")
	}
}

func TestRowGetRespectsNullBit(t *testing.T) {
	tbl := testTable()
	row := newTestRow(tbl)
	writeInt32(row, 0, 7)
	row.SetNull(2, true)

	if v := row.Get(0); v.Null || v.I32 != 7 {
		t.Fatalf("Get(0) = %+v, want non-null I32=7", v)
	}
	if v := row.Get(2); !v.Null {
		t.Fatalf("Get(2) = %+v, want Null=true", v)
	}
}

func TestValueKeyBytesByType(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want int
	}{
		{"int32", Value{Type: schema.Int32, I32: 5}, 4},
		{"bool", Value{Type: schema.Bool, B: true}, 1},
		{"float32", Value{Type: schema.Float32, F32: 1.5}, 4},
		{"varchar", Value{Type: schema.VarChar, Str: "abc"}, 4},
	}
	for _, c := range cases {
		got := c.v.KeyBytes()
		if len(got) != c.want {
			t.Errorf("%s: KeyBytes() length = %d, want %d", c.name, len(got), c.want)
		}
	}
}

func TestValueKeyBytesStringLengthPrefix(t *testing.T) {
	v := Value{Type: schema.VarChar, Str: "hi"}
	got := v.KeyBytes()
	if got[0] != 2 {
		t.Fatalf("KeyBytes()[0] = %d, want length prefix 2", got[0])
	}
	if string(got[1:]) != "hi" {
		t.Fatalf("KeyBytes()[1:] = %q, want %q", got[1:], "hi")
	}
}
