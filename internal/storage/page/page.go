// Package page implements the fixed 8 KiB page file the storage layer
// is built on (§3 DATA MODEL "Data page", §6 EXTERNAL INTERFACES "Page
// file"). It owns the on-disk DataPage/CheckPage byte layout; the
// buffered page manager that pins/evicts pages lives in pager.go.
package page

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Size is the fixed page size in bytes.
const Size = 8192

// Pgno is a page number. Page 0 is reserved for database metadata
// (§6) and is never a DataPage.
type Pgno uint32

// NoPage is the sentinel for "absent page id" — used for an unset
// index root page and for "no next free page" (§3: "absent index
// encoded as sentinel `!0`").
const NoPage Pgno = ^Pgno(0)

// Checksum trailer: every page stores a blake3 hash of everything
// before the trailer, verified on read (supplements §3/§6 with
// corruption detection; see SPEC_FULL.md §5).
const checksumSize = 32

// DataPage header layout (little-endian), before the checksum trailer:
//
//	u32 prev; u32 next; u32 next_free; u16 count; u8 rsv[2];
//	u32 used[bitmapWords];   // occupancy bitmap, bit=1 iff occupied
//	u8  data[...];           // slot array
const (
	headerSize       = 4 + 4 + 4 + 2 + 2
	offPrev          = 0
	offNext          = 4
	offNextFree      = 8
	offCount         = 12
	// 2 reserved bytes at 14
)

// Layout describes how many slots fit in a page of a given fixed
// record size, and where the bitmap/slot array/checksum live.
type Layout struct {
	RecordSize  int
	SlotCount   int
	BitmapWords int
	BitmapOff   int
	DataOff     int
	ChecksumOff int
}

// ComputeLayout derives the slot layout for a table whose fixed record
// size (including its NULL bitmap prefix) is recordSize bytes. It picks
// the largest slot count that fits the page, the same trade a real
// slotted page makes (§3: "Slot count and slot size are computed from
// record size").
func ComputeLayout(recordSize int) Layout {
	if recordSize <= 0 {
		recordSize = 1
	}
	usable := Size - headerSize - checksumSize
	// Solve slotCount such that bitmapBytes(slotCount) + slotCount*recordSize <= usable.
	// bitmapBytes grows in 4-byte steps per 32 slots; iterate downward
	// from an optimistic upper bound.
	upper := usable / recordSize
	if upper < 0 {
		upper = 0
	}
	for n := upper; n >= 0; n-- {
		bmWords := (n + 31) / 32
		if bmWords == 0 && n > 0 {
			bmWords = 1
		}
		bmBytes := bmWords * 4
		if bmBytes+n*recordSize <= usable {
			return Layout{
				RecordSize:  recordSize,
				SlotCount:   n,
				BitmapWords: bmWords,
				BitmapOff:   headerSize,
				DataOff:     headerSize + bmBytes,
				ChecksumOff: Size - checksumSize,
			}
		}
	}
	return Layout{RecordSize: recordSize, SlotCount: 0, BitmapWords: 0, BitmapOff: headerSize, DataOff: headerSize, ChecksumOff: Size - checksumSize}
}

// DataPage wraps one page-sized byte buffer with the DataPage layout.
type DataPage struct {
	Pgno   Pgno
	Buf    []byte // always len == page.Size
	Layout Layout
}

// NewDataPage allocates a zeroed DataPage for the given layout.
func NewDataPage(pgno Pgno, layout Layout) *DataPage {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[offPrev:], uint32(NoPage))
	binary.LittleEndian.PutUint32(buf[offNext:], uint32(NoPage))
	binary.LittleEndian.PutUint32(buf[offNextFree:], uint32(NoPage))
	return &DataPage{Pgno: pgno, Buf: buf, Layout: layout}
}

// WrapDataPage interprets an existing page-sized buffer (e.g. loaded
// from disk) as a DataPage using the given layout.
func WrapDataPage(pgno Pgno, buf []byte, layout Layout) *DataPage {
	return &DataPage{Pgno: pgno, Buf: buf, Layout: layout}
}

func (p *DataPage) Prev() Pgno { return Pgno(binary.LittleEndian.Uint32(p.Buf[offPrev:])) }
func (p *DataPage) SetPrev(v Pgno) {
	binary.LittleEndian.PutUint32(p.Buf[offPrev:], uint32(v))
}

func (p *DataPage) Next() Pgno { return Pgno(binary.LittleEndian.Uint32(p.Buf[offNext:])) }
func (p *DataPage) SetNext(v Pgno) {
	binary.LittleEndian.PutUint32(p.Buf[offNext:], uint32(v))
}

func (p *DataPage) NextFree() Pgno { return Pgno(binary.LittleEndian.Uint32(p.Buf[offNextFree:])) }
func (p *DataPage) SetNextFree(v Pgno) {
	binary.LittleEndian.PutUint32(p.Buf[offNextFree:], uint32(v))
}

func (p *DataPage) Count() uint16 { return binary.LittleEndian.Uint16(p.Buf[offCount:]) }
func (p *DataPage) setCount(v uint16) {
	binary.LittleEndian.PutUint16(p.Buf[offCount:], v)
}

// IsOccupied reports whether slot i holds a live row.
func (p *DataPage) IsOccupied(i int) bool {
	word := p.Layout.BitmapOff + (i/32)*4
	bit := uint32(1) << uint(i%32)
	return binary.LittleEndian.Uint32(p.Buf[word:])&bit != 0
}

// SetOccupied marks slot i occupied or free and keeps Count() in sync.
func (p *DataPage) SetOccupied(i int, occupied bool) {
	word := p.Layout.BitmapOff + (i/32)*4
	bit := uint32(1) << uint(i%32)
	v := binary.LittleEndian.Uint32(p.Buf[word:])
	was := v&bit != 0
	if occupied {
		v |= bit
	} else {
		v &^= bit
	}
	binary.LittleEndian.PutUint32(p.Buf[word:], v)
	if occupied && !was {
		p.setCount(p.Count() + 1)
	} else if !occupied && was {
		p.setCount(p.Count() - 1)
	}
}

// HasFreeSlot reports whether the page has at least one unoccupied
// slot — the free-list membership invariant (§3).
func (p *DataPage) HasFreeSlot() bool {
	return int(p.Count()) < p.Layout.SlotCount
}

// FirstFreeSlot returns the index of the first unoccupied slot, or -1.
func (p *DataPage) FirstFreeSlot() int {
	for i := 0; i < p.Layout.SlotCount; i++ {
		if !p.IsOccupied(i) {
			return i
		}
	}
	return -1
}

// Slot returns the raw byte range for slot i, including the NULL
// bitmap prefix (§3 "Record (slot) layout").
func (p *DataPage) Slot(i int) []byte {
	off := p.Layout.DataOff + i*p.Layout.RecordSize
	return p.Buf[off : off+p.Layout.RecordSize]
}

// Checksum computes the blake3 checksum of everything before the
// trailer.
func (p *DataPage) Checksum() [32]byte {
	return blake3.Sum256(p.Buf[:p.Layout.ChecksumOff])
}

// WriteChecksum stamps the trailer with the current checksum. Callers
// must call this before the page is handed to the pager for a write.
func (p *DataPage) WriteChecksum() {
	sum := p.Checksum()
	copy(p.Buf[p.Layout.ChecksumOff:], sum[:])
}

// VerifyChecksum reports whether the stored trailer matches the
// computed checksum of the page body.
func (p *DataPage) VerifyChecksum() bool {
	sum := p.Checksum()
	return string(p.Buf[p.Layout.ChecksumOff:p.Layout.ChecksumOff+checksumSize]) == string(sum[:])
}

// CheckPage is the single page storing serialized CHECK constraint
// literal sets (§3 "Check page", §6 "CheckPage: u32 len; u8 data[8188]").
type CheckPage struct {
	Buf []byte // always len == page.Size
}

func NewCheckPage() *CheckPage {
	return &CheckPage{Buf: make([]byte, Size)}
}

func WrapCheckPage(buf []byte) *CheckPage {
	return &CheckPage{Buf: buf}
}

func (c *CheckPage) Len() uint32 { return binary.LittleEndian.Uint32(c.Buf[0:]) }

func (c *CheckPage) Data() []byte {
	n := c.Len()
	return c.Buf[4 : 4+n]
}

// SetData overwrites the CheckPage payload.
func (c *CheckPage) SetData(b []byte) {
	binary.LittleEndian.PutUint32(c.Buf[0:], uint32(len(b)))
	copy(c.Buf[4:], b)
}
