package page

import (
	"io"
	"os"

	"github.com/oakdb/oakdb/internal/oakerr"
)

// Pager is the buffered page manager the query execution core borrows
// page bytes from (§5 CONCURRENCY & RESOURCE MODEL: "the executor
// borrows pointers to page bytes for the duration of one scan step").
// The engine assumes a single cooperative thread per database (§5);
// Pager carries no internal locking.
type Pager struct {
	file   *os.File
	cache  map[Pgno]*DataPage
	layout map[Pgno]Layout // layout each cached page was loaded with
	npages uint32
}

// Open opens (creating if necessary) the page file at path.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, oakerr.Wrap(oakerr.IoError, err, "open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, oakerr.Wrap(oakerr.IoError, err, "stat %s", path)
	}
	npages := uint32(info.Size() / Size)
	return &Pager{
		file:   f,
		cache:  make(map[Pgno]*DataPage),
		layout: make(map[Pgno]Layout),
		npages: npages,
	}, nil
}

// Close flushes nothing extra (writes are immediate, see Put) and
// closes the underlying file.
func (p *Pager) Close() error {
	if err := p.file.Close(); err != nil {
		return oakerr.Wrap(oakerr.IoError, err, "close page file")
	}
	return nil
}

// PageCount returns the number of pages currently in the file,
// including page 0 (reserved for database metadata, §6).
func (p *Pager) PageCount() uint32 { return p.npages }

// Get reads (or returns the cached copy of) the data page at pgno,
// using layout to interpret its slot array. Checksums are verified on
// first load from disk.
func (p *Pager) Get(pgno Pgno, layout Layout) (*DataPage, error) {
	if dp, ok := p.cache[pgno]; ok {
		return dp, nil
	}
	buf := make([]byte, Size)
	if _, err := p.file.ReadAt(buf, int64(pgno)*Size); err != nil && err != io.EOF {
		return nil, oakerr.Wrap(oakerr.IoError, err, "read page %d", pgno)
	}
	dp := WrapDataPage(pgno, buf, layout)
	if !dp.VerifyChecksum() {
		return nil, oakerr.New(oakerr.PageCorrupt, "page %d failed checksum verification", pgno)
	}
	p.cache[pgno] = dp
	p.layout[pgno] = layout
	return dp, nil
}

// Alloc appends a new, zeroed page at the end of the file and returns it.
func (p *Pager) Alloc(layout Layout) (*DataPage, error) {
	pgno := Pgno(p.npages)
	if pgno == 0 {
		pgno = 1 // page 0 reserved for database metadata (§6)
		p.npages = 1
	}
	dp := NewDataPage(pgno, layout)
	p.npages++
	p.cache[pgno] = dp
	p.layout[pgno] = layout
	if err := p.Put(dp); err != nil {
		return nil, err
	}
	return dp, nil
}

// Put persists a page's current contents to disk, refreshing its
// checksum trailer first.
func (p *Pager) Put(dp *DataPage) error {
	dp.WriteChecksum()
	if _, err := p.file.WriteAt(dp.Buf, int64(dp.Pgno)*Size); err != nil {
		return oakerr.Wrap(oakerr.IoError, err, "write page %d", dp.Pgno)
	}
	return nil
}

// Evict drops a page from the cache without writing it; used once a
// statement no longer needs the page pinned (§5: "the caller
// guarantees page pins remain valid until the join completes").
func (p *Pager) Evict(pgno Pgno) {
	delete(p.cache, pgno)
	delete(p.layout, pgno)
}

// AllocRaw reserves a new page number without imposing a DataPage
// layout on it, for fixed-format pages such as CheckPage (§6:
// "CheckPage: u32 len; u8 data[8188]") that carry no slot array.
func (p *Pager) AllocRaw() Pgno {
	pgno := Pgno(p.npages)
	if pgno == 0 {
		pgno = 1
		p.npages = 1
	}
	p.npages++
	return pgno
}

// ReadRaw reads a page's bytes verbatim, bypassing the DataPage cache
// and checksum verification.
func (p *Pager) ReadRaw(pgno Pgno) ([]byte, error) {
	buf := make([]byte, Size)
	if _, err := p.file.ReadAt(buf, int64(pgno)*Size); err != nil && err != io.EOF {
		return nil, oakerr.Wrap(oakerr.IoError, err, "read page %d", pgno)
	}
	return buf, nil
}

// WriteRaw persists a page's bytes verbatim, bypassing the DataPage
// cache and checksum.
func (p *Pager) WriteRaw(pgno Pgno, buf []byte) error {
	if _, err := p.file.WriteAt(buf, int64(pgno)*Size); err != nil {
		return oakerr.Wrap(oakerr.IoError, err, "write page %d", pgno)
	}
	return nil
}
