/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package buffer implements the buffer pool manager: the component that
mediates every access to on-disk pages through a fixed-size pool of
in-memory frames, deciding what stays resident and what gets evicted.

A page is "pinned" while at least one caller holds it via NewPage or
FetchPage; pinned pages are never evicted. When a page's pin count drops
to zero via UnpinPage, the frame becomes a candidate for eviction under
the LRU-K policy (see pagecache/internal/replacer). Evicting a dirty
frame writes it back to disk first, so a caller never loses an update
just because the frame was reclaimed.

Frame selection always prefers the free list over eviction: a buffer
pool that still has unused frames never evicts a resident page to make
room for a new one.
*/
package buffer

import (
	"sync"
	"sync/atomic"

	"pagecache/internal/errors"
	"pagecache/internal/logging"
	"pagecache/internal/metrics"
	"pagecache/internal/replacer"
	"pagecache/internal/storage/disk"
)

// DiskManager is the storage collaborator the buffer pool reads from and
// writes through. FileManager in pagecache/internal/storage/disk
// satisfies it; tests may substitute an in-memory fake. Page-id
// allocation is not part of this contract: the manager mints page ids
// itself (see Manager.nextPageID) and only asks the disk collaborator to
// move bytes for an id it already decided on.
type DiskManager interface {
	ReadPage(id disk.PageID, dst []byte) error
	WritePage(id disk.PageID, src []byte) error
	DeallocatePage(id disk.PageID) error
}

// Stats reports point-in-time buffer pool utilization.
type Stats struct {
	PoolSize        int
	PinnedFrames    int
	FreeFrames      int
	Hits            int64
	Misses          int64
	Evictions       int64
	DirtyWritebacks int64
}

// Manager is the buffer pool manager. It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	disk   DiskManager
	log    *logging.Logger
	rep    replacer.Replacer
	frames []*frame
	// pageTable maps a resident PageID to the frame currently holding it.
	pageTable map[disk.PageID]replacer.FrameID
	freeList  []replacer.FrameID

	nextPageID atomic.Int32

	hits            atomic.Int64
	misses          atomic.Int64
	evictions       atomic.Int64
	dirtyWritebacks atomic.Int64
	poolExhausted   atomic.Int64
}

// NewManager creates a buffer pool manager with poolSize frames, each
// frame's eviction candidacy ranked by the LRU-K policy with history
// depth k. Returns an ErrCodeInvalidPoolSize error if poolSize is not
// positive.
func NewManager(poolSize int, k int, dm DiskManager, log *logging.Logger) (*Manager, error) {
	if poolSize <= 0 {
		return nil, errors.NewInvalidPoolSize(poolSize)
	}
	if log == nil {
		log = logging.NewLogger("buffer")
	}

	m := &Manager{
		disk:      dm,
		log:       log,
		rep:       replacer.New(poolSize, k),
		frames:    make([]*frame, poolSize),
		pageTable: make(map[disk.PageID]replacer.FrameID, poolSize),
		freeList:  make([]replacer.FrameID, poolSize),
	}
	for i := 0; i < poolSize; i++ {
		fid := replacer.FrameID(i)
		m.frames[i] = newFrame(fid)
		m.freeList[i] = fid
	}
	return m, nil
}

// PoolSize returns the number of frames in the pool.
func (m *Manager) PoolSize() int {
	return len(m.frames)
}

// allocateFrame returns a frame to hold a new resident page, taking from
// the free list first and falling back to eviction. The caller must
// hold m.mu. Returns ok=false if the pool is fully pinned.
func (m *Manager) allocateFrame() (replacer.FrameID, bool) {
	if len(m.freeList) > 0 {
		fid := m.freeList[0]
		m.freeList = m.freeList[1:]
		return fid, true
	}

	fid, ok := m.rep.Evict()
	if !ok {
		return 0, false
	}

	f := m.frames[fid]
	if f.dirty {
		if err := m.disk.WritePage(f.pageID, f.page.Data()); err != nil {
			m.log.Error("failed to write back evicted page", "page_id", f.pageID, "error", err)
		} else {
			m.dirtyWritebacks.Add(1)
			metrics.Get().RecordDirtyWriteback()
		}
	}
	delete(m.pageTable, f.pageID)
	m.evictions.Add(1)
	metrics.Get().RecordEviction()
	return fid, true
}

// NewPage mints a fresh page id, pins it in a zeroed frame, and returns
// it. Nothing is written to disk until the page is flushed or evicted
// dirty. Returns nil if the pool has no free or evictable frame.
func (m *Manager) NewPage() (*disk.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.allocateFrame()
	if !ok {
		m.poolExhausted.Add(1)
		metrics.Get().RecordPoolExhausted()
		return nil, nil
	}

	pageID := disk.PageID(m.nextPageID.Add(1))

	f := m.frames[fid]
	f.page.Reset(pageID)
	f.pageID = pageID
	f.pinCount = 1
	f.dirty = false

	m.pageTable[pageID] = fid
	m.rep.RecordAccess(fid)
	m.rep.SetEvictable(fid, false)

	m.log.Debug("new page allocated", "page_id", pageID, "frame_id", fid)
	return f.page, nil
}

// FetchPage returns the page with the given ID, reading it from disk if
// it is not already resident. The returned page is pinned; the caller
// must call UnpinPage when done. Returns nil if the page cannot be
// fetched (pool exhausted, or the disk read failed).
func (m *Manager) FetchPage(id disk.PageID) (*disk.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fid, ok := m.pageTable[id]; ok {
		f := m.frames[fid]
		f.pinCount++
		m.rep.RecordAccess(fid)
		m.rep.SetEvictable(fid, false)
		m.hits.Add(1)
		metrics.Get().RecordHit()
		return f.page, nil
	}

	m.misses.Add(1)
	metrics.Get().RecordMiss()

	fid, ok := m.allocateFrame()
	if !ok {
		m.poolExhausted.Add(1)
		metrics.Get().RecordPoolExhausted()
		return nil, nil
	}

	f := m.frames[fid]
	f.page.Reset(id)
	if err := m.disk.ReadPage(id, f.page.Data()); err != nil {
		m.freeList = append(m.freeList, fid)
		return nil, errors.NewDiskIOError("read page", err)
	}
	f.pageID = id
	f.pinCount = 1
	f.dirty = false

	m.pageTable[id] = fid
	m.rep.RecordAccess(fid)
	m.rep.SetEvictable(fid, false)

	m.log.Debug("page fetched from disk", "page_id", id, "frame_id", fid)
	return f.page, nil
}

// UnpinPage decrements the pin count for id. When the count reaches
// zero, the frame becomes evictable. isDirty, when true, marks the
// frame dirty (sticky across further unpins until the next flush).
// Returns false if the page is not resident or its pin count is
// already zero.
func (m *Manager) UnpinPage(id disk.PageID, isDirty bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable[id]
	if !ok {
		return false
	}
	f := m.frames[fid]
	if f.pinCount <= 0 {
		return false
	}

	if isDirty {
		f.dirty = true
	}
	f.pinCount--
	if f.pinCount == 0 {
		m.rep.SetEvictable(fid, true)
	}
	return true
}

// FlushPage writes the page with the given ID to disk, regardless of
// its dirty bit, and clears the dirty bit. Returns false if the page is
// not resident.
func (m *Manager) FlushPage(id disk.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable[id]
	if !ok {
		return false
	}
	f := m.frames[fid]
	if err := m.disk.WritePage(f.pageID, f.page.Data()); err != nil {
		m.log.Error("flush failed", "page_id", id, "error", err)
		return false
	}
	f.dirty = false
	return true
}

// FlushAllPages writes every resident page to disk.
func (m *Manager) FlushAllPages() {
	m.mu.Lock()
	ids := make([]disk.PageID, 0, len(m.pageTable))
	for id := range m.pageTable {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.FlushPage(id)
	}
}

// DeletePage removes the page with the given ID from the buffer pool
// and notifies the disk manager through DeallocatePage. Returns false
// only if the page is resident and still
// pinned; deleting a page that was never resident succeeds (there is
// nothing to do).
func (m *Manager) DeletePage(id disk.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fid, ok := m.pageTable[id]
	if !ok {
		return true
	}
	f := m.frames[fid]
	if f.pinCount > 0 {
		return false
	}

	m.rep.SetEvictable(fid, true)
	m.rep.Remove(fid)
	delete(m.pageTable, id)

	if err := m.disk.DeallocatePage(id); err != nil {
		m.log.Error("deallocate failed", "page_id", id, "error", err)
	}

	f.page.Reset(disk.InvalidPageID)
	f.pageID = disk.InvalidPageID
	f.pinCount = 0
	f.dirty = false
	m.freeList = append(m.freeList, fid)

	return true
}

// Stats returns a snapshot of buffer pool utilization and counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	pinned := 0
	for _, f := range m.frames {
		if f.pinCount > 0 {
			pinned++
		}
	}
	free := len(m.freeList)
	m.mu.Unlock()

	return Stats{
		PoolSize:        len(m.frames),
		PinnedFrames:    pinned,
		FreeFrames:      free,
		Hits:            m.hits.Load(),
		Misses:          m.misses.Load(),
		Evictions:       m.evictions.Load(),
		DirtyWritebacks: m.dirtyWritebacks.Load(),
	}
}

// PoolExhaustedCount returns how many times NewPage/FetchPage failed
// because no frame was free or evictable.
func (m *Manager) PoolExhaustedCount() int64 {
	return m.poolExhausted.Load()
}

// StatsSource adapts a Manager's Stats snapshot to metrics.StatsSource
// for registration with metrics.Get().SetSource.
type StatsSource struct {
	m *Manager
}

// NewStatsSource wraps m for use as a metrics.StatsSource.
func NewStatsSource(m *Manager) StatsSource {
	return StatsSource{m: m}
}

func (s StatsSource) Hits() int64            { return s.m.hits.Load() }
func (s StatsSource) Misses() int64          { return s.m.misses.Load() }
func (s StatsSource) Evictions() int64       { return s.m.evictions.Load() }
func (s StatsSource) DirtyWritebacks() int64 { return s.m.dirtyWritebacks.Load() }
func (s StatsSource) PoolExhausted() int64   { return s.m.poolExhausted.Load() }
func (s StatsSource) PinnedFrames() int64    { return int64(s.m.Stats().PinnedFrames) }
