package disk

import (
	"path/filepath"
	"testing"
)

func newTestFileManager(t *testing.T) *FileManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.pcch")
	fm, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { fm.Close() })
	return fm
}

func TestFileManagerWriteExtendsThenRead(t *testing.T) {
	fm := newTestFileManager(t)

	id := PageID(1)
	want := make([]byte, PageSize)
	copy(want, []byte("hello page"))
	if err := fm.WritePage(id, want); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}
	if got := fm.PageCount(); got != 1 {
		t.Fatalf("PageCount() = %d; want 1", got)
	}

	got := make([]byte, PageSize)
	if err := fm.ReadPage(id, got); err != nil {
		t.Fatalf("ReadPage() error = %v", err)
	}
	if string(got[:10]) != "hello page" {
		t.Fatalf("ReadPage() = %q; want prefix %q", got[:10], "hello page")
	}
}

func TestFileManagerWriteNonSequentialIDsExtendByHighWatermark(t *testing.T) {
	fm := newTestFileManager(t)

	buf := make([]byte, PageSize)
	if err := fm.WritePage(PageID(5), buf); err != nil {
		t.Fatalf("WritePage(5) error = %v", err)
	}
	if got := fm.PageCount(); got != 5 {
		t.Fatalf("PageCount() = %d; want 5 (high watermark, not count of writes)", got)
	}

	if err := fm.WritePage(PageID(2), buf); err != nil {
		t.Fatalf("WritePage(2) error = %v", err)
	}
	if got := fm.PageCount(); got != 5 {
		t.Fatalf("PageCount() after writing a lower id = %d; want unchanged 5", got)
	}
}

func TestFileManagerReadUnknownPage(t *testing.T) {
	fm := newTestFileManager(t)
	buf := make([]byte, PageSize)
	if err := fm.ReadPage(PageID(7), buf); err != ErrPageNotFound {
		t.Fatalf("ReadPage() error = %v; want ErrPageNotFound", err)
	}
}

func TestFileManagerReadInvalidPageID(t *testing.T) {
	fm := newTestFileManager(t)
	buf := make([]byte, PageSize)
	if err := fm.ReadPage(InvalidPageID, buf); err != ErrPageNotFound {
		t.Fatalf("ReadPage(InvalidPageID) error = %v; want ErrPageNotFound", err)
	}
}

func TestFileManagerWriteInvalidPageID(t *testing.T) {
	fm := newTestFileManager(t)
	buf := make([]byte, PageSize)
	if err := fm.WritePage(InvalidPageID, buf); err != ErrPageNotFound {
		t.Fatalf("WritePage(InvalidPageID) error = %v; want ErrPageNotFound", err)
	}
}

// DeallocatePage never frees disk space: ids are never recycled, so it is
// only a validity check on an id that was actually written.
func TestFileManagerDeallocatePageIsNoOp(t *testing.T) {
	fm := newTestFileManager(t)

	buf := make([]byte, PageSize)
	if err := fm.WritePage(PageID(1), buf); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}
	if err := fm.DeallocatePage(PageID(1)); err != nil {
		t.Fatalf("DeallocatePage() error = %v", err)
	}
	if got := fm.PageCount(); got != 1 {
		t.Fatalf("PageCount() after DeallocatePage = %d; want unchanged 1", got)
	}

	got := make([]byte, PageSize)
	if err := fm.ReadPage(PageID(1), got); err != nil {
		t.Fatalf("ReadPage() after DeallocatePage error = %v; page must still be readable", err)
	}
}

func TestFileManagerDeallocateUnknownPage(t *testing.T) {
	fm := newTestFileManager(t)
	if err := fm.DeallocatePage(PageID(99)); err != ErrPageNotFound {
		t.Fatalf("DeallocatePage() error = %v; want ErrPageNotFound", err)
	}
}

func TestFileManagerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.pcch")

	fm, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	id := PageID(1)
	data := make([]byte, PageSize)
	copy(data, []byte("persisted"))
	if err := fm.WritePage(id, data); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}
	if err := fm.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	fm2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	defer fm2.Close()

	if got := fm2.PageCount(); got != 1 {
		t.Fatalf("PageCount() after reopen = %d; want 1", got)
	}
	got := make([]byte, PageSize)
	if err := fm2.ReadPage(id, got); err != nil {
		t.Fatalf("ReadPage() after reopen error = %v", err)
	}
	if string(got[:9]) != "persisted" {
		t.Fatalf("ReadPage() after reopen = %q; want prefix %q", got[:9], "persisted")
	}
}

func TestFileManagerOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-ours.dat")
	fm, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	fm.Close()

	// Overwrite the header with garbage and reopen.
	garbage := make([]byte, PageSize)
	copy(garbage, []byte("not a pagecache file at all"))
	raw, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	raw.file.WriteAt(garbage, 0)
	raw.file.Close()

	if _, err := Open(path); err != ErrInvalidFile {
		t.Fatalf("Open() error = %v; want ErrInvalidFile", err)
	}
}
