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
File Manager
============

FileManager stores pages sequentially in a single OS file:

	┌────────────────────────────────────────────────────┐
	│               File Header (PageSize)                │
	│          [Magic] [Version] [PageCount]               │
	├────────────────────────────────────────────────────┤
	│                    Page 1 (PageSize)                 │
	├────────────────────────────────────────────────────┤
	│                    Page 2 (PageSize)                 │
	├────────────────────────────────────────────────────┤
	│                       ...                            │
	└────────────────────────────────────────────────────┘

Page identifiers are minted by the buffer pool manager's own monotonic
counter, not by FileManager — a page-id is never reused, so FileManager
needs no free list: WritePage simply extends the file the first time a
given id is written. DeallocatePage is a notification only; there is no
disk space to reclaim when ids are never recycled. The file offset for a
page is:

	offset = headerSize + (PageID - 1) * PageSize
*/
package disk

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"
)

const (
	fileMagic   uint32 = 0x50434348 // "PCCH"
	fileVersion uint32 = 1
	headerSize  int64  = PageSize
)

// Errors returned by FileManager.
var (
	ErrInvalidFile     = errors.New("disk: not a pagecache data file")
	ErrVersionMismatch = errors.New("disk: data file version mismatch")
	ErrPageNotFound    = errors.New("disk: page not found")
)

// FileManager is the DiskManager implementation backed by a single OS
// file. All operations are safe for concurrent use.
type FileManager struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	pageCount uint32
}

// Open opens (creating if necessary) the data file at path.
func Open(path string) (*FileManager, error) {
	existed := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		existed = false
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	fm := &FileManager{file: file, path: path}
	if existed {
		if err := fm.readHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return fm, nil
	}

	if err := fm.writeHeader(); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}
	return fm, nil
}

func (fm *FileManager) writeHeader() error {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], fileMagic)
	binary.BigEndian.PutUint32(header[4:8], fileVersion)
	binary.BigEndian.PutUint32(header[8:12], fm.pageCount)
	_, err := fm.file.WriteAt(header, 0)
	return err
}

func (fm *FileManager) readHeader() error {
	header := make([]byte, headerSize)
	if _, err := fm.file.ReadAt(header, 0); err != nil {
		return err
	}
	if binary.BigEndian.Uint32(header[0:4]) != fileMagic {
		return ErrInvalidFile
	}
	if binary.BigEndian.Uint32(header[4:8]) != fileVersion {
		return ErrVersionMismatch
	}
	fm.pageCount = binary.BigEndian.Uint32(header[8:12])
	return nil
}

func (fm *FileManager) offset(id PageID) int64 {
	return headerSize + int64(id-1)*int64(PageSize)
}

// ReadPage reads the page with the given ID into dst, which must be a
// page-sized buffer (typically page.Data()). Returns ErrPageNotFound if
// id is InvalidPageID or above the highest id ever written; an id below
// that mark that was never written itself reads as zeros.
func (fm *FileManager) ReadPage(id PageID, dst []byte) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if id == InvalidPageID || uint32(id) > fm.pageCount {
		return ErrPageNotFound
	}
	_, err := fm.file.ReadAt(dst, fm.offset(id))
	return err
}

// WritePage writes src (a page-sized buffer) to the slot for id,
// extending the file if id has not been written before.
func (fm *FileManager) WritePage(id PageID, src []byte) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if id == InvalidPageID {
		return ErrPageNotFound
	}
	if _, err := fm.file.WriteAt(src, fm.offset(id)); err != nil {
		return err
	}
	if uint32(id) > fm.pageCount {
		fm.pageCount = uint32(id)
		return fm.writeHeader()
	}
	return nil
}

// DeallocatePage notifies the disk layer that id is no longer in use.
// Page ids are minted once by the buffer pool manager and never reused,
// so there is no disk space to reclaim; this exists purely to satisfy
// the DiskManager contract.
func (fm *FileManager) DeallocatePage(id PageID) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if id == InvalidPageID || uint32(id) > fm.pageCount {
		return ErrPageNotFound
	}
	return nil
}

// PageCount returns the highest page id ever written to the file (the
// high-water mark), not the number of writes.
func (fm *FileManager) PageCount() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return int(fm.pageCount)
}

// Sync flushes pending writes to stable storage.
func (fm *FileManager) Sync() error {
	return fm.file.Sync()
}

// Close flushes the header and closes the underlying file.
func (fm *FileManager) Close() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if err := fm.writeHeader(); err != nil {
		fm.file.Close()
		return err
	}
	return fm.file.Close()
}

// Path returns the path to the backing file.
func (fm *FileManager) Path() string {
	return fm.path
}
