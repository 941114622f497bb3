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

package buffer

import (
	"pagecache/internal/replacer"
	"pagecache/internal/storage/disk"
)

// frame is one slot in the buffer pool's fixed-size frame array.
type frame struct {
	page     *disk.Page
	pageID   disk.PageID
	pinCount int
	dirty    bool
}

func newFrame(id replacer.FrameID) *frame {
	return &frame{
		page:   disk.NewPage(disk.InvalidPageID),
		pageID: disk.InvalidPageID,
	}
}
