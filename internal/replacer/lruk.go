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
Package replacer implements the LRU-K frame eviction policy used by the
buffer pool manager.

LRU-K tracks, per frame, the timestamps of its k most recent accesses and
ranks frames for eviction by "backward k-distance": the gap between now and
the timestamp of the k-th most recent access. A frame with fewer than k
recorded accesses has infinite backward k-distance and is preferred for
eviction over any frame that has seen k accesses, since a short history is
weak evidence the frame will be reused soon. Among frames that are tied —
either because more than one has infinite distance, or more than one
shares the same finite distance — the frame with the oldest single
access record is evicted first.

Only frames marked evictable are candidates; FetchPage-pinned frames are
excluded from eviction until the buffer pool unpins them.
*/
package replacer

import (
	"math"
	"sync"
)

// FrameID identifies a slot in the buffer pool's frame array.
type FrameID int

// Replacer selects a frame for eviction according to an LRU-K policy.
type Replacer interface {
	// RecordAccess notes that frame id was accessed at the current
	// logical timestamp and advances the clock.
	RecordAccess(id FrameID)

	// SetEvictable marks frame id as a candidate (or not) for Evict.
	SetEvictable(id FrameID, evictable bool)

	// Evict removes and returns the frame with the largest backward
	// k-distance among evictable frames. Returns false if none are
	// evictable.
	Evict() (FrameID, bool)

	// Remove erases all access history for frame id. Panics if the
	// frame is currently marked non-evictable.
	Remove(id FrameID)

	// Size returns the number of frames currently evictable.
	Size() int
}

const infiniteDistance = math.MaxInt64

// node holds the access history for one frame.
type node struct {
	history   []int64 // access timestamps, oldest first
	evictable bool
}

// LRUK implements Replacer using the backward k-distance policy.
type LRUK struct {
	mu            sync.Mutex
	nodes         map[FrameID]*node
	currentStamp  int64
	k             int
	evictableSize int
}

// New creates an LRU-K replacer tracking up to numFrames frames, each
// ranked by its k most recent accesses.
func New(numFrames int, k int) *LRUK {
	if k < 1 {
		k = 1
	}
	return &LRUK{
		nodes: make(map[FrameID]*node, numFrames),
		k:     k,
	}
}

// RecordAccess implements Replacer.
func (r *LRUK) RecordAccess(id FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentStamp++

	n, ok := r.nodes[id]
	if !ok {
		n = &node{}
		r.nodes[id] = n
	}
	n.history = append(n.history, r.currentStamp)
	if len(n.history) > r.k {
		n.history = n.history[len(n.history)-r.k:]
	}
}

// SetEvictable implements Replacer.
func (r *LRUK) SetEvictable(id FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok {
		return
	}
	if n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.evictableSize++
	} else {
		r.evictableSize--
	}
}

// Evict implements Replacer. Ported directly from the backward k-distance
// scan: track the running maximum distance seen (maxD) and, among ties,
// the smallest oldest-access timestamp (t).
func (r *LRUK) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		maxD   int64 = 0
		t      int64 = math.MaxInt64
		victim FrameID
		found  bool
	)

	for id, n := range r.nodes {
		if !n.evictable {
			continue
		}

		d := r.backwardKDistance(n.history)
		oldest := n.history[0]

		if (oldest < t && d == maxD) || d > maxD {
			victim = id
			t = oldest
			maxD = d
			found = true
		}
	}

	if !found {
		return 0, false
	}

	delete(r.nodes, victim)
	r.evictableSize--
	return victim, true
}

// Remove implements Replacer. Panics if the frame is pinned (marked
// non-evictable), matching the hard invariant of the reference
// implementation this policy is ported from.
func (r *LRUK) Remove(id FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok {
		return
	}
	if !n.evictable {
		panic("replacer: Remove called on a non-evictable frame")
	}
	delete(r.nodes, id)
	r.evictableSize--
}

// Size implements Replacer.
func (r *LRUK) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableSize
}

// backwardKDistance returns infiniteDistance when fewer than k accesses
// are on record, or the gap between the current logical clock and the
// k-th most recent access otherwise. The caller already holds r.mu.
func (r *LRUK) backwardKDistance(history []int64) int64 {
	if len(history) < r.k {
		return infiniteDistance
	}
	// history is capped at k entries by RecordAccess, so the k-th most
	// recent access is always history[0] once len(history) == k.
	return r.currentStamp - history[0]
}
