package coalesce

import "fmt"

// segmentArena is a bounded-block allocator for Segment objects (spec.md
// §4.2). Segments are drawn from fixed-size blocks; freed segments are
// pushed onto a singly-linked free list (via Segment.Next, which is
// otherwise unused for a detached segment) and reused LIFO. Segment ids
// are dense (blockIndex*blockSize + offset) so they can index the
// Fenwick tree directly.
type segmentArena struct {
	blockSize int
	maxBlocks int
	blocks    [][]Segment
	freeHead  *Segment
	nextFresh int // next never-yet-allocated dense id
}

// newSegmentArena creates an arena with the given block size and a cap
// on the number of blocks it may grow to (0 means unbounded).
func newSegmentArena(blockSize, maxBlocks int) *segmentArena {
	if blockSize <= 0 {
		blockSize = 1024
	}
	return &segmentArena{blockSize: blockSize, maxBlocks: maxBlocks}
}

// Alloc returns a fresh or recycled Segment with its id assigned, and
// the arena's new capacity if it grew (0 if unchanged) so callers can
// Fenwick.Grow in step.
func (a *segmentArena) Alloc() (*Segment, int, error) {
	if a.freeHead != nil {
		s := a.freeHead
		a.freeHead = s.Next
		*s = Segment{id: s.id}
		return s, 0, nil
	}
	blockIdx := a.nextFresh / a.blockSize
	offset := a.nextFresh % a.blockSize
	if blockIdx >= len(a.blocks) {
		if a.maxBlocks > 0 && blockIdx >= a.maxBlocks {
			return nil, 0, NewLibraryError("segment arena alloc",
				fmt.Errorf("out of memory: exceeded %d blocks of %d segments", a.maxBlocks, a.blockSize))
		}
		a.blocks = append(a.blocks, make([]Segment, a.blockSize))
	}
	s := &a.blocks[blockIdx][offset]
	s.id = a.nextFresh
	a.nextFresh++
	newCap := 0
	if a.nextFresh%a.blockSize == 1 || a.blockSize == 1 {
		newCap = len(a.blocks) * a.blockSize
	}
	return s, newCap, nil
}

// Free returns a segment to the free list for LIFO reuse.
func (a *segmentArena) Free(s *Segment) {
	s.Prev = nil
	s.Next = a.freeHead
	s.Left, s.Right, s.Value, s.Population, s.Label = 0, 0, 0, 0, 0
	a.freeHead = s
}

// Capacity returns the dense id space currently backed by allocated
// blocks.
func (a *segmentArena) Capacity() int {
	return len(a.blocks) * a.blockSize
}

// segmentByID recovers the *Segment for a dense id via the
// blockIndex*blockSize+offset addressing scheme, used to map a Fenwick
// hit back to its owning segment.
func (a *segmentArena) segmentByID(id int) *Segment {
	blockIdx := id / a.blockSize
	offset := id % a.blockSize
	return &a.blocks[blockIdx][offset]
}
