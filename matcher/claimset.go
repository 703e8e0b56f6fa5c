package matcher

import (
	"iter"
	"sort"
	"sync"

	"pagediff/types"

	"github.com/RoaringBitmap/roaring/v2"
)

// ClaimSet tracks the old-side pages not yet claimed by a match. Each image
// gets a slot; the bitmap holds the slots still unclaimed.
type ClaimSet struct {
	mu     sync.Mutex
	slots  map[string]uint32
	images []*types.HashedImage
	open   *roaring.Bitmap
}

// NewClaimSet seeds the set with every image yielded by seq. A filename seen
// twice keeps its first image.
func NewClaimSet(seq iter.Seq[*types.HashedImage]) *ClaimSet {
	c := &ClaimSet{
		slots: make(map[string]uint32),
		open:  roaring.New(),
	}
	for img := range seq {
		if _, ok := c.slots[img.Filename]; ok {
			continue
		}
		slot := uint32(len(c.images))
		c.slots[img.Filename] = slot
		c.images = append(c.images, img)
		c.open.Add(slot)
	}
	return c
}

// Contains reports whether filename is still unclaimed.
func (c *ClaimSet) Contains(filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[filename]
	return ok && c.open.Contains(slot)
}

// TryClaim removes filename from the set. It returns false when the name is
// unknown or was already claimed.
func (c *ClaimSet) TryClaim(filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[filename]
	if !ok {
		return false
	}
	return c.open.CheckedRemove(slot)
}

// Len returns the number of unclaimed pages.
func (c *ClaimSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.open.GetCardinality())
}

// Remaining returns the unclaimed images ordered by sequence index, then
// filename.
func (c *ClaimSet) Remaining() []*types.HashedImage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*types.HashedImage, 0, c.open.GetCardinality())
	it := c.open.Iterator()
	for it.HasNext() {
		out = append(out, c.images[it.Next()])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}
