// Package matcher maps the pages of a new document version onto the pages
// of the old one.
//
// The mapping is greedy. New pages are visited in sequence order and each
// claims the unclaimed old page with the lowest score within the distance
// threshold, where
//
//	score = distance + |old.Index - new.Index| / PositionDivisor
//
// Claimed old pages are unavailable to later new pages, so the visiting order
// decides contested pages. This is not an optimal assignment.
package matcher

import (
	"sort"

	"pagediff/bktree"
	"pagediff/types"
)

// DefaultPositionDivisor converts page drift into distance units: every five
// pages of drift cost one bit of distance.
const DefaultPositionDivisor = 5

// Options controls a matching pass.
type Options struct {
	// Threshold is the inclusive maximum fingerprint distance.
	Threshold int
	// PositionDivisor <= 0 means DefaultPositionDivisor.
	PositionDivisor int
}

// Result is the outcome of a matching pass.
type Result struct {
	// Matches holds one entry per new page, in sequence order.
	Matches []types.Match
	// Missing holds the old pages nobody claimed, in sequence order.
	Missing []*types.HashedImage
}

// Summary counts the outcome of a pass.
type Summary struct {
	Matched  int
	NewPages int
	Missing  int
}

// Summary counts matched, new and missing pages.
func (r Result) Summary() Summary {
	s := Summary{Missing: len(r.Missing)}
	for _, m := range r.Matches {
		if m.IsNewPage() {
			s.NewPages++
		} else {
			s.Matched++
		}
	}
	return s
}

type candidate struct {
	img      *types.HashedImage
	distance int
	score    int
}

// less orders candidates by score, raw distance, old sequence index and
// filename.
func (c candidate) less(o candidate) bool {
	if c.score != o.score {
		return c.score < o.score
	}
	if c.distance != o.distance {
		return c.distance < o.distance
	}
	if c.img.Index != o.img.Index {
		return c.img.Index < o.img.Index
	}
	return c.img.Filename < o.img.Filename
}

// Score combines fingerprint distance with positional drift.
func Score(distance, oldIndex, newIndex, divisor int) int {
	if divisor <= 0 {
		divisor = DefaultPositionDivisor
	}
	drift := oldIndex - newIndex
	if drift < 0 {
		drift = -drift
	}
	return distance + drift/divisor
}

// Match maps every image of newImages to at most one old image held by index.
// newImages may be in any order; they are visited by sequence index.
func Match(newImages []*types.HashedImage, index bktree.Index[*types.HashedImage], opts Options) Result {
	missing := NewClaimSet(index.Iter())

	ordered := make([]*types.HashedImage, len(newImages))
	copy(ordered, newImages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	matches := make([]types.Match, 0, len(ordered))
	for _, img := range ordered {
		matches = append(matches, matchOne(img, index, missing, opts))
	}

	return Result{
		Matches: matches,
		Missing: missing.Remaining(),
	}
}

func matchOne(img *types.HashedImage, index bktree.Index[*types.HashedImage], missing *ClaimSet, opts Options) types.Match {
	if opts.Threshold < 0 {
		return types.Match{Src: img}
	}

	var best *candidate
	for _, found := range index.Find(img, opts.Threshold) {
		if !missing.Contains(found.Item.Filename) {
			continue
		}
		c := candidate{
			img:      found.Item,
			distance: found.Distance,
			score:    Score(found.Distance, found.Item.Index, img.Index, opts.PositionDivisor),
		}
		if best == nil || c.less(*best) {
			best = &c
		}
	}

	if best == nil || !missing.TryClaim(best.img.Filename) {
		return types.Match{Src: img}
	}
	return types.Match{Src: img, Dst: best.img, Distance: best.distance}
}
