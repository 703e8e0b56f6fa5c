package types

import "pagediff/imageprocessor"

// Page is a regular file discovered directly under a page directory.
type Page struct {
	Path string
	Size int64
}

// HashedImage is the unit stored in the index and matched.
// Index is the page's 0-based position in its directory's sorted listing.
type HashedImage struct {
	Filename string
	Index    int
	Hash     imageprocessor.Fingerprint
}

// Match pairs a new-side page with the old-side page it was mapped to.
// Dst is nil when no old page was close enough (a new page).
type Match struct {
	Src      *HashedImage
	Dst      *HashedImage
	Distance int
}

// IsNewPage reports whether the match has no old-side counterpart
func (m Match) IsNewPage() bool {
	return m.Dst == nil
}

// ImageDistance is the metric used to index and match pages.
func ImageDistance(a, b *HashedImage) int {
	return a.Hash.Distance(b.Hash)
}
