// Command pagediff matches the pages of two scanned versions of a document.
//
// Both directories are fingerprinted page by page, the old pages are put in
// a BK-tree, and every new page is mapped to the closest unclaimed old page
// within --distance bits. The mapping is printed to stdout:
//
//	PAGE MAPPING:
//		new/p1.png MATCH old/p1.png (DISTANCE: 2)
//		new/p2.png (NEW PAGE)
//
//	MISSING PAGES
//		old/p2.png
//
// Logs and the progress bar go to stderr.
package main
