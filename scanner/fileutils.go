package scanner

import (
	"path/filepath"
	"sort"

	"pagediff/scanner/processor"
	"pagediff/types"

	"github.com/spf13/afero"
)

// ListPages returns the regular files directly under dir, sorted by path.
// Subdirectories and other non-regular entries are ignored.
func ListPages(fs afero.Fs, dir string) ([]types.Page, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &PageError{Op: processor.OpList, Path: dir, Err: err}
	}

	pages := make([]types.Page, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		pages = append(pages, types.Page{
			Path: filepath.Join(dir, info.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Path < pages[j].Path
	})
	return pages, nil
}
