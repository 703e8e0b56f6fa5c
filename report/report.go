// Package report renders a matching result for people.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pagediff/matcher"
)

// Dirs names the directories the two page sets were read from. Report paths
// are the directory joined with the filename.
type Dirs struct {
	Old string
	New string
}

// WriteText writes the plain mapping report:
//
//	PAGE MAPPING:
//		<new> MATCH <old> (DISTANCE: <n>)
//		<new> (NEW PAGE)
//
//	MISSING PAGES
//		<old>
//
// The missing section is omitted when every old page was claimed.
func WriteText(w io.Writer, dirs Dirs, result matcher.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "PAGE MAPPING:")
	for _, m := range result.Matches {
		src := joinPath(dirs.New, m.Src.Filename)
		if m.IsNewPage() {
			fmt.Fprintf(bw, "\t%s (NEW PAGE)\n", src)
			continue
		}
		fmt.Fprintf(bw, "\t%s MATCH %s (DISTANCE: %d)\n", src, joinPath(dirs.Old, m.Dst.Filename), m.Distance)
	}

	if len(result.Missing) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "MISSING PAGES")
		for _, img := range result.Missing {
			fmt.Fprintf(bw, "\t%s\n", joinPath(dirs.Old, img.Filename))
		}
	}

	return bw.Flush()
}

// WriteTable writes the same information as WriteText as a single table with
// one row per new page followed by one row per missing old page.
func WriteTable(w io.Writer, dirs Dirs, result matcher.Result) error {
	rows := make([][]string, 0, len(result.Matches)+len(result.Missing))
	for _, m := range result.Matches {
		src := joinPath(dirs.New, m.Src.Filename)
		if m.IsNewPage() {
			rows = append(rows, []string{strconv.Itoa(m.Src.Index + 1), src, "", "", "new"})
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(m.Src.Index + 1),
			src,
			joinPath(dirs.Old, m.Dst.Filename),
			strconv.Itoa(m.Distance),
			"match",
		})
	}
	for _, img := range result.Missing {
		rows = append(rows, []string{"", "", joinPath(dirs.Old, img.Filename), "", "missing"})
	}

	s := result.Summary()
	out := renderTable(
		[]string{"#", "New page", "Old page", "Distance", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
	_, err := fmt.Fprintf(w, "%s\n%d matched, %d new, %d missing\n", out, s.Matched, s.NewPages, s.Missing)
	return err
}

// joinPath appends name to dir as given on the command line. Unlike
// filepath.Join it keeps a leading "./" and does not clean dir.
func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if os.IsPathSeparator(dir[len(dir)-1]) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
