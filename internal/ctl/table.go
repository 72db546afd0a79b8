package ctl

import (
	"fmt"
	"strings"
)

// table accumulates rows and prints them with aligned columns, a dim
// header, and a rule underneath.
type table struct {
	indent  string
	headers []string
	rows    [][]string
	right   map[int]bool
}

func newTable(indent string, headers ...string) *table {
	return &table{indent: indent, headers: headers, right: map[int]bool{}}
}

// alignRight right-aligns the given column index.
func (t *table) alignRight(col int) {
	t.right[col] = true
}

func (t *table) row(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) flush() {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, r := range t.rows {
		for i, c := range r {
			if i < len(widths) && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	total := 0
	for _, w := range widths {
		total += w + 2
	}

	var head strings.Builder
	for i, h := range t.headers {
		head.WriteString(t.pad(h, widths[i], i))
		head.WriteString("  ")
	}
	fmt.Println(t.indent + colorize(dim, strings.TrimRight(head.String(), " ")))
	fmt.Println(t.indent + colorize(dim, strings.Repeat("─", total-2)))

	for _, r := range t.rows {
		var line strings.Builder
		for i, c := range r {
			w := len(c)
			if i < len(widths) {
				w = widths[i]
			}
			line.WriteString(t.pad(c, w, i))
			line.WriteString("  ")
		}
		fmt.Println(t.indent + strings.TrimRight(line.String(), " "))
	}
}

func (t *table) pad(s string, width, col int) string {
	if len(s) >= width {
		return s
	}
	fill := strings.Repeat(" ", width-len(s))
	if t.right[col] {
		return fill + s
	}
	return s + fill
}
