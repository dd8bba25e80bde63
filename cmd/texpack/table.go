package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView collects rows for one rendered table.
type tableView struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	footer  []string
}

func newTableView(headers ...string) *tableView {
	return &tableView{headers: headers}
}

// align sets the alignment of columns by position.
func (v *tableView) align(aligns ...columnAlignment) *tableView {
	v.aligns = aligns
	return v
}

func (v *tableView) add(cells ...string) {
	v.rows = append(v.rows, cells)
}

func (v *tableView) render() string {
	columns := len(v.headers)
	if columns == 0 {
		return ""
	}

	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendHeader(v.row(v.headers))
	for _, cells := range v.rows {
		tw.AppendRow(v.row(cells))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(v.row(v.footer))
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		align := text.AlignLeft
		if i < len(v.aligns) && v.aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// row pads or truncates cells to the header width.
func (v *tableView) row(cells []string) table.Row {
	r := make(table.Row, len(v.headers))
	for i := range r {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
