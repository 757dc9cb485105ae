package main

import (
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

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
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}

		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
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

// renderTree draws nested nodes as a connected list, one line per node.
func renderTree(roots []*models.TreeNode) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)

	var appendNodes func(nodes []*models.TreeNode)
	appendNodes = func(nodes []*models.TreeNode) {
		for _, node := range nodes {
			lw.AppendItem(nodeLabel(node))

			if len(node.Children) > 0 {
				lw.Indent()
				appendNodes(node.Children)
				lw.UnIndent()
			}
		}
	}

	appendNodes(roots)

	return lw.Render()
}

func nodeLabel(node *models.TreeNode) string {
	label := node.Action.Label + " (" + node.Action.ID + ") " + shortID(node.UUID)

	if node.IsOutput {
		label += " [output]"
	}

	if node.CustomPrompt != "" {
		label += " [custom prompt]"
	}

	return label
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
