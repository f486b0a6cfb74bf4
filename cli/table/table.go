// Package table renders borderless tables for command output.
package table

import (
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// New creates a new table writing to standard output.
func New() *tablewriter.Table {
	return NewWriter(os.Stdout)
}

// NewWriter creates a new table writing to w.
func NewWriter(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetBorders(tablewriter.Border{Left: false, Top: false, Right: false, Bottom: false})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}
