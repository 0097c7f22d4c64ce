// Package tableutils prints slices of csv tagged structs as aligned
// tables
package tableutils

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
)

// MarshalAndPrintTable prints in, a slice of csv tagged structs, to
// writer as a borderless table with one row per element
func MarshalAndPrintTable(writer io.Writer, in interface{}) error {
	csvContent, err := gocsv.MarshalString(in)
	if err != nil {
		return fmt.Errorf("marshalAndPrintTable: %w", err)
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowLine(false)
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetColumnSeparator("")

	reader := gocsv.DefaultCSVReader(strings.NewReader(csvContent))
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("marshalAndPrintTable: %w", err)
		}

		if header {
			table.SetHeader(record)
			header = false
		} else {
			table.Append(record)
		}
	}

	table.Render()
	return nil
}
