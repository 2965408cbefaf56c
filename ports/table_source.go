package ports

import "context"

// RawTable is a header row plus string cells exactly as read from the source
type RawTable struct {
	Source   string
	Headers  []string
	Rows     [][]string
	Warnings []string
}

// TableSource reads a tabular file. Implementations must not interpret
// cell values; coercion happens in the dataset loader.
type TableSource interface {
	Read(ctx context.Context, path string) (*RawTable, error)
}
