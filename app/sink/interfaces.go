package sink

import "context"

// Sink is the external tabular destination. Implementations must tolerate
// being unconfigured by reporting Available()=false rather than erroring on
// construction.
type Sink interface {
	Available() bool
	// ReadRows returns all data rows, header excluded.
	ReadRows(ctx context.Context) ([][]string, error)
	AppendRow(ctx context.Context, row []string) error
}
