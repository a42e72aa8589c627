package analysis

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/popgraph/internal/table"
)

// Describe returns gota's per-column statistics table (mean, median, quartiles...)
// for the loaded table.
func Describe(t *table.Table) (string, error) {
	if t.Len() == 0 {
		return "", errors.New("describe: table has no data rows")
	}
	records := make([][]string, 0, t.Len()+1)
	records = append(records, t.Header)
	records = append(records, t.Rows...)
	df := dataframe.LoadRecords(records, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return "", fmt.Errorf("describe: %w", df.Err)
	}
	desc := df.Describe()
	if desc.Err != nil {
		return "", fmt.Errorf("describe: %w", desc.Err)
	}
	return desc.String(), nil
}
