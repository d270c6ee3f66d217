package eval

import (
	"fmt"
	"sort"

	"github.com/trafficlens/trafficlens/pkg/models"
)

// AnomalyScan aligns detector verdicts back onto the combined batch.
// The detector only sees the test partition, so most rows stay
// NotScored; they must never be defaulted to a verdict.
type AnomalyScan struct {
	// Verdicts has one entry per combined-batch row.
	Verdicts []models.Verdict `json:"verdicts"`

	// Flagged holds the original row indices judged anomalous, in
	// ascending order.
	Flagged []int `json:"flagged"`

	// Scored is the number of rows the detector examined.
	Scored int `json:"scored"`

	// Alert is set when at least one row was flagged.
	Alert bool `json:"alert"`
}

// JoinVerdicts maps per-test-row verdicts onto the full batch using
// the original row indices carried through the split.
func JoinVerdicts(totalRows int, rowIndex []int, verdicts []models.Verdict) (*AnomalyScan, error) {
	if len(rowIndex) != len(verdicts) {
		return nil, fmt.Errorf("eval: %d row indices but %d verdicts", len(rowIndex), len(verdicts))
	}

	scan := &AnomalyScan{
		Verdicts: make([]models.Verdict, totalRows),
		Scored:   len(rowIndex),
	}
	for i, row := range rowIndex {
		if row < 0 || row >= totalRows {
			return nil, fmt.Errorf("eval: row index %d out of range (%d rows)", row, totalRows)
		}
		scan.Verdicts[row] = verdicts[i]
		if verdicts[i] == models.Anomaly {
			scan.Flagged = append(scan.Flagged, row)
		}
	}
	sort.Ints(scan.Flagged)
	scan.Alert = len(scan.Flagged) > 0
	return scan, nil
}
