package types

import (
	"encoding/json"
	"fmt"
)

// BlockNumber is the sequence id of a rollup block.
type BlockNumber uint32

// AccountID identifies a rollup account.
type AccountID uint32

// PriorityOpRange holds the ID of the first unprocessed priority operation
// before and after a block. After is never less than Before.
type PriorityOpRange struct {
	Before uint64
	After  uint64
}

// Len returns the number of priority operations processed in the range.
func (r PriorityOpRange) Len() uint64 {
	return r.After - r.Before
}

// MarshalJSON writes the range as a [before, after] pair.
func (r PriorityOpRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint64{r.Before, r.After})
}

func (r *PriorityOpRange) UnmarshalJSON(data []byte) error {
	var pair [2]uint64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("Deserialize PriorityOpRange: %w", err)
	}
	if pair[1] < pair[0] {
		return fmt.Errorf("Deserialize PriorityOpRange: after (%d) is less than before (%d)", pair[1], pair[0])
	}
	r.Before, r.After = pair[0], pair[1]
	return nil
}
