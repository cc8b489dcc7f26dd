package schedule

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a schedule from the editor's JSON export: a top-level
// array of medication records. The result is fully validated; a file
// that parses but fails validation is rejected the same way a malformed
// manual entry would be.
func LoadFile(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule load failed (%s): %w", path, err)
	}
	return Decode(data)
}

// Decode parses and validates a JSON record array.
func Decode(data []byte) (Schedule, error) {
	var records []MedicationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return Schedule{}, fmt.Errorf("schedule parse failed: %w", err)
	}
	sched := Schedule{Records: records}
	if err := sched.Validate(); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}
