package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pilldrop/dispenserctl/internal/schedule"
)

// Frame sentinels. The receiver firmware scans its serial buffer for
// these markers to find payload boundaries, so they must never appear
// inside a record's serialized fields.
const (
	StartSentinel = "#START#"
	EndSentinel   = "#END#"
)

// Payload is the complete sentinel-wrapped byte encoding of one
// schedule submission. It is constructed once per transfer attempt and
// never mutated afterwards.
type Payload []byte

// Encode canonicalizes a schedule into its wire payload. The whole
// schedule is validated first; nothing is emitted on failure. Encoding
// is deterministic: the record order is preserved and the JSON field
// set and indentation are fixed, so identical schedules produce
// byte-identical payloads.
func Encode(sched schedule.Schedule) (Payload, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if err := checkSentinels(sched); err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(sched.Records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("protocol: encode schedule: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(StartSentinel) + len(body) + len(EndSentinel))
	buf.WriteString(StartSentinel)
	buf.Write(body)
	buf.WriteString(EndSentinel)
	return Payload(buf.Bytes()), nil
}

func checkSentinels(sched schedule.Schedule) error {
	for i, rec := range sched.Records {
		if containsSentinel(rec.Tube) {
			return fmt.Errorf("%w: record[%d] field %q", ErrSentinelInField, i, "tube")
		}
		if containsSentinel(rec.Type) {
			return fmt.Errorf("%w: record[%d] field %q", ErrSentinelInField, i, "type")
		}
		for j, dose := range rec.Doses {
			if containsSentinel(dose.Dosage) {
				return fmt.Errorf("%w: record[%d] field time_to_take[%d].dosage", ErrSentinelInField, i, j)
			}
		}
	}
	return nil
}

func containsSentinel(s string) bool {
	return strings.Contains(s, StartSentinel) || strings.Contains(s, EndSentinel)
}
