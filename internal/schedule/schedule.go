package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptySchedule = errors.New("schedule: no medication records")
)

// timePattern accepts 24h clock times; a single-digit hour is tolerated
// because hand-edited schedule files commonly carry "9:00".
var timePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// DoseEvent is one dose occurrence within a day.
type DoseEvent struct {
	Time   string `json:"time"`
	Dosage string `json:"dosage"`
}

// MedicationRecord binds one medication to a physical dispenser tube.
// The receiver firmware reads the dose list under the time_to_take key.
type MedicationRecord struct {
	Tube   string      `json:"tube"`
	Type   string      `json:"type"`
	Amount int         `json:"amount"`
	Doses  []DoseEvent `json:"time_to_take"`
}

// ValidationError identifies the record and field that failed a
// pre-flight check. It is always resolved before any transfer begins.
type ValidationError struct {
	Record int    // zero-based index into the submitted sequence
	Tube   string // tube identifier when known
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	where := fmt.Sprintf("record[%d]", e.Record)
	if e.Tube != "" {
		where = fmt.Sprintf("record[%d] (%s)", e.Record, e.Tube)
	}
	return fmt.Sprintf("schedule: %s field %q: %s", where, e.Field, e.Reason)
}

// ValidTime reports whether t is a well-formed HH:MM 24h clock time.
func ValidTime(t string) bool {
	return timePattern.MatchString(t)
}

// Validate checks one record against the submission contract.
func (m MedicationRecord) Validate(index int) error {
	if strings.TrimSpace(m.Tube) == "" {
		return &ValidationError{Record: index, Field: "tube", Reason: "must not be empty"}
	}
	if strings.TrimSpace(m.Type) == "" {
		return &ValidationError{Record: index, Tube: m.Tube, Field: "type", Reason: "must not be empty"}
	}
	if m.Amount <= 0 {
		return &ValidationError{Record: index, Tube: m.Tube, Field: "amount", Reason: "must be a positive integer"}
	}
	if len(m.Doses) == 0 {
		return &ValidationError{Record: index, Tube: m.Tube, Field: "time_to_take", Reason: "needs at least one dose"}
	}
	for i, dose := range m.Doses {
		if !ValidTime(dose.Time) {
			return &ValidationError{
				Record: index,
				Tube:   m.Tube,
				Field:  fmt.Sprintf("time_to_take[%d].time", i),
				Reason: fmt.Sprintf("invalid clock time %q (HH:MM)", dose.Time),
			}
		}
		if strings.TrimSpace(dose.Dosage) == "" {
			return &ValidationError{
				Record: index,
				Tube:   m.Tube,
				Field:  fmt.Sprintf("time_to_take[%d].dosage", i),
				Reason: "must not be empty",
			}
		}
	}
	return nil
}

// Schedule is an ordered sequence of medication records, one per tube.
type Schedule struct {
	Records []MedicationRecord
}

// Validate checks every record; the first violation fails the whole
// schedule so the encoder never sees a partially valid sequence.
func (s Schedule) Validate() error {
	if len(s.Records) == 0 {
		return ErrEmptySchedule
	}
	for i, rec := range s.Records {
		if err := rec.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// Upsert appends rec, replacing any earlier record for the same tube.
// Last write wins, matching the editing surface this model feeds.
func (s *Schedule) Upsert(rec MedicationRecord) {
	for i, existing := range s.Records {
		if existing.Tube == rec.Tube {
			s.Records[i] = rec
			return
		}
	}
	s.Records = append(s.Records, rec)
}

// Summary describes a schedule for operator display.
type Summary struct {
	Medications int
	Tubes       int
	Doses       int
}

func (s Schedule) Summary() Summary {
	tubes := make(map[string]struct{}, len(s.Records))
	doses := 0
	for _, rec := range s.Records {
		tubes[rec.Tube] = struct{}{}
		doses += len(rec.Doses)
	}
	return Summary{
		Medications: len(s.Records),
		Tubes:       len(tubes),
		Doses:       doses,
	}
}
