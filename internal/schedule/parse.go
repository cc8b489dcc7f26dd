package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Prescription line format, one medication per line:
//
//	Name|Amount|time1|dosage1|time2|[dosage2]|time3|[dosage3] ...
//
// time1 and dosage1 are required; a later dosage may be omitted, in
// which case it defaults to dosage1. This is the format embedded in
// printed prescription QR codes.

var ErrEmptyLine = errors.New("schedule: empty prescription line")

// ParseLine parses one prescription line into a record. The tube is
// left empty; AssignTubes or the caller decides slot placement.
func ParseLine(line string) (MedicationRecord, error) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return MedicationRecord{}, ErrEmptyLine
	}
	tokens := strings.Split(raw, "|")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	// A trailing pipe is a visual convenience, not an empty field.
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) < 4 {
		return MedicationRecord{}, fmt.Errorf("schedule: need at least Name|Amount|time1|dosage1, got %q", raw)
	}

	name := tokens[0]
	if name == "" {
		return MedicationRecord{}, fmt.Errorf("schedule: medication name must not be empty in %q", raw)
	}
	amount, err := strconv.Atoi(tokens[1])
	if err != nil {
		return MedicationRecord{}, fmt.Errorf("schedule: amount must be an integer for %q", name)
	}

	firstTime, firstDose := tokens[2], tokens[3]
	if !ValidTime(firstTime) {
		return MedicationRecord{}, fmt.Errorf("schedule: invalid time %q for %q (HH:MM)", firstTime, name)
	}
	if firstDose == "" {
		return MedicationRecord{}, fmt.Errorf("schedule: first dosage must not be empty for %q", name)
	}
	doses := []DoseEvent{{Time: firstTime, Dosage: firstDose}}

	// Remaining tokens come in timeN [dosageN] pairs; a missing dosage
	// falls back to dosage1.
	i := 4
	for i < len(tokens) {
		t := tokens[i]
		if !ValidTime(t) {
			return MedicationRecord{}, fmt.Errorf("schedule: expected time at position %d for %q, got %q", i, name, t)
		}
		dose := firstDose
		if i+1 < len(tokens) && tokens[i+1] != "" {
			dose = tokens[i+1]
			i += 2
		} else {
			i++
		}
		doses = append(doses, DoseEvent{Time: t, Dosage: dose})
	}

	return MedicationRecord{
		Type:   name,
		Amount: amount,
		Doses:  doses,
	}, nil
}

// ParseLines parses multiline prescription text into a schedule and
// returns the normalized text alongside it. Blank lines are skipped
// and errors carry the 1-based source line number. The normalized text
// preserves each line exactly as written so a QR rendering of it stays
// byte-stable.
func ParseLines(text string) (Schedule, string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sched Schedule
	var normalized []string
	lineNo := 0
	for _, line := range strings.Split(text, "\n") {
		lineNo++
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return Schedule{}, "", fmt.Errorf("line %d: %w", lineNo, err)
		}
		sched.Records = append(sched.Records, rec)
		normalized = append(normalized, strings.TrimSpace(line))
	}
	if len(sched.Records) == 0 {
		return Schedule{}, "", ErrEmptySchedule
	}
	AssignTubes(&sched)
	return sched, strings.Join(normalized, "\n"), nil
}

// AssignTubes fills empty tube identifiers as tube1..tubeN in record
// order, leaving explicit assignments untouched.
func AssignTubes(s *Schedule) {
	for i := range s.Records {
		if s.Records[i].Tube == "" {
			s.Records[i].Tube = fmt.Sprintf("tube%d", i+1)
		}
	}
}
