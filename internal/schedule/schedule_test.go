package schedule

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/pilldrop/dispenserctl/internal/testutil/testlog"
)

func validRecord() MedicationRecord {
	return MedicationRecord{
		Tube:   "tube1",
		Type:   "Aspirin",
		Amount: 50,
		Doses: []DoseEvent{
			{Time: "09:00", Dosage: "1 tablet"},
			{Time: "21:00", Dosage: "1 tablet"},
		},
	}
}

func TestValidTime(t *testing.T) {
	testlog.Start(t)
	valid := []string{"00:00", "9:00", "09:30", "12:05", "23:59"}
	for _, v := range valid {
		if !ValidTime(v) {
			t.Fatalf("%q should be valid", v)
		}
	}
	invalid := []string{"", "24:00", "12:60", "9", "9:5", "12:00pm", "ab:cd", "12:005"}
	for _, v := range invalid {
		if ValidTime(v) {
			t.Fatalf("%q should be invalid", v)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	testlog.Start(t)
	if err := validRecord().Validate(0); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*MedicationRecord)
		field  string
	}{
		{"empty tube", func(m *MedicationRecord) { m.Tube = "  " }, "tube"},
		{"empty type", func(m *MedicationRecord) { m.Type = "" }, "type"},
		{"zero amount", func(m *MedicationRecord) { m.Amount = 0 }, "amount"},
		{"negative amount", func(m *MedicationRecord) { m.Amount = -3 }, "amount"},
		{"no doses", func(m *MedicationRecord) { m.Doses = nil }, "time_to_take"},
		{"bad time", func(m *MedicationRecord) { m.Doses[1].Time = "25:00" }, "time_to_take[1].time"},
		{"empty dosage", func(m *MedicationRecord) { m.Doses[0].Dosage = " " }, "time_to_take[0].dosage"},
	}
	for _, tc := range cases {
		rec := validRecord()
		tc.mutate(&rec)
		err := rec.Validate(4)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if vErr.Field != tc.field {
			t.Fatalf("%s: field %q, want %q", tc.name, vErr.Field, tc.field)
		}
		if vErr.Record != 4 {
			t.Fatalf("%s: record index %d, want 4", tc.name, vErr.Record)
		}
	}
}

func TestScheduleValidateFailsFast(t *testing.T) {
	testlog.Start(t)
	if err := (Schedule{}).Validate(); !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("expected ErrEmptySchedule, got %v", err)
	}

	bad := validRecord()
	bad.Amount = 0
	sched := Schedule{Records: []MedicationRecord{validRecord(), bad}}
	err := sched.Validate()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Record != 1 {
		t.Fatalf("record index %d, want 1", vErr.Record)
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	testlog.Start(t)
	var sched Schedule
	first := validRecord()
	sched.Upsert(first)

	second := validRecord()
	second.Tube = "tube2"
	second.Type = "Paracetamol"
	sched.Upsert(second)

	replacement := validRecord()
	replacement.Amount = 10
	sched.Upsert(replacement)

	if len(sched.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(sched.Records))
	}
	if sched.Records[0].Amount != 10 {
		t.Fatalf("tube1 not replaced, amount %d", sched.Records[0].Amount)
	}
	if sched.Records[1].Type != "Paracetamol" {
		t.Fatalf("tube2 disturbed by replacement")
	}
}

func TestSummary(t *testing.T) {
	testlog.Start(t)
	second := validRecord()
	second.Tube = "tube2"
	second.Doses = second.Doses[:1]
	sched := Schedule{Records: []MedicationRecord{validRecord(), second}}

	sum := sched.Summary()
	if sum.Medications != 2 || sum.Tubes != 2 || sum.Doses != 3 {
		t.Fatalf("summary %+v", sum)
	}
}

func TestDecode(t *testing.T) {
	testlog.Start(t)
	data := []byte(`[
  {
    "tube": "tube1",
    "type": "Aspirin",
    "amount": 50,
    "time_to_take": [
      {"time": "09:00", "dosage": "1 tablet"}
    ]
  }
]`)
	sched, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sched.Records) != 1 || sched.Records[0].Type != "Aspirin" {
		t.Fatalf("decoded %+v", sched.Records)
	}

	if _, err := Decode([]byte(`{"not":"an array"}`)); err == nil {
		t.Fatalf("object decoded as record array")
	}
	if _, err := Decode([]byte(`[]`)); !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("expected ErrEmptySchedule, got %v", err)
	}
	if _, err := Decode([]byte(`[{"tube":"tube1","type":"X","amount":1,"time_to_take":[{"time":"99:99","dosage":"1"}]}]`)); err == nil {
		t.Fatalf("invalid time accepted")
	}
}

func TestLoadFile(t *testing.T) {
	testlog.Start(t)
	path := t.TempDir() + "/schedule.json"
	if err := os.WriteFile(path, []byte(`[{"tube":"tube1","type":"Aspirin","amount":50,"time_to_take":[{"time":"09:00","dosage":"1 tablet"}]}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sched, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sched.Records[0].Tube != "tube1" {
		t.Fatalf("loaded %+v", sched.Records)
	}

	if _, err := LoadFile(t.TempDir() + "/missing.json"); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestParseLine(t *testing.T) {
	testlog.Start(t)
	rec, err := ParseLine("Aspirin|50|09:00|1 tablet|21:00|")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Type != "Aspirin" || rec.Amount != 50 {
		t.Fatalf("parsed %+v", rec)
	}
	if len(rec.Doses) != 2 {
		t.Fatalf("got %d doses, want 2", len(rec.Doses))
	}
	// Omitted second dosage defaults to the first.
	if rec.Doses[1].Dosage != "1 tablet" {
		t.Fatalf("second dosage %q", rec.Doses[1].Dosage)
	}
	if rec.Tube != "" {
		t.Fatalf("ParseLine must not assign tubes, got %q", rec.Tube)
	}

	rec, err = ParseLine("Ibuprofen|20|08:00|1 tablet|14:00|2 tablets|20:00|")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []DoseEvent{
		{Time: "08:00", Dosage: "1 tablet"},
		{Time: "14:00", Dosage: "2 tablets"},
		{Time: "20:00", Dosage: "1 tablet"},
	}
	if len(rec.Doses) != len(want) {
		t.Fatalf("got %d doses, want %d", len(rec.Doses), len(want))
	}
	for i, d := range want {
		if rec.Doses[i] != d {
			t.Fatalf("dose %d = %+v, want %+v", i, rec.Doses[i], d)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	testlog.Start(t)
	if _, err := ParseLine("   "); !errors.Is(err, ErrEmptyLine) {
		t.Fatalf("expected ErrEmptyLine, got %v", err)
	}
	bad := []string{
		"Aspirin|50|09:00",
		"Aspirin|fifty|09:00|1 tablet",
		"Aspirin|50|9am|1 tablet",
		"Aspirin|50|09:00|1 tablet|not-a-time|2",
		"|50|09:00|1 tablet",
	}
	for _, line := range bad {
		if _, err := ParseLine(line); err == nil {
			t.Fatalf("line %q accepted", line)
		}
	}
}

func TestParseLines(t *testing.T) {
	testlog.Start(t)
	text := "Aspirin|50|09:00|1 tablet|21:00|\r\n\r\nParacetamol|30|8:30|2 tablets\n"
	sched, normalized, err := ParseLines(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sched.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(sched.Records))
	}
	if sched.Records[0].Tube != "tube1" || sched.Records[1].Tube != "tube2" {
		t.Fatalf("tubes %q %q", sched.Records[0].Tube, sched.Records[1].Tube)
	}
	wantNorm := "Aspirin|50|09:00|1 tablet|21:00|\nParacetamol|30|8:30|2 tablets"
	if normalized != wantNorm {
		t.Fatalf("normalized %q, want %q", normalized, wantNorm)
	}

	_, _, err = ParseLines("Aspirin|50|09:00|1 tablet\n\nbroken line")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line 3 error, got %v", err)
	}

	if _, _, err := ParseLines("\n \n"); !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("expected ErrEmptySchedule, got %v", err)
	}
}
