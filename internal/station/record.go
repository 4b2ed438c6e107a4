package station

import (
	"errors"
	"fmt"
)

// RecordType identifies the subtype of a condition record, as reported in the
// station's data_structure_type field.
type RecordType int

const (
	RecordISS        RecordType = 1
	RecordLeafSoil   RecordType = 2
	RecordBarometer  RecordType = 3
	RecordIndoor     RecordType = 4
	RecordAirQuality RecordType = 6
)

func (t RecordType) String() string {
	switch t {
	case RecordISS:
		return "iss"
	case RecordLeafSoil:
		return "leaf_soil"
	case RecordBarometer:
		return "barometer"
	case RecordIndoor:
		return "indoor"
	case RecordAirQuality:
		return "air_quality"
	default:
		return fmt.Sprintf("type_%d", int(t))
	}
}

var (
	// ErrMissingRecord is returned by callers that require a record subtype the
	// station did not report.
	ErrMissingRecord = errors.New("record not found")
	// ErrMissingField is returned when a record lacks a value (absent or null).
	ErrMissingField = errors.New("field not reported")
)

// Record is one typed reading returned by a station source.
// Values holds every numeric field of the record; null fields are absent.
type Record struct {
	Type   RecordType
	Values map[string]float64
}

// Float returns the named value or an error wrapping ErrMissingField.
func (r Record) Float(name string) (float64, error) {
	v, ok := r.Values[name]
	if !ok {
		return 0, fmt.Errorf("%s.%s: %w", r.Type, name, ErrMissingField)
	}
	return v, nil
}

// Select returns the first record of type t in input order.
func Select(records []Record, t RecordType) (Record, bool) {
	for _, r := range records {
		if r.Type == t {
			return r, true
		}
	}
	return Record{}, false
}

// Require is Select with absence reported as ErrMissingRecord.
func Require(records []Record, t RecordType) (Record, error) {
	r, ok := Select(records, t)
	if !ok {
		return Record{}, fmt.Errorf("%s: %w", t, ErrMissingRecord)
	}
	return r, nil
}
