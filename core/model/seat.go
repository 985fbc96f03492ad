package model

import (
	"fmt"
	"sort"
)

// SeatKey identifies a grade-specific offering at a facility.
type SeatKey struct {
	Facility string
	Grade    string
}

// IsZero reports whether the key is unset.
func (k SeatKey) IsZero() bool { return k.Facility == "" && k.Grade == "" }

func (k SeatKey) String() string { return fmt.Sprintf("%s_%s", k.Facility, k.Grade) }

// Seat is the capacity offered by a facility for one grade.
type Seat struct {
	Key SeatKey
	// Name is the facility display name.
	Name     string
	Capacity int
}

// Validate checks the seat configuration.
func (s Seat) Validate() error {
	if s.Key.Facility == "" || s.Key.Grade == "" {
		return fmt.Errorf("seat key must have facility and grade")
	}
	if s.Capacity < 0 {
		return fmt.Errorf("seat %s: capacity must not be negative", s.Key)
	}
	return nil
}

// SeatMap indexes seats by key.
type SeatMap map[SeatKey]*Seat

// NewSeatMap builds a SeatMap from a list of seats.
func NewSeatMap(seats []Seat) SeatMap {
	m := make(SeatMap, len(seats))
	for i := range seats {
		s := seats[i]
		m[s.Key] = &s
	}
	return m
}

// Keys returns the seat keys sorted by facility then grade.
func (m SeatMap) Keys() []SeatKey {
	keys := make([]SeatKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortSeatKeys(keys)
	return keys
}

// Facilities returns the distinct facility codes offering grade, sorted.
func (m SeatMap) Facilities(grade string) []string {
	seen := make(map[string]struct{})
	var out []string
	for k := range m {
		if k.Grade != grade {
			continue
		}
		if _, ok := seen[k.Facility]; ok {
			continue
		}
		seen[k.Facility] = struct{}{}
		out = append(out, k.Facility)
	}
	sort.Strings(out)
	return out
}

// SortSeatKeys orders keys by facility then grade.
func SortSeatKeys(keys []SeatKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Facility != keys[j].Facility {
			return keys[i].Facility < keys[j].Facility
		}
		return keys[i].Grade < keys[j].Grade
	})
}
