// Package dataset loads applicant and seat records for a matching run.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/seatmatch/core/logger"
	"github.com/kilianp07/seatmatch/core/model"
)

//go:embed demo.yaml
var demoYAML []byte

var validate = validator.New()

// ErrInvalid wraps every validation failure of an input file.
var ErrInvalid = errors.New("invalid dataset")

// SeatRecord is the file representation of a seat offering.
type SeatRecord struct {
	Facility string `yaml:"facility" json:"facility" validate:"required"`
	Name     string `yaml:"name" json:"name"`
	Grade    string `yaml:"grade" json:"grade" validate:"required"`
	Capacity int    `yaml:"capacity" json:"capacity" validate:"gte=0"`
}

// ApplicantRecord is the file representation of an applicant.
type ApplicantRecord struct {
	ID              int64    `yaml:"id" json:"id" validate:"gt=0"`
	Name            string   `yaml:"name" json:"name"`
	DistrictID      string   `yaml:"district_id" json:"district_id"`
	Grade           string   `yaml:"grade" json:"grade" validate:"required"`
	Priority        int      `yaml:"priority" json:"priority"`
	SubPriority     int64    `yaml:"sub_priority" json:"sub_priority"`
	FamilyKey       string   `yaml:"family_key" json:"family_key" validate:"omitempty,startsnotwith=#"`
	SiblingFacility string   `yaml:"sibling_facility" json:"sibling_facility"`
	Preferences     []string `yaml:"preferences" json:"preferences" validate:"dive,required"`
}

// File is the on-disk layout of a dataset.
type File struct {
	Seats      []SeatRecord      `yaml:"seats" json:"seats" validate:"dive"`
	Applicants []ApplicantRecord `yaml:"applicants" json:"applicants" validate:"dive"`
}

// Dataset is a validated set of seats and applicants.
type Dataset struct {
	Seats      []model.Seat
	Applicants []*model.Applicant
}

// SeatMap indexes the seats by key.
func (d Dataset) SeatMap() model.SeatMap { return model.NewSeatMap(d.Seats) }

// Load reads a dataset from a YAML or JSON file, chosen by extension.
func Load(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(b)
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return Dataset{}, fmt.Errorf("unsupported dataset format %q", filepath.Ext(path))
	}
}

// Demo returns the embedded 13-applicant demonstration dataset.
func Demo() Dataset {
	ds, err := ParseYAML(demoYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded demo dataset: %v", err))
	}
	return ds
}

// ParseYAML decodes and validates a YAML document.
func ParseYAML(b []byte) (Dataset, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Dataset{}, fmt.Errorf("decode yaml: %w", err)
	}
	return f.Build()
}

// ParseJSON decodes and validates a JSON document.
func ParseJSON(b []byte) (Dataset, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Dataset{}, fmt.Errorf("decode json: %w", err)
	}
	return f.Build()
}

// Build validates the records and converts them to model types.
func (f File) Build() (Dataset, error) {
	if err := validate.Struct(f); err != nil {
		return Dataset{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var ds Dataset
	seen := make(map[model.SeatKey]bool, len(f.Seats))
	for _, s := range f.Seats {
		key := model.SeatKey{Facility: s.Facility, Grade: s.Grade}
		if seen[key] {
			return Dataset{}, fmt.Errorf("%w: duplicate seat %s", ErrInvalid, key)
		}
		seen[key] = true
		ds.Seats = append(ds.Seats, model.Seat{Key: key, Name: s.Name, Capacity: s.Capacity})
	}
	ids := make(map[int64]bool, len(f.Applicants))
	for _, a := range f.Applicants {
		if ids[a.ID] {
			return Dataset{}, fmt.Errorf("%w: duplicate applicant %d", ErrInvalid, a.ID)
		}
		ids[a.ID] = true
		ds.Applicants = append(ds.Applicants, &model.Applicant{
			ID:              a.ID,
			Name:            a.Name,
			DistrictID:      a.DistrictID,
			Grade:           a.Grade,
			Priority:        a.Priority,
			SubPriority:     a.SubPriority,
			FamilyKey:       a.FamilyKey,
			SiblingFacility: a.SiblingFacility,
			Preferences:     append([]string(nil), a.Preferences...),
		})
	}
	return ds, nil
}

// FilterGrade keeps the applicants of grade only. Seats are untouched. An
// empty grade returns the dataset as is.
func (d Dataset) FilterGrade(grade string) Dataset {
	if grade == "" {
		return d
	}
	out := Dataset{Seats: d.Seats}
	for _, a := range d.Applicants {
		if a.Grade == grade {
			out.Applicants = append(out.Applicants, a)
		}
	}
	return out
}

// FillDefaultPreferences gives every applicant without preferences the
// facilities offering its grade, in facility code order. It returns the
// number of applicants filled.
func (d Dataset) FillDefaultPreferences(log logger.Logger) int {
	seats := d.SeatMap()
	n := 0
	for _, a := range d.Applicants {
		if len(a.Preferences) > 0 {
			continue
		}
		a.Preferences = seats.Facilities(a.Grade)
		n++
		if log != nil {
			log.Warnf("applicant %d has no preferences, using %v", a.ID, a.Preferences)
		}
	}
	return n
}

// Grades returns the distinct applicant grades, sorted.
func (d Dataset) Grades() []string {
	set := make(map[string]struct{})
	for _, a := range d.Applicants {
		set[a.Grade] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
