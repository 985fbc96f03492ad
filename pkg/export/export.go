package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/seatmatch/core/model"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{"applicant_id", "name", "grade", "facility", "rank", "priority", "unit", "fallback", "at_sibling_facility"}

// WriteJSON writes the assignments to w in JSON format.
func WriteJSON(w io.Writer, assignments []model.Assignment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(assignments)
}

// WriteCSV writes the assignments to w in CSV format. Fallback placements
// outside the ranked list carry rank -1.
func WriteCSV(w io.Writer, assignments []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, a := range assignments {
		rec := []string{
			strconv.FormatInt(a.ApplicantID, 10),
			a.Name,
			a.Grade,
			a.Facility,
			strconv.Itoa(a.Rank),
			strconv.Itoa(a.Priority),
			a.Unit,
			strconv.FormatBool(a.Fallback),
			strconv.FormatBool(a.AtSiblingFacility),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
