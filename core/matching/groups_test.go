package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/seatmatch/core/model"
	"github.com/kilianp07/seatmatch/infra/logger"
)

func TestBuildUnits(t *testing.T) {
	as := []*model.Applicant{
		{ID: 5, FamilyKey: "SMITH"},
		{ID: 3},
		{ID: 2, FamilyKey: "SMITH"},
		{ID: 9, FamilyKey: "LEE"},
	}
	units := BuildUnits(as)
	assert.Equal(t, [][]int64{{2, 5}, {3}, {9}}, units)
	assert.Equal(t, "SMITH", as[0].Unit)
	assert.Equal(t, "#3", as[1].Unit)
}

func TestBuildUnits_FamilyKeyDoesNotCollideWithID(t *testing.T) {
	as := []*model.Applicant{{ID: 7}, {ID: 8, FamilyKey: "7"}}
	assert.Len(t, BuildUnits(as), 2)
}

func TestBuildUnits_OrderIndependent(t *testing.T) {
	a := []*model.Applicant{{ID: 1, FamilyKey: "A"}, {ID: 2}, {ID: 3, FamilyKey: "A"}}
	b := []*model.Applicant{{ID: 3, FamilyKey: "A"}, {ID: 2}, {ID: 1, FamilyKey: "A"}}
	assert.Equal(t, BuildUnits(a), BuildUnits(b))
}

func TestBoostSiblingPreferences(t *testing.T) {
	tests := []struct {
		name    string
		prefs   []string
		sibling string
		want    []string
	}{
		{"absent", []string{"F1", "F2"}, "F3", []string{"F3", "F1", "F2"}},
		{"moved", []string{"F1", "F2", "F3"}, "F2", []string{"F2", "F1", "F3"}},
		{"already first", []string{"F2", "F1"}, "F2", []string{"F2", "F1"}},
		{"only first duplicate removed", []string{"F1", "F2", "F1"}, "F1", []string{"F1", "F2", "F1"}},
		{"empty", nil, "F1", []string{"F1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &model.Applicant{ID: 1, Preferences: tt.prefs, SiblingFacility: tt.sibling}
			n := BoostSiblingPreferences([]*model.Applicant{a}, logger.NopLogger{})
			assert.Equal(t, 1, n)
			assert.Equal(t, tt.want, a.Preferences)
		})
	}
}

func TestBoostSiblingPreferences_NoSibling(t *testing.T) {
	a := &model.Applicant{ID: 1, Preferences: []string{"F1"}}
	assert.Equal(t, 0, BoostSiblingPreferences([]*model.Applicant{a}, nil))
	assert.Equal(t, []string{"F1"}, a.Preferences)
}
