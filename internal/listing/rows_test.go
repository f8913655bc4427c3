package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func TestRows(t *testing.T) {
	e := newEngine()
	props := []models.Property{{
		ID:              "p1",
		CommunityName:   "威均天翔",
		TotalPrice:      "1200",
		TotalPing:       "35.5",
		ParkingPing:     "8.5",
		ParkingPrice:    "180",
		Status:          models.StatusExclusive,
		PhotoPaths:      []string{"a.jpg", "b.jpg"},
		Agent:           "王小明",
		CreatedAtSource: "2026-01-05",
	}, {
		ID:         "p2",
		TotalPrice: "n/a",
		Status:     "自訂",
		Maintainer: "李經理",
	}}
	comms := []models.Community{{CommunityName: "威均天翔", Builder: "威均建設", CompletionDate: "108", TotalUnits: "320"}}
	state := DefaultViewState()
	state.ToggleExpanded("p1")

	rows := e.Rows(props, comms, &state, RenderOptions{CanEdit: true})
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "7", r.Age)
	assert.Equal(t, "320", r.TotalUnits)
	assert.Equal(t, "1200", r.TotalPrice)
	assert.Equal(t, "35.5", r.TotalPing)
	assert.Equal(t, "27.0", r.HouseArea)
	assert.Equal(t, "37.8", r.UnitPrice)
	assert.Equal(t, "兩房", r.HouseType)
	assert.Equal(t, 2, r.PhotoCount)
	assert.Equal(t, "a.jpg", r.CoverPhoto)
	assert.Equal(t, "status-exclusive", r.StatusBadge)
	assert.Equal(t, "王小明", r.LastEditor)
	assert.Equal(t, "2026/1/5", r.LastEdited)
	assert.Equal(t, []string{ActionEdit, ActionDelete}, r.Actions)
	require.NotNil(t, r.Details)
	assert.Equal(t, "民國 108 年", r.Details.CompletionYear)
	assert.Equal(t, "320 戶", r.Details.TotalUnits)
	assert.Equal(t, "- 坪", r.Details.UnitAreaRange)

	r = rows[1]
	assert.Equal(t, "-", r.Age)
	assert.Equal(t, "-", r.TotalPrice)
	assert.Equal(t, "-", r.UnitPrice)
	assert.Equal(t, "-", r.CommunityName)
	assert.Equal(t, "status-general", r.StatusBadge)
	assert.Equal(t, "李經理", r.LastEditor)
	assert.Equal(t, "-", r.LastEdited)
	assert.Nil(t, r.Details)

	viewer := e.Rows(props[:1], comms, nil, RenderOptions{})
	assert.Equal(t, []string{ActionView}, viewer[0].Actions)
}

func TestRows_EditingRowCarriesDraft(t *testing.T) {
	e := newEngine()
	edit := &RowEdit{ID: "p1", Draft: map[string]string{"total_price": "999"}, Saving: true}
	rows := e.Rows([]models.Property{{ID: "p1"}, {ID: "p2"}}, nil, nil, RenderOptions{CanEdit: true, Edit: edit})
	assert.Same(t, edit, rows[0].Edit)
	assert.Nil(t, rows[1].Edit)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026/1/5", FormatDate("2026-01-05T08:30:00Z"))
	assert.Equal(t, "2025/12/31", FormatDate("2025-12-31"))
	assert.Equal(t, "-", FormatDate(""))
	assert.Equal(t, "上週", FormatDate("上週"))
}
