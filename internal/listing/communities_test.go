package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func communityNames(rows []CommunityRow) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].CommunityName
	}
	return out
}

func TestCommunities_SearchAndSort(t *testing.T) {
	e := newEngine()
	comms := []models.Community{
		{CommunityName: "Beta", Builder: "遠雄", CompletionDate: "99", TotalUnits: "1200"},
		{CommunityName: "alpha", Builder: "國泰", CompletionDate: "108", TotalUnits: "85"},
		{CommunityName: "Gamma", Builder: "遠雄建設", CompletionDate: "未知", TotalUnits: ""},
	}
	props := []models.Property{{CommunityName: "Beta"}, {CommunityName: "Beta"}}

	q := DefaultCommunityQuery()
	rows := e.Communities(q, comms, props)
	assert.Equal(t, []string{"alpha", "Beta", "Gamma"}, communityNames(rows))
	assert.Equal(t, 2, rows[1].ListingCount)

	require.NoError(t, q.ToggleSort("completion_date"))
	assert.Equal(t, Asc, q.SortDirection)
	assert.Equal(t, []string{"Gamma", "Beta", "alpha"}, communityNames(e.Communities(q, comms, nil)))

	require.NoError(t, q.ToggleSort("total_units"))
	require.NoError(t, q.ToggleSort("total_units"))
	assert.Equal(t, Desc, q.SortDirection)
	assert.Equal(t, []string{"Beta", "alpha", "Gamma"}, communityNames(e.Communities(q, comms, nil)))

	q.Search = "遠雄"
	assert.Equal(t, []string{"Beta", "Gamma"}, communityNames(e.Communities(q, comms, nil)))
	q.Search = "ALP"
	assert.Equal(t, []string{"alpha"}, communityNames(e.Communities(q, comms, nil)))
}

func TestCommunityQuery_RejectsUnknownColumn(t *testing.T) {
	q := DefaultCommunityQuery()
	require.ErrorIs(t, q.ToggleSort("price"), ErrUnknownSortKey)
	require.ErrorIs(t, q.SetSort("price", Asc), ErrUnknownSortKey)
	require.Error(t, q.SetSort("builder", "up"))

	require.NoError(t, q.SetSort("builder", Desc))
	assert.Equal(t, "builder", q.SortColumn)
	assert.Equal(t, Desc, q.SortDirection)
}

func TestUsers(t *testing.T) {
	inactive := false
	users := []models.User{
		{Name: "Zoe", Email: "zoe@haoshi.com", Role: models.RoleUser},
		{Name: "amy", Email: "amy@haoshi.com", Role: models.RoleAdmin, IsActive: &inactive},
	}
	rows := Users(users, "")
	assert.Equal(t, "amy", rows[0].Name)
	assert.Equal(t, "管理員", rows[0].RoleLabel)
	assert.False(t, rows[0].Active)
	assert.True(t, rows[1].Active)

	assert.Len(t, Users(users, "ZOE@"), 1)
}
