package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProperty_IsActive(t *testing.T) {
	for _, s := range []string{StatusExclusive, StatusGeneral, StatusDown, StatusSold, ""} {
		p := Property{Status: s}
		require.True(t, p.IsActive(), s)
	}
	p := Property{Status: StatusDelisted}
	require.False(t, p.IsActive())
}

func TestStatusBadge(t *testing.T) {
	require.Equal(t, "status-exclusive", StatusBadge("專任"))
	require.Equal(t, "status-delisted", StatusBadge("下架"))
	require.Equal(t, "status-delisted", StatusBadge("已下架"))
	require.Equal(t, "status-pending", StatusBadge("待確認"))
	require.Equal(t, "status-general", StatusBadge("whatever"))
}

func TestDelistPatch(t *testing.T) {
	p := Property{ID: "1", Status: StatusExclusive, Notes: "old"}
	require.NoError(t, ApplyPatch(&p, DelistPatch("屋主收回")))
	require.Equal(t, StatusDelisted, p.Status)
	require.Equal(t, "下架原因: 屋主收回", p.Notes)
	require.False(t, p.IsActive())

	require.NoError(t, ApplyPatch(&p, RelistPatch()))
	require.Equal(t, StatusGeneral, p.Status)
}

func TestApplyPatch_MergesAndKeepsOtherFields(t *testing.T) {
	p := Property{ID: "p1", CommunityName: "威均天翔", TotalPrice: "1200", Agent: "錦宣"}
	require.NoError(t, ApplyPatch(&p, map[string]any{"total_price": 1150.0, "notes": "降價"}))
	require.Equal(t, 1150.0, p.TotalPrice.Float())
	require.Equal(t, "降價", p.Notes)
	require.Equal(t, "威均天翔", p.CommunityName)
	require.Equal(t, "錦宣", p.Agent)
}

func TestPhotos(t *testing.T) {
	p := Property{}
	p.AddPhotos("a.jpg", "b.jpg", "a.jpg", "")
	require.Equal(t, []string{"a.jpg", "b.jpg"}, p.PhotoPaths)
	require.Equal(t, "a.jpg", p.Cover())

	require.ErrorIs(t, p.SetCover("zzz.jpg"), ErrInvalidCover)
	require.NoError(t, p.SetCover("b.jpg"))
	require.Equal(t, "b.jpg", p.Cover())

	require.True(t, p.RemovePhoto("b.jpg"))
	require.Empty(t, p.CoverPhotoPath)
	require.Equal(t, []string{"a.jpg"}, p.PhotoPaths)
	require.False(t, p.RemovePhoto("b.jpg"))

	patch := p.PhotoPatch()
	require.Equal(t, []string{"a.jpg"}, patch["photo_paths"])
}

func TestProperty_DecodesWebhookRow(t *testing.T) {
	raw := `{"id":17,"community_name":"上城捷境","total_price":"980","total_ping":28.2,
		"parking_ping":null,"parking_price":150,"status":"一般","photo_paths":["x.jpg"]}`
	var p Property
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Equal(t, Text("17"), p.ID)
	require.Equal(t, 980.0, p.TotalPrice.Float())
	require.Equal(t, 0.0, p.ParkingPing.Float())
	require.Equal(t, "x.jpg", p.Cover())
}

func TestUser(t *testing.T) {
	off := false
	u := User{Email: "Admin@Haoshi.com "}
	require.True(t, u.MatchesEmail("admin@haoshi.com"))
	require.True(t, u.Active())
	u.IsActive = &off
	require.False(t, u.Active())
}

func TestParseEntity(t *testing.T) {
	e, err := ParseEntity("Communities")
	require.NoError(t, err)
	require.Equal(t, EntityCommunity, e)
	_, err = ParseEntity("photos")
	require.Error(t, err)
}
