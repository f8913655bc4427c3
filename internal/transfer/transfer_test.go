package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"haoshi-console/internal/models"
)

func sampleProperties() []models.Property {
	return []models.Property{
		{
			ID:              "p1",
			CommunityName:   "威均天翔",
			TotalPrice:      "1200",
			TotalPing:       "35.5",
			ParkingPing:     "8.5",
			ParkingPrice:    "180",
			FloorInfo:       "12F/15F",
			Address:         "台北市信義區, 松仁路 100 號",
			Status:          models.StatusExclusive,
			Layout:          "3房2廳",
			Notes:           "屋主說 \"急售\"\n可議",
			Agent:           "王小明",
			CreatedAtSource: "2026-01-05",
		},
		{
			ID:            "p2",
			CommunityName: "上城捷境",
			TotalPrice:    "980",
			TotalPing:     "28",
			Status:        models.StatusGeneral,
		},
	}
}

func sampleCommunities() []models.Community {
	return []models.Community{{CommunityName: "威均天翔", Builder: "威均建設", CompletionDate: "108", TotalUnits: "320"}}
}

func TestCSVRoundTrip(t *testing.T) {
	props := sampleProperties()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, props, sampleCommunities()))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\xEF\xBB\xBF")))

	rows, err := Parse("物件資料_20260105.csv", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "威均建設", rows[0]["建商"])
	assert.Equal(t, "27.0", rows[0]["房屋坪數"])
	assert.Equal(t, "37.8", rows[0]["房屋單價萬坪"])

	for i, row := range rows {
		m := MapRow(row)
		p := props[i]
		assert.Equal(t, p.CommunityName, m["community_name"])
		assert.Equal(t, p.TotalPrice.Float(), m["total_price"])
		assert.Equal(t, p.TotalPing.Float(), m["total_ping"])
		assert.Equal(t, p.ParkingPing.Float(), m["parking_ping"])
		assert.Equal(t, p.ParkingPrice.Float(), m["parking_price"])
		assert.Equal(t, p.FloorInfo, m["floor_info"])
		assert.Equal(t, p.Address, m["address"])
		assert.Equal(t, p.Status, m["status"])
		assert.Equal(t, p.Layout, m["layout"])
		assert.Equal(t, p.Notes, m["notes"])
	}
	assert.Equal(t, "王小明", MapRow(rows[0])["agent"])
	_, ok := MapRow(rows[1])["agent"]
	assert.False(t, ok)
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleProperties(), sampleCommunities()))

	rows, err := Parse("export.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	m := MapRow(rows[1])
	assert.Equal(t, "上城捷境", m["community_name"])
	assert.Equal(t, 980.0, m["total_price"])
	assert.Equal(t, "", m["notes"])
}

func TestParseJSON(t *testing.T) {
	rows, err := Parse("data.json", []byte(`[{"社區名稱":"A","總價":1500},{"community_name":"B"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	m := MapRow(rows[0])
	assert.Equal(t, "A", m["community_name"])
	assert.Equal(t, 1500.0, m["total_price"])
	assert.Equal(t, models.StatusGeneral, m["status"])

	rows, err = Parse("one.JSON", []byte(`{"community_name":"C","total_price":"2,000"}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2.0, MapRow(rows[0])["total_price"])

	_, err = Parse("bad.json", []byte(`{"community_name":`))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Parse("empty.json", []byte(`[]`))
	require.ErrorIs(t, err, ErrNoData)
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := Parse("rows.csv", []byte("社區,總價\nA,1000,extra\n"))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Parse("header.csv", []byte("社區,總價\n"))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Parse("notes.txt", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	rows, err := Parse("blank.csv", []byte("社區, 總價萬\n\n 好室 , 1,500 \n"))
	require.Error(t, err)
	assert.Nil(t, rows)

	rows, err = Parse("quoted.csv", []byte("社區,總價萬\n\n\" 好室 \",\"1,500\"\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, " 好室 ", rows[0]["社區"], "quoted cells keep their text")
	assert.Equal(t, 1.0, MapRow(rows[0])["total_price"])

	rows, err = Parse("loose.csv", []byte("社區 ,總價萬,備註\n  好室  , 880 ,\"  \"\n"))
	require.NoError(t, err)
	assert.Equal(t, "好室", rows[0]["社區"])
	m := MapRow(rows[0])
	assert.Equal(t, 880.0, m["total_price"])
	assert.Equal(t, "", m["notes"], "a blank quoted cell counts as empty")
}

func TestCSVRoundTrip_KeepsSurroundingWhitespace(t *testing.T) {
	props := sampleProperties()
	props[0].Notes = "  前後留白的備註  "
	props[1].Address = " 松仁路, 100 號"

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, props, sampleCommunities()))
	rows, err := Parse("物件資料_20260105.csv", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, props[0].Notes, MapRow(rows[0])["notes"])
	assert.Equal(t, props[1].Address, MapRow(rows[1])["address"])
}

func TestPreview(t *testing.T) {
	rows := make([]Row, 8)
	for i := range rows {
		rows[i] = Row{"社區": "A", "總價": "1000"}
	}
	p := NewPreview(rows, 5)
	assert.Equal(t, 5, p.Shown)
	assert.Equal(t, 8, p.Total)
	assert.Equal(t, []string{"社區", "總價"}, p.Columns)
	assert.Len(t, p.Mapped, 5)
}

func TestBulkImport_CountsFailures(t *testing.T) {
	rows := []Row{{"社區": "A"}, {"社區": "fail"}, {"社區": "C"}}
	var created []string
	create := func(_ context.Context, data map[string]any) error {
		if data["community_name"] == "fail" {
			return errors.New("webhook rejected row")
		}
		created = append(created, data["community_name"].(string))
		return nil
	}

	res, err := BulkImport(context.Background(), rows, create, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, []string{"A", "C"}, created)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BulkImport(ctx, rows, create, zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestBackup(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)
	users := []models.User{{ID: "u1", Email: "admin@haoshi.com", Role: models.RoleAdmin}}

	b := NewBackup(sampleProperties(), nil, users, false, now)
	var buf bytes.Buffer
	require.NoError(t, b.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2.0", decoded["version"])
	assert.Equal(t, "2026-01-05T08:30:00.000Z", decoded["exportDate"])
	data := decoded["data"].(map[string]any)
	assert.Empty(t, data["users"])
	assert.NotNil(t, data["communities"])
	assert.Len(t, data["properties"], 2)

	b = NewBackup(nil, nil, users, true, now)
	assert.Len(t, b.Data.Users, 1)
}

func TestExport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, WriteCSV(&buf, nil, nil), ErrNothingToExport)
	require.ErrorIs(t, WriteXLSX(&buf, nil, nil), ErrNothingToExport)
}

func TestFileNames(t *testing.T) {
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "物件資料_20260309.csv", CSVFileName(now))
	assert.Equal(t, "物件資料_20260309.xlsx", XLSXFileName(now))
	assert.Equal(t, "系統備份_20260309.json", BackupFileName(now))
}
