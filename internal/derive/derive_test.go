package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func TestEndToEndListing(t *testing.T) {
	p := models.Property{TotalPing: "35.5", ParkingPing: "8.5", TotalPrice: "1200", ParkingPrice: "180"}

	require.InDelta(t, 27.0, HouseArea(&p), 1e-9)
	require.InDelta(t, 1020.0, HouseValue(&p), 1e-9)
	up, ok := UnitPrice(&p)
	require.True(t, ok)
	require.Equal(t, 37.8, up)
	require.Equal(t, HouseTypeTwoRoom, HouseTypeOf(&p))
	require.Equal(t, "two-room", HouseTypeOf(&p).String())
	require.Equal(t, "兩房", HouseTypeOf(&p).Label())
}

func TestNonNumericTreatedAsZero(t *testing.T) {
	p := models.Property{TotalPing: "abc", ParkingPing: "", TotalPrice: "1000"}
	require.Equal(t, 0.0, HouseArea(&p))
	_, ok := UnitPrice(&p)
	require.False(t, ok)
	require.Equal(t, NotApplicable, FormatUnitPrice(&p))
}

func TestUnitPrice_NegativeArea(t *testing.T) {
	p := models.Property{TotalPing: "5", ParkingPing: "8", TotalPrice: "1000"}
	_, ok := UnitPrice(&p)
	require.False(t, ok)
	require.Equal(t, HouseTypeNA, HouseTypeOf(&p))
}

func TestClassifyBoundaries(t *testing.T) {
	cases := map[float64]HouseType{
		-1:   HouseTypeNA,
		0:    HouseTypeNA,
		0.1:  HouseTypeStudio,
		19.9: HouseTypeStudio,
		20.0: HouseTypeTwoRoom,
		31.9: HouseTypeTwoRoom,
		32.0: HouseTypeThreeRoom,
		49.9: HouseTypeThreeRoom,
		50.0: HouseTypeThreeRoomPlus,
		120:  HouseTypeThreeRoomPlus,
	}
	for area, want := range cases {
		require.Equal(t, want, Classify(area), "area %v", area)
	}
	require.Equal(t, NotApplicable, HouseTypeNA.Label())
}

func TestCommunityAge(t *testing.T) {
	age, ok := CommunityAge(&models.Community{CompletionDate: "108"}, 115)
	require.True(t, ok)
	require.Equal(t, 7, age)

	age, ok = CommunityAge(&models.Community{CompletionDate: "112年"}, 115)
	require.True(t, ok)
	require.Equal(t, 3, age)

	for _, c := range []string{"", "0", "-5", "unknown"} {
		_, ok := CommunityAge(&models.Community{CompletionDate: models.Text(c)}, 115)
		require.False(t, ok, c)
	}
	_, ok = CommunityAge(nil, 115)
	require.False(t, ok)
	require.Equal(t, NotApplicable, FormatAge(nil, 115))
}

func TestReferenceYear(t *testing.T) {
	now := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 115, ReferenceYear(115, now))
	require.Equal(t, 116, ReferenceYear(0, now))
}

func TestFormatNumeric(t *testing.T) {
	require.Equal(t, "35.5", FormatNumeric("35.5", 1))
	require.Equal(t, "1200", FormatNumeric("1200", 0))
	require.Equal(t, "8.0", FormatNumeric("8", 1))
	require.Equal(t, NotApplicable, FormatNumeric("", 1))
}

func TestRecompute(t *testing.T) {
	communities := []models.Community{
		{CommunityName: "威均天翔", CompletionDate: "108", TotalUnits: "361"},
	}
	draft := map[string]string{
		"community_name": "威均天翔",
		"total_price":    "1200",
		"total_ping":     "35.5",
		"parking_ping":   "8.5",
		"parking_price":  "180",
	}
	live := Recompute(draft, communities, 115)
	require.Equal(t, Live{HouseArea: "27.0", UnitPrice: "37.8", HouseType: "兩房", Age: "7", TotalUnits: "361"}, live)

	draft["total_ping"] = "60"
	draft["community_name"] = "unknown"
	live = Recompute(draft, communities, 115)
	require.Equal(t, "51.5", live.HouseArea)
	require.Equal(t, "三房以上", live.HouseType)
	require.Equal(t, NotApplicable, live.Age)
	require.Equal(t, NotApplicable, live.TotalUnits)
}
