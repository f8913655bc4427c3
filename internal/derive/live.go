package derive

import "haoshi-console/internal/models"

// Live holds the derived fields shown beside a row while it is being edited.
type Live struct {
	HouseArea  string `json:"house_area"`
	UnitPrice  string `json:"unit_price"`
	HouseType  string `json:"house_type"`
	Age        string `json:"age"`
	TotalUnits string `json:"total_units"`
}

// Recompute derives the live fields from uncommitted draft values. It reads
// only its arguments, so callers may invoke it on every draft change.
func Recompute(draft map[string]string, communities []models.Community, refYear int) Live {
	p := models.Property{
		TotalPrice:   models.Numeric(draft["total_price"]),
		TotalPing:    models.Numeric(draft["total_ping"]),
		ParkingPing:  models.Numeric(draft["parking_ping"]),
		ParkingPrice: models.Numeric(draft["parking_price"]),
	}
	area := HouseArea(&p)

	live := Live{
		HouseArea:  FormatNumber(area, 1),
		UnitPrice:  FormatUnitPrice(&p),
		HouseType:  Classify(area).Label(),
		Age:        NotApplicable,
		TotalUnits: NotApplicable,
	}

	if c := FindCommunity(communities, draft["community_name"]); c != nil {
		live.Age = FormatAge(c, refYear)
		if c.TotalUnits != "" {
			live.TotalUnits = c.TotalUnits.String()
		}
	}
	return live
}

// FindCommunity joins by name, returning the first match.
func FindCommunity(communities []models.Community, name string) *models.Community {
	if name == "" {
		return nil
	}
	for i := range communities {
		if communities[i].CommunityName == name {
			return &communities[i]
		}
	}
	return nil
}
