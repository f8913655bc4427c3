// Package derive computes the values shown next to a listing that are not
// stored on it: house area and value net of parking, unit price, house type
// and community age.
package derive

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"haoshi-console/internal/models"
)

// NotApplicable is displayed wherever a derived value has no meaning.
const NotApplicable = "-"

// rocOffset converts Gregorian years to the local (ROC) calendar.
const rocOffset = 1911

// HouseType buckets a listing by its house area.
type HouseType int

const (
	HouseTypeNA HouseType = iota
	HouseTypeStudio
	HouseTypeTwoRoom
	HouseTypeThreeRoom
	HouseTypeThreeRoomPlus
)

// Label returns the display label.
func (h HouseType) Label() string {
	switch h {
	case HouseTypeStudio:
		return "套房"
	case HouseTypeTwoRoom:
		return "兩房"
	case HouseTypeThreeRoom:
		return "三房"
	case HouseTypeThreeRoomPlus:
		return "三房以上"
	}
	return NotApplicable
}

func (h HouseType) String() string {
	switch h {
	case HouseTypeStudio:
		return "studio"
	case HouseTypeTwoRoom:
		return "two-room"
	case HouseTypeThreeRoom:
		return "three-room"
	case HouseTypeThreeRoomPlus:
		return "three-room-plus"
	}
	return "n/a"
}

// HouseArea is total ping minus parking ping.
func HouseArea(p *models.Property) float64 {
	return p.TotalPing.Float() - p.ParkingPing.Float()
}

// HouseValue is total price minus parking price, in 萬.
func HouseValue(p *models.Property) float64 {
	return p.TotalPrice.Float() - p.ParkingPrice.Float()
}

// UnitPrice is house value per ping, rounded to one decimal.
// ok is false when the house area is not positive.
func UnitPrice(p *models.Property) (float64, bool) {
	return unitPrice(HouseValue(p), HouseArea(p))
}

func unitPrice(value, area float64) (float64, bool) {
	if area <= 0 {
		return 0, false
	}
	return math.Round(value/area*10) / 10, true
}

// Classify maps a house area onto a house type. Lower bounds are inclusive.
func Classify(area float64) HouseType {
	switch {
	case area <= 0:
		return HouseTypeNA
	case area < 20:
		return HouseTypeStudio
	case area < 32:
		return HouseTypeTwoRoom
	case area < 50:
		return HouseTypeThreeRoom
	default:
		return HouseTypeThreeRoomPlus
	}
}

// HouseTypeOf classifies a listing.
func HouseTypeOf(p *models.Property) HouseType {
	return Classify(HouseArea(p))
}

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// CompletionYear reads the leading integer of a completion date ("108年" yields 108).
func CompletionYear(completion string) (int, bool) {
	m := leadingInt.FindString(strings.TrimSpace(completion))
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// CommunityAge is the number of years since completion, in the local calendar.
func CommunityAge(c *models.Community, refYear int) (int, bool) {
	if c == nil {
		return 0, false
	}
	year, ok := CompletionYear(c.CompletionDate.String())
	if !ok {
		return 0, false
	}
	return refYear - year, true
}

// ReferenceYear returns the configured local-calendar year, or derives it
// from now when configured is 0.
func ReferenceYear(configured int, now time.Time) int {
	if configured > 0 {
		return configured
	}
	return now.Year() - rocOffset
}

// FormatNumber renders v with a fixed number of decimals.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotApplicable
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatNumeric renders a stored numeric field, or "-" when it is not a number.
func FormatNumeric(n models.Numeric, decimals int) string {
	if !n.Valid() {
		return NotApplicable
	}
	return FormatNumber(n.Float(), decimals)
}

// FormatUnitPrice renders a unit price or "-".
func FormatUnitPrice(p *models.Property) string {
	v, ok := UnitPrice(p)
	if !ok {
		return NotApplicable
	}
	return FormatNumber(v, 1)
}

// FormatAge renders a community age or "-".
func FormatAge(c *models.Community, refYear int) string {
	age, ok := CommunityAge(c, refYear)
	if !ok {
		return NotApplicable
	}
	return strconv.Itoa(age)
}
