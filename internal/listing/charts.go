package listing

import (
	"sort"

	"haoshi-console/internal/models"
)

// UncategorizedCommunity labels listings without a community name.
const UncategorizedCommunity = "未分類"

// PriceRange is a half-open [Min, Max) total price bucket in 萬. Max of 0
// means unbounded.
type PriceRange struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
}

func (r PriceRange) contains(price float64) bool {
	return price >= r.Min && (r.Max == 0 || price < r.Max)
}

// PriceRanges are the buckets of the price distribution chart. Listings
// under the first bucket are not charted.
var PriceRanges = []PriceRange{
	{Label: "1000-1500萬", Min: 1000, Max: 1500},
	{Label: "1500-2000萬", Min: 1500, Max: 2000},
	{Label: "2000-2500萬", Min: 2000, Max: 2500},
	{Label: "2500-3000萬", Min: 2500, Max: 3000},
	{Label: "3000萬以上", Min: 3000},
}

// Bucket is one bar of a chart.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Charts holds both overview datasets.
type Charts struct {
	PriceDistribution []Bucket `json:"price_distribution"`
	TopCommunities    []Bucket `json:"top_communities"`
}

// Charts builds the overview from active listings only, whatever tab the
// table is showing.
func (e *Engine) Charts(props []models.Property) Charts {
	active, _ := Partition(props)
	return Charts{
		PriceDistribution: PriceDistribution(active),
		TopCommunities:    TopCommunities(active, e.topCommunities),
	}
}

// PriceDistribution counts listings per price range.
func PriceDistribution(props []models.Property) []Bucket {
	buckets := make([]Bucket, len(PriceRanges))
	for i, r := range PriceRanges {
		buckets[i].Label = r.Label
	}
	for i := range props {
		price := props[i].TotalPrice.Float()
		for j, r := range PriceRanges {
			if r.contains(price) {
				buckets[j].Count++
				break
			}
		}
	}
	return buckets
}

// TopCommunities returns the n communities with the most listings. Equal
// counts keep the order in which the communities first appear.
func TopCommunities(props []models.Property, n int) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for i := range props {
		name := props[i].CommunityName
		if name == "" {
			name = UncategorizedCommunity
		}
		if k, ok := index[name]; ok {
			buckets[k].Count++
			continue
		}
		index[name] = len(buckets)
		buckets = append(buckets, Bucket{Label: name, Count: 1})
	}

	sortBucketsByCount(buckets)
	if n > 0 && len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

func sortBucketsByCount(buckets []Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
}
