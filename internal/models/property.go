package models

// Property is a listing (物件) for sale.
type Property struct {
	ID             Text     `json:"id"`
	CommunityName  string   `json:"community_name"`
	TotalPrice     Numeric  `json:"total_price"`
	TotalPing      Numeric  `json:"total_ping"`
	ParkingPing    Numeric  `json:"parking_ping"`
	ParkingPrice   Numeric  `json:"parking_price"`
	FloorInfo      string   `json:"floor_info,omitempty"`
	Address        string   `json:"address,omitempty"`
	Status         string   `json:"status"`
	Layout         string   `json:"layout,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	PhotoPaths     []string `json:"photo_paths,omitempty"`
	CoverPhotoPath string   `json:"cover_photo_path,omitempty"`

	Agent           string `json:"agent,omitempty"`
	Maintainer      string `json:"maintainer,omitempty"`
	CreatedAtSource string `json:"created_at_source,omitempty"`
	UpdatedAtSource string `json:"updated_at_source,omitempty"`
}

// Listing statuses as they appear in the data
const (
	StatusExclusive = "專任"
	StatusGeneral   = "一般"
	StatusOwner     = "屋主"
	StatusPending   = "待確認"
	StatusDown      = "下架"
	StatusDelisted  = "已下架"
	StatusSold      = "已成交"
)

// EditStatusOptions are the statuses offered by the inline editor.
var EditStatusOptions = []string{StatusExclusive, StatusGeneral, StatusOwner, StatusPending, StatusDown}

// DelistReasons are the reasons offered when taking a listing down.
var DelistReasons = []string{"價格調整", "屋主收回", "已成交", "其他"}

// IsActive reports whether the listing belongs on the active tab.
func (p *Property) IsActive() bool {
	return p.Status != StatusDelisted
}

// LastEditor returns who last touched the listing.
func (p *Property) LastEditor() string {
	if p.Maintainer != "" {
		return p.Maintainer
	}
	return p.Agent
}

// LastEdited returns when the listing was last touched.
func (p *Property) LastEdited() string {
	if p.UpdatedAtSource != "" {
		return p.UpdatedAtSource
	}
	return p.CreatedAtSource
}

// StatusBadge returns the badge CSS class for a status.
func StatusBadge(status string) string {
	switch status {
	case StatusExclusive:
		return "status-exclusive"
	case StatusSold:
		return "status-sold"
	case StatusDown, StatusDelisted:
		return "status-delisted"
	case StatusOwner:
		return "status-owner"
	case StatusPending:
		return "status-pending"
	default:
		return "status-general"
	}
}

// DelistPatch takes a listing off the active tab, recording the reason in its notes.
func DelistPatch(reason string) map[string]any {
	return map[string]any{
		"status": StatusDelisted,
		"notes":  "下架原因: " + reason,
	}
}

// RelistPatch puts a delisted listing back on the active tab.
func RelistPatch() map[string]any {
	return map[string]any{"status": StatusGeneral}
}
