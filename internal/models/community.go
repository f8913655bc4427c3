package models

// Community is a building or development, joined to listings by name.
type Community struct {
	ID              Text   `json:"id"`
	CommunityName   string `json:"community_name"`
	Builder         string `json:"builder,omitempty"`
	CompletionDate  Text   `json:"completion_date,omitempty"`
	TotalUnits      Text   `json:"total_units,omitempty"`
	UnitAreaRange   string `json:"unit_area_range,omitempty"`
	Agent           string `json:"agent,omitempty"`
	Maintainer      string `json:"maintainer,omitempty"`
	CreatedAtSource string `json:"created_at_source,omitempty"`
	UpdatedAtSource string `json:"updated_at_source,omitempty"`
}
