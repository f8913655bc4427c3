package backend

import "haoshi-console/internal/models"

func demoBool(b bool) *bool { return &b }

func demoProperties() []models.Property {
	return []models.Property{
		{
			ID:              "demo-prop-1",
			CommunityName:   "威均天翔",
			TotalPrice:      "1200",
			TotalPing:       "35.5",
			ParkingPing:     "8.5",
			ParkingPrice:    "180",
			FloorInfo:       "12樓/共25樓",
			Address:         "桃園市中壢區青埔路123號",
			Status:          models.StatusExclusive,
			Layout:          "兩房",
			Notes:           "近高鐵站，生活機能佳",
			Agent:           "錦宣",
			Maintainer:      "錦宣",
			CreatedAtSource: "2026-01-01",
			UpdatedAtSource: "2026-01-05",
		},
		{
			ID:              "demo-prop-2",
			CommunityName:   "上城捷境",
			TotalPrice:      "980",
			TotalPing:       "28.2",
			ParkingPing:     "7.8",
			ParkingPrice:    "150",
			FloorInfo:       "8樓/共18樓",
			Address:         "桃園市中壢區高鐵路456號",
			Status:          models.StatusGeneral,
			Layout:          "套房",
			Notes:           "屋況新穎，適合自住",
			Agent:           "小明",
			Maintainer:      "小明",
			CreatedAtSource: "2026-01-02",
			UpdatedAtSource: "2026-01-04",
		},
		{
			ID:              "demo-prop-3",
			CommunityName:   "新大南青山",
			TotalPrice:      "1580",
			TotalPing:       "45.8",
			ParkingPing:     "9.2",
			ParkingPrice:    "200",
			FloorInfo:       "15樓/共30樓",
			Address:         "桃園市中壢區新南路789號",
			Status:          models.StatusExclusive,
			Layout:          "三房成3+1房",
			Notes:           "三面採光，景觀優美",
			Agent:           "阿華",
			Maintainer:      "錦宣",
			CreatedAtSource: "2026-01-03",
			UpdatedAtSource: "2026-01-06",
		},
	}
}

func demoCommunities() []models.Community {
	return []models.Community{
		{ID: "demo-comm-1", Builder: "威均建設", CommunityName: "威均天翔", CompletionDate: "108", TotalUnits: "361", UnitAreaRange: "25/45", Agent: "錦宣", CreatedAtSource: "2025-12-01"},
		{ID: "demo-comm-2", Builder: "上城建設", CommunityName: "上城捷境", CompletionDate: "103", TotalUnits: "117", UnitAreaRange: "22/35", Agent: "錦宣", CreatedAtSource: "2025-12-01"},
		{ID: "demo-comm-3", Builder: "新大南建設", CommunityName: "新大南青山", CompletionDate: "112", TotalUnits: "181", UnitAreaRange: "35/55", Agent: "錦宣", CreatedAtSource: "2025-12-01"},
	}
}

func demoUsers() []models.User {
	return []models.User{
		{ID: "demo-user-1", Name: "系統管理員", Email: "admin@haoshi.com", Title: "系統管理員", Role: models.RoleAdmin, IsActive: demoBool(true), LastLogin: "2026-01-06T10:00:00Z"},
		{ID: "demo-user-2", Name: "錦宣", Email: "jinxuan@haoshi.com", Title: "資深業務經理", Role: models.RoleManager, IsActive: demoBool(true), LastLogin: "2026-01-06T09:30:00Z"},
		{ID: "demo-user-3", Name: "小明", Email: "xiaoming@haoshi.com", Title: "業務專員", Role: models.RoleUser, IsActive: demoBool(true), LastLogin: "2026-01-05T16:00:00Z"},
	}
}
