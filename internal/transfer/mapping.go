package transfer

import (
	"sort"
	"strings"

	"haoshi-console/internal/models"
)

// column maps import headers onto one listing field. Headers are tried in
// order; the first non-empty value wins.
type column struct {
	field   string
	headers []string
	numeric bool
	// optional fields are left out of the payload when no header has a value
	optional bool
}

var columns = []column{
	{field: "community_name", headers: []string{"community_name", "社區名稱", "社區"}},
	{field: "total_price", headers: []string{"total_price", "總價", "總價萬"}, numeric: true},
	{field: "total_ping", headers: []string{"total_ping", "總坪數", "總坪"}, numeric: true},
	{field: "parking_ping", headers: []string{"parking_ping", "車位坪數", "車位坪"}, numeric: true},
	{field: "parking_price", headers: []string{"parking_price", "車位價格", "車位價萬", "車位價格萬"}, numeric: true},
	{field: "floor_info", headers: []string{"floor_info", "樓層", "樓層資訊"}},
	{field: "address", headers: []string{"address", "地址"}},
	{field: "status", headers: []string{"status", "狀態"}},
	{field: "layout", headers: []string{"layout", "格局", "房型"}},
	{field: "notes", headers: []string{"notes", "備註"}},
	{field: "agent", headers: []string{"agent", "建立者"}, optional: true},
	{field: "created_at_source", headers: []string{"created_at_source", "建立時間"}, optional: true},
	{field: "maintainer", headers: []string{"maintainer", "維護者"}, optional: true},
	{field: "updated_at_source", headers: []string{"updated_at_source", "維護時間"}, optional: true},
}

// MapRow converts an imported row into a listing create payload. Unknown
// columns are ignored, a missing status becomes 一般 and numeric columns
// default to 0.
func MapRow(row Row) map[string]any {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		v := lookup(row, col.headers)
		switch {
		case col.numeric:
			f, _ := models.ParseNumber(strings.TrimSpace(v))
			out[col.field] = f
		case v != "":
			out[col.field] = v
		case !col.optional:
			out[col.field] = ""
		}
	}
	if out["status"] == "" {
		out["status"] = models.StatusGeneral
	}
	return out
}

func lookup(row Row, headers []string) string {
	for _, h := range headers {
		if v := text(row[h]); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Preview is what the import dialog shows before anything is created.
type Preview struct {
	Columns []string         `json:"columns"`
	Rows    []Row            `json:"rows"`
	Mapped  []map[string]any `json:"mapped"`
	Shown   int              `json:"shown"`
	Total   int              `json:"total"`
}

// NewPreview returns the first n rows, raw and mapped.
func NewPreview(rows []Row, n int) Preview {
	if n <= 0 || n > len(rows) {
		n = len(rows)
	}
	p := Preview{
		Rows:   rows[:n],
		Mapped: make([]map[string]any, 0, n),
		Shown:  n,
		Total:  len(rows),
	}
	if n > 0 {
		for k := range rows[0] {
			p.Columns = append(p.Columns, k)
		}
		sort.Strings(p.Columns)
	}
	for _, r := range rows[:n] {
		p.Mapped = append(p.Mapped, MapRow(r))
	}
	return p
}
