package listing

import (
	"time"

	"haoshi-console/internal/config"
	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

// Engine derives table pages from store contents. It holds no record data
// of its own; every call works on the slices it is given.
type Engine struct {
	pageSize       int
	pageWindow     int
	referenceYear  int
	topCommunities int
	now            func() time.Time
}

// NewEngine creates an engine from the console settings.
func NewEngine(cfg config.ConsoleConfig) *Engine {
	e := &Engine{
		pageSize:       cfg.PageSize,
		pageWindow:     cfg.PageWindow,
		referenceYear:  cfg.ReferenceYear,
		topCommunities: cfg.TopCommunities,
		now:            time.Now,
	}
	if e.pageSize <= 0 {
		e.pageSize = 20
	}
	if e.pageWindow <= 0 {
		e.pageWindow = 5
	}
	if e.topCommunities <= 0 {
		e.topCommunities = 10
	}
	return e
}

// WithClock replaces the clock used to derive the reference year.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ReferenceYear is the local-calendar year community ages are measured against.
func (e *Engine) ReferenceYear() int {
	return derive.ReferenceYear(e.referenceYear, e.now())
}

// PageSize returns the number of rows per page.
func (e *Engine) PageSize() int { return e.pageSize }

// Counts are the tab counters, taken over the whole collection.
type Counts struct {
	Active   int `json:"active"`
	Archived int `json:"archived"`
}

// Page is one slice of the filtered, sorted listing.
type Page struct {
	Items      []models.Property `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalItems int               `json:"total_items"`
	TotalPages int               `json:"total_pages"`
	Window     []int             `json:"window"`
	HasPrev    bool              `json:"has_prev"`
	HasNext    bool              `json:"has_next"`
	Counts     Counts            `json:"counts"`
}

// Partition splits props into the active and archived tabs. Together the
// two slices hold every listing exactly once.
func Partition(props []models.Property) (active, archived []models.Property) {
	for _, p := range props {
		if p.IsActive() {
			active = append(active, p)
		} else {
			archived = append(archived, p)
		}
	}
	return active, archived
}

// CountTabs counts listings per tab.
func CountTabs(props []models.Property) Counts {
	var c Counts
	for i := range props {
		if props[i].IsActive() {
			c.Active++
		} else {
			c.Archived++
		}
	}
	return c
}

// Matches reports whether p passes every set filter.
func (f Filters) Matches(p *models.Property) bool {
	price := p.TotalPrice.Float()
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}
	if f.HouseType != "" && p.Layout != f.HouseType {
		return false
	}
	if f.ContractType != "" && p.Status != f.ContractType {
		return false
	}
	if f.Community != "" && p.CommunityName != f.Community {
		return false
	}
	return true
}

// Filter returns the tab's listings that pass the filters, sorted by the
// view's column and direction.
func (e *Engine) Filter(state ViewState, props []models.Property, communities []models.Community) []models.Property {
	state.normalize()
	active, archived := Partition(props)
	base := active
	if state.Tab == TabArchived {
		base = archived
	}

	out := make([]models.Property, 0, len(base))
	for i := range base {
		if state.Filters.Matches(&base[i]) {
			out = append(out, base[i])
		}
	}
	e.sortProperties(out, state.SortColumn, state.SortDirection, communities, e.ReferenceYear())
	return out
}

// Query produces the page the view currently points at. The page number in
// state is clamped into range and written back.
func (e *Engine) Query(state *ViewState, props []models.Property, communities []models.Community) Page {
	state.normalize()
	filtered := e.Filter(*state, props, communities)

	totalPages := TotalPages(len(filtered), e.pageSize)
	state.GoTo(state.Page, totalPages)

	start := (state.Page - 1) * e.pageSize
	end := start + e.pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page{
		Items:      filtered[start:end],
		Page:       state.Page,
		PageSize:   e.pageSize,
		TotalItems: len(filtered),
		TotalPages: totalPages,
		Window:     PageWindow(state.Page, totalPages, e.pageWindow),
		HasPrev:    state.Page > 1,
		HasNext:    state.Page < totalPages,
		Counts:     CountTabs(props),
	}
}

// TotalPages is ceil(total/size).
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PageWindow lists up to width page numbers centred on current.
func PageWindow(current, totalPages, width int) []int {
	if totalPages <= 1 || width <= 0 {
		return nil
	}
	start := current - width/2
	if start < 1 {
		start = 1
	}
	end := start + width - 1
	if end > totalPages {
		end = totalPages
	}
	if end-start+1 < width {
		start = end - width + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
