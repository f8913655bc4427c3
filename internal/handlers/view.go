package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/editing"
	"haoshi-console/internal/listing"
	"haoshi-console/internal/models"
	"haoshi-console/internal/search"
	"haoshi-console/internal/session"
)

// GetData returns the cached collections. Users are included for administrators only.
func (h *Handler) GetData(c *gin.Context) {
	body := gin.H{
		"properties":  h.store.Properties(),
		"communities": h.store.Communities(),
		"counts":      h.store.Counts(),
	}
	if auth.CanManageUsers(principal(c)) {
		body["users"] = h.store.Users()
	}
	c.JSON(http.StatusOK, body)
}

// Refresh reloads every collection from the webhook
func (h *Handler) Refresh(c *gin.Context) {
	var err error
	var res any
	if h.scheduler != nil {
		res, err = h.scheduler.RunNow(c.Request.Context())
	} else {
		res, err = h.gateway.Refresh(c.Request.Context())
	}
	if err != nil {
		h.logger.Warn("Refresh failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// viewResponse is the rendered table a view request answers with.
type viewResponse struct {
	State      listing.ViewState `json:"state"`
	Rows       []listing.Row     `json:"rows"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalItems int               `json:"total_items"`
	TotalPages int               `json:"total_pages"`
	Window     []int             `json:"window"`
	HasPrev    bool              `json:"has_prev"`
	HasNext    bool              `json:"has_next"`
	Counts     listing.Counts    `json:"counts"`
	Options    filterOptions     `json:"options"`
}

// filterOptions feed the filter dropdowns.
type filterOptions struct {
	Communities   []string `json:"communities"`
	HouseTypes    []string `json:"house_types"`
	ContractTypes []string `json:"contract_types"`
}

func newFilterOptions(props []models.Property) filterOptions {
	communities := map[string]bool{}
	layouts := map[string]bool{}
	for i := range props {
		if props[i].CommunityName != "" {
			communities[props[i].CommunityName] = true
		}
		if props[i].Layout != "" {
			layouts[props[i].Layout] = true
		}
	}
	return filterOptions{
		Communities:   sortedKeys(communities),
		HouseTypes:    sortedKeys(layouts),
		ContractTypes: models.EditStatusOptions,
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// rowEdit converts the property editor into the row attachment
func (h *Handler) rowEdit(b editing.Board) *listing.RowEdit {
	s := b.Get(models.EntityProperty)
	if !s.IsEditing() {
		return nil
	}
	return &listing.RowEdit{
		ID:     s.ID,
		Draft:  s.Draft,
		Live:   h.editor.Live(s),
		Saving: s.Saving,
		Error:  s.Error,
	}
}

// render queries the current page, stores the clamped state and writes the response
func (h *Handler) render(c *gin.Context, st session.State) {
	props := h.store.Properties()
	comms := h.store.Communities()

	page := h.engine.Query(&st.View, props, comms)
	rows := h.engine.Rows(page.Items, comms, &st.View, listing.RenderOptions{
		CanEdit: auth.CanManageData(principal(c)),
		Edit:    h.rowEdit(st.Edits),
	})
	if !h.saveSession(c, st) {
		return
	}

	c.JSON(http.StatusOK, viewResponse{
		State:      st.View,
		Rows:       rows,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Window:     page.Window,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		Counts:     page.Counts,
		Options:    newFilterOptions(props),
	})
}

// GetView returns the caller's current table page
func (h *Handler) GetView(c *gin.Context) {
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	h.render(c, st)
}

type tabRequest struct {
	Tab listing.Tab `json:"tab" binding:"required"`
}

// SetTab switches between the active and archived tabs
func (h *Handler) SetTab(c *gin.Context) {
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := st.View.SetTab(req.Tab); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.render(c, st)
}

// filtersRequest carries the raw filter inputs; prices stay text so a blank box clears the bound.
type filtersRequest struct {
	MinPrice     string `json:"min_price"`
	MaxPrice     string `json:"max_price"`
	HouseType    string `json:"house_type"`
	ContractType string `json:"contract_type"`
	Community    string `json:"community"`
}

// SetFilters replaces the filters and returns to page one
func (h *Handler) SetFilters(c *gin.Context) {
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	st.View.SetFilters(listing.Filters{
		MinPrice:     listing.ParsePrice(req.MinPrice),
		MaxPrice:     listing.ParsePrice(req.MaxPrice),
		HouseType:    req.HouseType,
		ContractType: req.ContractType,
		Community:    req.Community,
	})
	h.render(c, st)
}

type sortRequest struct {
	Column string `json:"column" binding:"required"`
}

// ToggleSort sorts by a column, flipping the direction when it is already the sort column
func (h *Handler) ToggleSort(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := st.View.ToggleSort(req.Column); err != nil {
		respondError(c, err)
		return
	}
	h.render(c, st)
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

// GoToPage moves to a page, clamped into range
func (h *Handler) GoToPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	filtered := h.engine.Filter(st.View, h.store.Properties(), h.store.Communities())
	st.View.GoTo(req.Page, listing.TotalPages(len(filtered), h.engine.PageSize()))
	h.render(c, st)
}

// ToggleExpanded opens or closes a row's community details
func (h *Handler) ToggleExpanded(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.Property(id); err != nil {
		respondError(c, err)
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	st.View.ToggleExpanded(id)
	h.render(c, st)
}

// GetCharts returns the price distribution and the top communities of active listings
func (h *Handler) GetCharts(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Charts(h.store.Properties()))
}

// Search runs a keyword search and resolves the hits against the store
func (h *Handler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}
	params := search.FilterParams{
		Query:      c.Query("q"),
		Statuses:   c.QueryArray("status"),
		Layouts:    c.QueryArray("layout"),
		Community:  c.Query("community"),
		MinPrice:   listing.ParsePrice(c.Query("min_price")),
		MaxPrice:   listing.ParsePrice(c.Query("max_price")),
		ActiveOnly: c.Query("active") == "true",
		Limit:      limit,
	}

	res, err := h.search.Search(params)
	if err != nil {
		h.logger.Warn("Search failed", zap.String("query", params.Query), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	// the index may lag behind the store
	props := make([]models.Property, 0, len(res.IDs))
	for _, id := range res.IDs {
		if p, err := h.store.Property(id); err == nil {
			props = append(props, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"properties": props,
		"count":      len(props),
		"total_hits": res.TotalHits,
	})
}
