package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/backend"
	"haoshi-console/internal/listing"
	"haoshi-console/internal/models"
)

var errUnknownPhoto = errors.New("photo is not attached to this listing")

// maxPhotoUpload bounds the multipart body of a photo upload.
const maxPhotoUpload = 32 << 20

func mutationBody(res *backend.Result) gin.H {
	return gin.H{
		"id":        res.ID,
		"data":      res.Record,
		"simulated": res.Simulated,
	}
}

// bindRecord reads a JSON object and checks the required text fields are present
func bindRecord(c *gin.Context, required ...string) (map[string]any, bool) {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	delete(data, "id")
	for _, f := range required {
		if s, _ := data[f].(string); strings.TrimSpace(s) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": f + " is required"})
			return nil, false
		}
	}
	return data, true
}

func (h *Handler) create(c *gin.Context, entity models.Entity, data map[string]any) {
	res, err := h.gateway.Create(c.Request.Context(), entity, data, principal(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mutationBody(res))
}

func (h *Handler) update(c *gin.Context, entity models.Entity, id string, data map[string]any) {
	res, err := h.gateway.Update(c.Request.Context(), entity, id, data, principal(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mutationBody(res))
}

func (h *Handler) remove(c *gin.Context, entity models.Entity) {
	res, err := h.gateway.Delete(c.Request.Context(), entity, c.Param("id"), principal(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": res.ID, "simulated": res.Simulated})
}

// GetProperty returns one listing
func (h *Handler) GetProperty(c *gin.Context) {
	p, err := h.store.Property(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProperty adds a listing
func (h *Handler) CreateProperty(c *gin.Context) {
	data, ok := bindRecord(c, "community_name")
	if !ok {
		return
	}
	if _, set := data["status"]; !set {
		data["status"] = models.StatusGeneral
	}
	h.create(c, models.EntityProperty, data)
}

// UpdateProperty patches a listing
func (h *Handler) UpdateProperty(c *gin.Context) {
	data, ok := bindRecord(c)
	if !ok {
		return
	}
	h.update(c, models.EntityProperty, c.Param("id"), data)
}

// DeleteProperty removes a listing
func (h *Handler) DeleteProperty(c *gin.Context) {
	h.remove(c, models.EntityProperty)
}

type delistRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DelistProperty moves a listing to the archived tab
func (h *Handler) DelistProperty(c *gin.Context) {
	var req delistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.update(c, models.EntityProperty, c.Param("id"), models.DelistPatch(req.Reason))
}

// RelistProperty puts a delisted listing back on the active tab
func (h *Handler) RelistProperty(c *gin.Context) {
	h.update(c, models.EntityProperty, c.Param("id"), models.RelistPatch())
}

// UploadPhotos attaches uploaded photos to a listing
func (h *Handler) UploadPhotos(c *gin.Context) {
	id := c.Param("id")
	if err := c.Request.ParseMultipartForm(maxPhotoUpload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	headers := c.Request.MultipartForm.File["photos"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no photos uploaded"})
		return
	}

	files := make([]backend.PhotoFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		files = append(files, backend.PhotoFile{Name: fh.Filename, Reader: f})
	}

	urls, err := h.gateway.UploadPhotos(c.Request.Context(), id, files, principal(c).Name)
	if err != nil {
		h.logger.Warn("Photo upload failed", zap.String("id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"urls": urls, "count": len(urls)})
}

type photoRequest struct {
	URL string `json:"url" binding:"required"`
}

// RemovePhoto detaches one photo from a listing
func (h *Handler) RemovePhoto(c *gin.Context) {
	h.editPhotos(c, func(p *models.Property, url string) error {
		if !p.RemovePhoto(url) {
			return errUnknownPhoto
		}
		return nil
	})
}

// SetCover picks the cover among a listing's photos
func (h *Handler) SetCover(c *gin.Context) {
	h.editPhotos(c, func(p *models.Property, url string) error {
		return p.SetCover(url)
	})
}

func (h *Handler) editPhotos(c *gin.Context, apply func(p *models.Property, url string) error) {
	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.store.Property(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := apply(&p, req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.update(c, models.EntityProperty, p.ID.String(), p.PhotoPatch())
}

// ListCommunities returns the community list. q, sort and dir update the
// caller's stored query; sort without dir toggles the direction.
func (h *Handler) ListCommunities(c *gin.Context) {
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	if q, set := c.GetQuery("q"); set {
		st.Communities.Search = q
	}
	if column := c.Query("sort"); column != "" {
		var err error
		if dir := c.Query("dir"); dir != "" {
			err = st.Communities.SetSort(column, listing.Direction(dir))
		} else {
			err = st.Communities.ToggleSort(column)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if !h.saveSession(c, st) {
		return
	}

	rows := h.engine.Communities(st.Communities, h.store.Communities(), h.store.Properties())
	c.JSON(http.StatusOK, gin.H{
		"communities": rows,
		"count":       len(rows),
		"query":       st.Communities,
		"can_edit":    auth.CanManageData(principal(c)),
	})
}

// CreateCommunity adds a community
func (h *Handler) CreateCommunity(c *gin.Context) {
	data, ok := bindRecord(c, "community_name")
	if !ok {
		return
	}
	h.create(c, models.EntityCommunity, data)
}

// UpdateCommunity patches a community
func (h *Handler) UpdateCommunity(c *gin.Context) {
	data, ok := bindRecord(c)
	if !ok {
		return
	}
	h.update(c, models.EntityCommunity, c.Param("id"), data)
}

// DeleteCommunity removes a community. Listings keep their community name.
func (h *Handler) DeleteCommunity(c *gin.Context) {
	h.remove(c, models.EntityCommunity)
}

// ListUsers returns the accounts for the admin panel
func (h *Handler) ListUsers(c *gin.Context) {
	rows := listing.Users(h.store.Users(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"users": rows, "count": len(rows)})
}

type userRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Title    string      `json:"title"`
	Role     models.Role `json:"role" binding:"required"`
	IsActive *bool       `json:"is_active"`
}

func (r userRequest) data() map[string]any {
	data := map[string]any{
		"name":  strings.TrimSpace(r.Name),
		"email": strings.TrimSpace(r.Email),
		"title": r.Title,
		"role":  string(r.Role),
	}
	if r.IsActive != nil {
		data["is_active"] = *r.IsActive
	}
	return data
}

func bindUser(c *gin.Context) (userRequest, bool) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if !auth.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role " + string(req.Role)})
		return req, false
	}
	return req, true
}

// CreateUser adds an account. Emails must be unique.
func (h *Handler) CreateUser(c *gin.Context) {
	req, ok := bindUser(c)
	if !ok {
		return
	}
	if _, exists := h.store.UserByEmail(req.Email); exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	h.create(c, models.EntityUser, req.data())
}

// UpdateUser replaces an account's editable fields
func (h *Handler) UpdateUser(c *gin.Context) {
	req, ok := bindUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if other, exists := h.store.UserByEmail(req.Email); exists && other.ID.String() != id {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	h.update(c, models.EntityUser, id, req.data())
}

// DeleteUser removes an account. Administrators cannot delete themselves.
func (h *Handler) DeleteUser(c *gin.Context) {
	if c.Param("id") == principal(c).ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	h.remove(c, models.EntityUser)
}
