// Package handlers is the HTTP surface of the console.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/backend"
	"haoshi-console/internal/cleanup"
	"haoshi-console/internal/database"
	"haoshi-console/internal/editing"
	"haoshi-console/internal/listing"
	"haoshi-console/internal/models"
	"haoshi-console/internal/ratelimit"
	"haoshi-console/internal/scheduler"
	"haoshi-console/internal/search"
	"haoshi-console/internal/session"
	"haoshi-console/internal/store"
	"haoshi-console/internal/transfer"
)

// Searcher answers keyword searches with listing ids.
type Searcher interface {
	Search(params search.FilterParams) (*search.Result, error)
}

// Deps are the collaborators of the console handlers. Search, Database,
// Cleanup, Scheduler and Limiter are optional.
type Deps struct {
	Gateway   *backend.Gateway
	Engine    *listing.Engine
	Editor    *editing.Controller
	Sessions  session.Store
	Tokens    *auth.TokenManager
	Search    Searcher
	Database  database.Store
	Cleanup   *cleanup.Service
	Scheduler *scheduler.Scheduler
	Limiter   *ratelimit.RateLimiter
	DemoLogin bool
	Logger    *zap.Logger
}

// Handler serves the console API
type Handler struct {
	gateway   *backend.Gateway
	store     *store.Store
	engine    *listing.Engine
	editor    *editing.Controller
	sessions  session.Store
	locks     *sessionLocks
	tokens    *auth.TokenManager
	search    Searcher
	db        database.Store
	cleanup   *cleanup.Service
	scheduler *scheduler.Scheduler
	limiter   *ratelimit.RateLimiter
	demoLogin bool
	logger    *zap.Logger
}

// New creates the console handler
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		gateway:   d.Gateway,
		store:     d.Gateway.Store(),
		engine:    d.Engine,
		editor:    d.Editor,
		sessions:  d.Sessions,
		locks:     newSessionLocks(),
		tokens:    d.Tokens,
		search:    d.Search,
		db:        d.Database,
		cleanup:   d.Cleanup,
		scheduler: d.Scheduler,
		limiter:   d.Limiter,
		demoLogin: d.DemoLogin,
		logger:    logger,
	}
}

// Register mounts every console route on r
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/demo", h.DemoLogin)

	api := r.Group("/api", auth.Authenticate(h.tokens))
	limited := h.rateLimit()
	manager := auth.RequireRole(models.RoleManager)

	api.GET("/auth/me", h.Me)
	api.POST("/auth/logout", h.Logout)

	// Data and table view
	api.GET("/data", h.GetData)
	api.POST("/data/refresh", h.Refresh)
	api.GET("/view", h.GetView)
	api.POST("/view/tab", h.SetTab)
	api.POST("/view/filters", h.SetFilters)
	api.POST("/view/sort", h.ToggleSort)
	api.POST("/view/page", h.GoToPage)
	api.POST("/view/expand/:id", h.ToggleExpanded)
	api.GET("/charts", h.GetCharts)
	api.GET("/search", h.Search)

	// Listings
	api.GET("/properties/:id", h.GetProperty)
	props := api.Group("/properties", manager, limited)
	{
		props.POST("", h.CreateProperty)
		props.PUT("/:id", h.UpdateProperty)
		props.DELETE("/:id", h.DeleteProperty)
		props.POST("/:id/delist", h.DelistProperty)
		props.POST("/:id/relist", h.RelistProperty)
		props.POST("/:id/photos", h.UploadPhotos)
		props.DELETE("/:id/photos", h.RemovePhoto)
		props.PUT("/:id/cover", h.SetCover)
	}

	// Communities
	api.GET("/communities", h.ListCommunities)
	comms := api.Group("/communities", manager, limited)
	{
		comms.POST("", h.CreateCommunity)
		comms.PUT("/:id", h.UpdateCommunity)
		comms.DELETE("/:id", h.DeleteCommunity)
	}

	// Users
	users := api.Group("/users", auth.RequireAdmin(), limited)
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	// Inline edit
	edit := api.Group("/edit/:kind")
	{
		edit.GET("", h.GetEdit)
		edit.POST("/:id/start", h.StartEdit)
		edit.PATCH("/draft", h.SetDraftField)
		edit.POST("/save", limited, h.SaveEdit)
		edit.POST("/cancel", h.CancelEdit)
	}

	// Import / export
	api.POST("/import/preview", manager, h.ImportPreview)
	api.POST("/import", manager, limited, h.Import)
	api.GET("/export/csv", h.ExportCSV)
	api.GET("/export/xlsx", h.ExportXLSX)
	api.GET("/export/backup", h.ExportBackup)

	// Admin
	admin := api.Group("/admin", auth.RequireAdmin())
	{
		admin.GET("/stats", h.GetStats)
		admin.GET("/audit", h.GetAudit)
		admin.GET("/changes", h.GetRecentChanges)
		admin.POST("/cleanup", h.RunCleanup)
		admin.GET("/ratelimit", h.GetRateLimitStats)
		admin.GET("/scheduler", h.GetSchedulerStatus)
	}
}

// Health reports liveness and whether the webhook breaker is open
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if cb := h.gateway.Breaker(); cb != nil {
		body["webhook"] = cb.GetStatus()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) rateLimit() gin.HandlerFunc {
	if h.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h.limiter.Middleware(limiterKey)
}

// limiterKey keys signed-in requests by principal
func limiterKey(c *gin.Context) string {
	if p, ok := auth.FromContext(c); ok && p.ID != "" {
		return "user:" + p.ID
	}
	return "ip:" + c.ClientIP()
}

// principal returns the authenticated principal; the auth middleware guarantees one
func principal(c *gin.Context) auth.Principal {
	p, _ := auth.FromContext(c)
	return p
}

// loadSession reads the caller's session state
func (h *Handler) loadSession(c *gin.Context) (session.State, bool) {
	st, err := h.sessions.Load(c.Request.Context(), principal(c).ID)
	if err != nil {
		h.logger.Error("Failed to load session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return session.State{}, false
	}
	return st, true
}

func (h *Handler) saveSession(c *gin.Context, st session.State) bool {
	if err := h.sessions.Save(c.Request.Context(), principal(c).ID, st); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUnknownUser), errors.Is(err, auth.ErrInactive):
		return http.StatusUnauthorized
	case errors.Is(err, editing.ErrNotEditing), errors.Is(err, editing.ErrSaving),
		errors.Is(err, scheduler.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, editing.ErrUnknownField), errors.Is(err, editing.ErrInvalidDraft),
		errors.Is(err, listing.ErrUnknownSortKey), errors.Is(err, models.ErrInvalidCover),
		errors.Is(err, transfer.ErrMalformed), errors.Is(err, transfer.ErrNoData),
		errors.Is(err, transfer.ErrNothingToExport):
		return http.StatusBadRequest
	case errors.Is(err, transfer.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, backend.ErrRejected):
		return http.StatusBadGateway
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// parseEntity reads the :kind path parameter
func parseEntity(c *gin.Context) (models.Entity, bool) {
	entity, err := models.ParseEntity(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return entity, true
}
