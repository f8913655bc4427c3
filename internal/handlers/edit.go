package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/editing"
	"haoshi-console/internal/models"
)

func (h *Handler) editBody(entity models.Entity, s editing.State) gin.H {
	body := gin.H{"entity": entity, "state": s}
	if entity == models.EntityProperty && s.IsEditing() {
		body["live"] = h.editor.Live(s)
	}
	return body
}

// GetEdit returns the caller's editor for one entity kind
func (h *Handler) GetEdit(c *gin.Context) {
	entity, ok := parseEntity(c)
	if !ok {
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.editBody(entity, st.Edits.Get(entity)))
}

// StartEdit opens a row in the inline editor, closing any other row of that kind
func (h *Handler) StartEdit(c *gin.Context) {
	entity, ok := parseEntity(c)
	if !ok {
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	s, err := h.editor.Start(&st.Edits, principal(c), entity, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.saveSession(c, st) {
		return
	}
	c.JSON(http.StatusOK, h.editBody(entity, s))
}

type draftRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// SetDraftField changes one draft value and returns the live recompute
func (h *Handler) SetDraftField(c *gin.Context) {
	entity, ok := parseEntity(c)
	if !ok {
		return
	}
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	live, err := h.editor.SetField(&st.Edits, entity, req.Field, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.saveSession(c, st) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity": entity, "state": st.Edits.Get(entity), "live": live})
}

// SaveEdit commits the open draft. The saving flag is stored before the
// backend call so a second save from another tab is rejected. The session
// lock is not held during the call; afterwards only this kind's editor is
// written back onto the session as it stands then.
func (h *Handler) SaveEdit(c *gin.Context) {
	entity, ok := parseEntity(c)
	if !ok {
		return
	}
	id, data, saving, ok := h.beginSave(c, entity)
	if !ok {
		return
	}

	done := editing.Board{entity: saving}
	res, err := h.editor.Commit(c.Request.Context(), &done, principal(c), entity, id, data)
	state, ok := h.settleSave(c, entity, id, done)
	if !ok {
		return
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "state": state})
		return
	}
	body := mutationBody(res)
	body["state"] = state
	c.JSON(http.StatusOK, body)
}

// beginSave marks the editor saving and stores it. ok is false once a
// response has been written.
func (h *Handler) beginSave(c *gin.Context, entity models.Entity) (id string, data map[string]any, saving editing.State, ok bool) {
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return "", nil, editing.State{}, false
	}

	id, data, err := h.editor.BeginSave(&st.Edits, entity)
	if err != nil {
		if h.saveSession(c, st) {
			respondError(c, err)
		}
		return "", nil, editing.State{}, false
	}
	if !h.saveSession(c, st) {
		return "", nil, editing.State{}, false
	}
	return id, data, st.Edits.Get(entity), true
}

// settleSave reloads the session and applies the save outcome to it. The
// request context may be gone by then, so the saving flag would otherwise stick.
func (h *Handler) settleSave(c *gin.Context, entity models.Entity, id string, done editing.Board) (editing.State, bool) {
	defer h.lockSession(c)()
	ctx := context.WithoutCancel(c.Request.Context())
	key := principal(c).ID

	st, err := h.sessions.Load(ctx, key)
	if err == nil {
		st.Edits.Settle(entity, id, done)
		err = h.sessions.Save(ctx, key, st)
	}
	if err != nil {
		h.logger.Error("Failed to save session after commit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return editing.State{}, false
	}
	return st.Edits.Get(entity), true
}

// CancelEdit discards the open draft
func (h *Handler) CancelEdit(c *gin.Context) {
	entity, ok := parseEntity(c)
	if !ok {
		return
	}
	defer h.lockSession(c)()
	st, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := h.editor.Cancel(&st.Edits, entity); err != nil {
		respondError(c, err)
		return
	}
	if !h.saveSession(c, st) {
		return
	}
	c.JSON(http.StatusOK, h.editBody(entity, st.Edits.Get(entity)))
}
