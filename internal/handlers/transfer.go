package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"haoshi-console/internal/auth"
	"haoshi-console/internal/models"
	"haoshi-console/internal/transfer"
)

const (
	maxImportSize = 10 << 20
	previewRows   = 5
)

// readImport parses the uploaded "file" form field
func readImport(c *gin.Context) ([]transfer.Row, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, false
	}
	if fh.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxImportSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	rows, err := transfer.Parse(fh.Filename, content)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return rows, true
}

// ImportPreview shows the first rows of an upload and how they map
func (h *Handler) ImportPreview(c *gin.Context) {
	rows, ok := readImport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, transfer.NewPreview(rows, previewRows))
}

// Import creates a listing per uploaded row
func (h *Handler) Import(c *gin.Context) {
	rows, ok := readImport(c)
	if !ok {
		return
	}
	actor := principal(c).Name
	create := func(ctx context.Context, data map[string]any) error {
		_, err := h.gateway.Create(ctx, models.EntityProperty, data, actor)
		return err
	}

	res, err := transfer.BulkImport(c.Request.Context(), rows, create, h.logger)
	if err != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

// attachment writes body as a download named filename
func attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Data(http.StatusOK, contentType, body)
}

// ExportCSV downloads every listing as CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := transfer.WriteCSV(&buf, h.store.Properties(), h.store.Communities()); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, transfer.CSVFileName(time.Now()), "text/csv; charset=utf-8", buf.Bytes())
}

// ExportXLSX downloads every listing as a spreadsheet
func (h *Handler) ExportXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := transfer.WriteXLSX(&buf, h.store.Properties(), h.store.Communities()); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, transfer.XLSXFileName(time.Now()),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportBackup downloads a JSON backup. Users are included for administrators only.
func (h *Handler) ExportBackup(c *gin.Context) {
	now := time.Now()
	includeUsers := auth.CanManageUsers(principal(c))
	backup := transfer.NewBackup(h.store.Properties(), h.store.Communities(), h.store.Users(), includeUsers, now)

	var buf bytes.Buffer
	if err := backup.WriteJSON(&buf); err != nil {
		h.logger.Error("Failed to encode backup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attachment(c, transfer.BackupFileName(now), "application/json", buf.Bytes())
}
