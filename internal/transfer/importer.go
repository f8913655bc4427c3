package transfer

import (
	"context"

	"go.uber.org/zap"
)

// CreateFunc creates one listing from a mapped payload.
type CreateFunc func(ctx context.Context, data map[string]any) error

// RowError records why one row failed.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult counts the outcome of a bulk import.
type ImportResult struct {
	Success int        `json:"success"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors,omitempty"`
}

// BulkImport creates a listing per row. A failing row is counted and the
// import carries on; only a cancelled context stops it early.
func BulkImport(ctx context.Context, rows []Row, create CreateFunc, logger *zap.Logger) (ImportResult, error) {
	var res ImportResult
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := create(ctx, MapRow(row)); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: i + 1, Error: err.Error()})
			logger.Warn("Import row failed", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		res.Success++
	}

	logger.Info("Import finished",
		zap.Int("success", res.Success),
		zap.Int("failed", res.Failed))
	return res, nil
}
