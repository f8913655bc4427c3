package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func TestDetectChanges(t *testing.T) {
	prev := []models.Property{
		{ID: "1", TotalPrice: "1200", TotalPing: "35.5", Status: "專任"},
		{ID: "2", TotalPrice: "980", TotalPing: "28.2", Status: "一般"},
		{ID: "3", TotalPrice: "1580", TotalPing: "45.8", Status: "專任"},
	}
	next := []models.Property{
		{ID: "1", TotalPrice: "1150", TotalPing: "35.5", Status: "專任"},
		{ID: "2", TotalPrice: "980.0", TotalPing: "28.2", Status: "已下架"},
		{ID: "4", TotalPrice: "2000", TotalPing: "50", Status: "一般"},
	}

	changes := DetectChanges(prev, next)
	require.Len(t, changes, 4)
	require.Equal(t, models.ChangeTypePrice, changes[0].ChangeType)
	require.Equal(t, "1200", changes[0].OldValue)
	require.Equal(t, "1150", changes[0].NewValue)
	require.Equal(t, models.ChangeTypeStatus, changes[1].ChangeType)
	require.Equal(t, models.ChangeTypeNew, changes[2].ChangeType)
	require.Equal(t, "4", changes[2].PropertyID)
	require.Equal(t, models.ChangeTypeRemoved, changes[3].ChangeType)
	require.Equal(t, "3", changes[3].PropertyID)

	require.Equal(t, Summary{New: 1, Removed: 1, PriceChanged: 1, StatusChanged: 1}, Summarize(changes))
}

func TestDetectChanges_NoChanges(t *testing.T) {
	props := []models.Property{{ID: "1", TotalPrice: "1200"}}
	require.Empty(t, DetectChanges(props, props))
}
