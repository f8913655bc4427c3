// Package search mirrors the listing collection into a meilisearch index
// for keyword lookup. The index only answers with ids; records are always
// read back from the store.
package search

import (
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"haoshi-console/internal/derive"
	"haoshi-console/internal/models"
)

// Document is the indexed shape of a listing.
type Document struct {
	ID            string  `json:"id"`
	CommunityName string  `json:"community_name"`
	Address       string  `json:"address"`
	Layout        string  `json:"layout"`
	FloorInfo     string  `json:"floor_info"`
	Notes         string  `json:"notes"`
	Status        string  `json:"status"`
	Agent         string  `json:"agent"`
	TotalPrice    float64 `json:"total_price"`
	HouseArea     float64 `json:"house_area"`
	Active        bool    `json:"active"`
}

// NewDocument converts a listing into its index document.
func NewDocument(p *models.Property) Document {
	return Document{
		ID:            p.ID.String(),
		CommunityName: p.CommunityName,
		Address:       p.Address,
		Layout:        p.Layout,
		FloorInfo:     p.FloorInfo,
		Notes:         p.Notes,
		Status:        p.Status,
		Agent:         p.LastEditor(),
		TotalPrice:    p.TotalPrice.Float(),
		HouseArea:     derive.HouseArea(p),
		Active:        p.IsActive(),
	}
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "listings"
	}

	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex creates the index and configures its attributes
func (s *SearchClient) InitIndex() error {
	// Index creation is an async task; an existing index makes the task fail, not the call
	if _, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	}); err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}

	idx := s.client.Index(s.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{
		"community_name",
		"address",
		"layout",
		"floor_info",
		"notes",
		"agent",
	}); err != nil {
		return err
	}

	if _, err := idx.UpdateFilterableAttributes(&[]string{
		"status",
		"layout",
		"community_name",
		"total_price",
		"active",
	}); err != nil {
		return err
	}

	_, err := idx.UpdateSortableAttributes(&[]string{
		"total_price",
		"house_area",
	})
	return err
}

// IndexProperties replaces the indexed listings.
func (s *SearchClient) IndexProperties(properties []models.Property) error {
	idx := s.client.Index(s.index)
	if _, err := idx.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if len(properties) == 0 {
		return nil
	}

	docs := make([]Document, len(properties))
	for i := range properties {
		docs[i] = NewDocument(&properties[i])
	}
	_, err := idx.AddDocuments(docs, "id")
	return err
}

// Result lists matching listing ids in relevance order.
type Result struct {
	IDs            []string `json:"ids"`
	TotalHits      int64    `json:"total_hits"`
	ProcessingTime int64    `json:"processing_time_ms"`
}

// Search runs a keyword search with filters.
func (s *SearchClient) Search(params FilterParams) (*Result, error) {
	if params.Limit == 0 {
		params.Limit = 50
	}

	req := &meilisearch.SearchRequest{
		Limit:                params.Limit,
		AttributesToRetrieve: []string{"id"},
	}
	if filter := BuildFilter(params); filter != "" {
		req.Filter = filter
	}

	res, err := s.client.Index(s.index).Search(params.Query, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		IDs:            hitIDs(res.Hits),
		TotalHits:      res.EstimatedTotalHits,
		ProcessingTime: res.ProcessingTimeMs,
	}, nil
}

// hitIDs pulls the id attribute out of raw hits, skipping malformed ones
func hitIDs(hits []interface{}) []string {
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		m, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := m["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
