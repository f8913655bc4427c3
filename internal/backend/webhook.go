package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"haoshi-console/internal/config"
	"haoshi-console/internal/models"
	"haoshi-console/internal/store"
)

// WebhookClient talks to the n8n-style webhook API.
type WebhookClient struct {
	httpClient *resty.Client
	endpoints  config.EndpointsConfig
	logger     *zap.Logger
}

// NewWebhookClient creates a client against the configured base or test URL.
func NewWebhookClient(cfg config.WebhookConfig, logger *zap.Logger) *WebhookClient {
	client := resty.New().
		SetBaseURL(cfg.ActiveURL()).
		SetTimeout(cfg.GetTimeout()).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.GetRetryWait()).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &WebhookClient{
		httpClient: client,
		endpoints:  cfg.Endpoints,
		logger:     logger,
	}
}

// FetchAll loads every collection. Keys missing from the response leave the
// corresponding Snapshot field nil; keys that are not arrays decode as empty.
func (c *WebhookClient) FetchAll(ctx context.Context) (store.Snapshot, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.endpoints.AllData)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return store.Snapshot{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode())
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return store.Snapshot{}, fmt.Errorf("%w: decode all-data: %v", ErrUnavailable, err)
	}

	var snap store.Snapshot
	if msg, ok := raw["properties_for_sale"]; ok {
		snap.Properties = decodeCollection[models.Property](msg, c.logger, "properties_for_sale")
	}
	if msg, ok := raw["communities"]; ok {
		snap.Communities = decodeCollection[models.Community](msg, c.logger, "communities")
	}
	if msg, ok := raw["users"]; ok {
		snap.Users = decodeCollection[models.User](msg, c.logger, "users")
	}

	c.logger.Debug("fetched all data",
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)
	return snap, nil
}

func decodeCollection[T any](msg json.RawMessage, logger *zap.Logger, key string) *[]T {
	out := []T{}
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return &out
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		logger.Warn("discarding undecodable collection", zap.String("key", key), zap.Error(err))
		out = []T{}
	}
	return &out
}

// Mutate posts a create/update/delete envelope to the entity's admin endpoint.
func (c *WebhookClient) Mutate(ctx context.Context, entity models.Entity, req MutationRequest) (*MutationResponse, error) {
	path, err := c.adminPath(entity)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode())
	}

	out := &MutationResponse{Status: "success"}
	if body := bytes.TrimSpace(resp.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, entity, err)
		}
	}
	if out.Status == "error" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}

	c.logger.Info("webhook mutation applied",
		zap.String("entity", string(entity)),
		zap.String("action", req.Action),
		zap.String("id", req.ID),
	)
	return out, nil
}

type uploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Files   []struct {
		PublicURL string `json:"public_url"`
	} `json:"files"`
}

// UploadPhotos sends listing photos as multipart form data and returns their public URLs.
func (c *WebhookClient) UploadPhotos(ctx context.Context, propertyID, actor string, files []PhotoFile) ([]string, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"property_id": propertyID,
			"user":        actor,
		})
	for _, f := range files {
		req.SetFileReader("file", f.Name, f.Reader)
	}

	resp, err := req.Post(c.endpoints.PhotoUpload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode())
	}
	var result uploadResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: decode upload response: %v", ErrUnavailable, err)
	}
	if result.Status != "success" || result.Files == nil {
		msg := result.Message
		if msg == "" {
			msg = "上傳失敗"
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	urls := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		if f.PublicURL != "" {
			urls = append(urls, f.PublicURL)
		}
	}
	return urls, nil
}

func (c *WebhookClient) adminPath(entity models.Entity) (string, error) {
	switch entity {
	case models.EntityProperty:
		return c.endpoints.Properties, nil
	case models.EntityCommunity:
		return c.endpoints.Communities, nil
	case models.EntityUser:
		return c.endpoints.Users, nil
	}
	return "", fmt.Errorf("no admin endpoint for entity %q", entity)
}
