package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

// HTTPClient is the production Directory adapter, talking to the entity
// directory service's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ Directory = (*HTTPClient)(nil)

// NewHTTPClient creates a directory client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type entityResponse struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	EntityType    string `json:"entity_type"`
	FormationDate string `json:"formation_date"`
}

func (c *HTTPClient) GetEntity(ctx context.Context, id domain.EntityID) (*BusinessEntity, error) {
	url := fmt.Sprintf("%s/entities/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("entity %s: %w", id, sentinel.ErrNotFound)
	default:
		return nil, fmt.Errorf("directory returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var body entityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}

	entityID, err := domain.ParseEntityID(body.ID)
	if err != nil {
		return nil, fmt.Errorf("directory returned bad entity id: %w", err)
	}
	formed, err := time.Parse("2006-01-02", body.FormationDate)
	if err != nil {
		return nil, fmt.Errorf("directory returned bad formation date %q: %w", body.FormationDate, err)
	}

	return &BusinessEntity{
		ID:            entityID,
		State:         body.State,
		EntityType:    body.EntityType,
		FormationDate: formed,
	}, nil
}
