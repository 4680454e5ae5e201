package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

type AdpilerClient struct {
	Client       *http.Client
	APIKey       string
	CampaignsURL string
	CreativesURL string
}

func NewAdpilerClient(httpClient *http.Client, apiKey, campaignsURL, creativesURL string) *AdpilerClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AdpilerClient{
		Client:       httpClient,
		APIKey:       apiKey,
		CampaignsURL: campaignsURL,
		CreativesURL: creativesURL,
	}
}

// CreateCampaign posts a campaign and returns the raw response body.
func (ac *AdpilerClient) CreateCampaign(ctx context.Context, campaign models.CampaignRequest) (json.RawMessage, error) {
	return ac.post(ctx, ac.CampaignsURL, campaign)
}

// CreateCreative posts a creative and returns the raw response body.
func (ac *AdpilerClient) CreateCreative(ctx context.Context, creative models.CreativeRequest) (json.RawMessage, error) {
	return ac.post(ctx, ac.CreativesURL, creative)
}

func (ac *AdpilerClient) post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	defer metrics.ObserveRequest("adpiler", time.Now())

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode Adpiler request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ac.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := ac.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send post request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Adpiler response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		path := endpoint
		if u, err := url.Parse(endpoint); err == nil {
			path = u.Path
		}
		return nil, &APIError{API: "adpiler", Method: http.MethodPost, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if len(bytes.TrimSpace(respBody)) == 0 || !json.Valid(respBody) {
		// keep the log entry valid JSON even for odd responses
		quoted, _ := json.Marshal(string(respBody))
		return quoted, nil
	}
	return json.RawMessage(respBody), nil
}
