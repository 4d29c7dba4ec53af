package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	configuration "github.com/adlaunch-core/v2/configuration"
)

// Read-only lookup against the tracking service. Used solely to auto-populate
// draft fields (lander URL, tracking params) from a linked tracking campaign.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *configuration.EnvConfigVals, apiKey string) *Client {
	return &Client{
		endpoint:   cfg.TrackingAPIEndpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(cfg.GraphRequestTimeoutSec) * time.Second},
	}
}

type CampaignDetails struct {
	CampaignID     string `json:"id"`
	Title          string `json:"title"`
	LanderURL      string `json:"lander_url"`
	TrackingParams string `json:"tracking_params"`
}

func (c *Client) GetCampaignDetails(ctx context.Context, campaignId string) (CampaignDetails, error) {
	result := CampaignDetails{}
	params := url.Values{}
	params.Set("api_key", c.apiKey)

	target := fmt.Sprintf("%s/campaigns/%s?%s", c.endpoint, campaignId, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return result, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("error fetching tracking campaign %s: %s", campaignId, err)
		return result, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, err
	}
	if resp.StatusCode >= 400 {
		log.Printf("tracking lookup %s returned %d: %s", campaignId, resp.StatusCode, string(body))
		return result, fmt.Errorf("tracking lookup failed with status %d", resp.StatusCode)
	}

	err = json.Unmarshal(body, &result)
	if err != nil {
		log.Printf("error unmarshalling tracking campaign %s: %s", campaignId, err)
		return result, err
	}
	return result, nil
}
