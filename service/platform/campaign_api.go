package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
)

type CampaignParams struct {
	AdAccountID      string
	Name             string
	Objective        string
	DailyBudgetCents int64
}

func (c *GraphClient) CreateCampaign(ctx context.Context, p CampaignParams) (string, error) {
	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("objective", p.Objective)
	params.Set("daily_budget", strconv.FormatInt(p.DailyBudgetCents, 10))
	params.Set("status", "PAUSED") // Campaigns go live via the schedule patcher, never at create time.
	params.Set("special_ad_categories", "[]")

	result := idResponse{}
	err := c.postForm(ctx, fmt.Sprintf("act_%s/campaigns", p.AdAccountID), params, &result)
	if err != nil {
		log.Printf("error creating campaign %s: %s", p.Name, err)
		return "", err
	}
	return result.ID, nil
}

type AdSetParams struct {
	AdAccountID      string
	CampaignID       string
	Name             string
	PixelID          string
	GeoCountries     []string
	DailyBudgetCents int64
	StartAtEpochSec  int64
	OptimizationGoal string
	BillingEvent     string
}

func (c *GraphClient) CreateAdSet(ctx context.Context, p AdSetParams) (string, error) {
	targeting, err := json.Marshal(map[string]interface{}{
		"geo_locations": map[string]interface{}{"countries": p.GeoCountries},
	})
	if err != nil {
		return "", err
	}
	promotedObject, err := json.Marshal(map[string]string{"pixel_id": p.PixelID, "custom_event_type": "PURCHASE"})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("campaign_id", p.CampaignID)
	params.Set("daily_budget", strconv.FormatInt(p.DailyBudgetCents, 10))
	params.Set("start_time", strconv.FormatInt(p.StartAtEpochSec, 10))
	params.Set("optimization_goal", p.OptimizationGoal)
	params.Set("billing_event", p.BillingEvent)
	params.Set("targeting", string(targeting))
	params.Set("promoted_object", string(promotedObject))
	params.Set("status", "PAUSED")

	result := idResponse{}
	err = c.postForm(ctx, fmt.Sprintf("act_%s/adsets", p.AdAccountID), params, &result)
	if err != nil {
		log.Printf("error creating ad set %s: %s", p.Name, err)
		return "", err
	}
	return result.ID, nil
}

type CreativeParams struct {
	AdAccountID  string
	PageID       string
	Name         string
	Message      string
	Headline     string
	Description  string
	LinkURL      string
	DisplayLink  string
	CallToAction string
	VideoID      string // Set for video creatives.
	ImageHash    string // Set for image creatives.
	ThumbnailURL string
}

func (c *GraphClient) CreateAdCreative(ctx context.Context, p CreativeParams) (string, error) {
	linkData := map[string]interface{}{
		"link":        p.LinkURL,
		"message":     p.Message,
		"name":        p.Headline,
		"description": p.Description,
		"caption":     p.DisplayLink,
		"call_to_action": map[string]interface{}{
			"type":  p.CallToAction,
			"value": map[string]string{"link": p.LinkURL},
		},
	}

	storySpec := map[string]interface{}{"page_id": p.PageID}
	if len(p.VideoID) > 0 {
		videoData := map[string]interface{}{
			"video_id":         p.VideoID,
			"message":          p.Message,
			"title":            p.Headline,
			"link_description": p.Description,
			"image_url":        p.ThumbnailURL,
			"call_to_action":   linkData["call_to_action"],
		}
		storySpec["video_data"] = videoData
	} else {
		linkData["image_hash"] = p.ImageHash
		storySpec["link_data"] = linkData
	}

	spec, err := json.Marshal(storySpec)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("object_story_spec", string(spec))

	result := idResponse{}
	err = c.postForm(ctx, fmt.Sprintf("act_%s/adcreatives", p.AdAccountID), params, &result)
	if err != nil {
		log.Printf("error creating ad creative %s: %s", p.Name, err)
		return "", err
	}
	return result.ID, nil
}

type AdParams struct {
	AdAccountID string
	AdSetID     string
	CreativeID  string
	Name        string
	TrackingURL string
}

func (c *GraphClient) CreateAd(ctx context.Context, p AdParams) (string, error) {
	creative, err := json.Marshal(map[string]string{"creative_id": p.CreativeID})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("adset_id", p.AdSetID)
	params.Set("creative", string(creative))
	params.Set("status", "PAUSED")
	if len(p.TrackingURL) > 0 {
		params.Set("url_tags", p.TrackingURL)
	}

	result := idResponse{}
	err = c.postForm(ctx, fmt.Sprintf("act_%s/ads", p.AdAccountID), params, &result)
	if err != nil {
		log.Printf("error creating ad %s: %s", p.Name, err)
		return "", err
	}
	return result.ID, nil
}

// PauseCampaign is invoked best-effort when a launch is stopped after the
// campaign object already exists. Destructive rollback is unsupported.
func (c *GraphClient) PauseCampaign(ctx context.Context, campaignId string) error {
	params := url.Values{}
	params.Set("status", "PAUSED")

	err := c.postForm(ctx, campaignId, params, nil)
	if err != nil {
		log.Printf("error pausing campaign %s: %s", campaignId, err)
		return err
	}
	return nil
}
