package launch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	platform "github.com/adlaunch-core/v2/service/platform"
)

// createCampaignShell creates the campaign object and its ad set. Both are
// campaign-level: a failure here fails the whole launch before any ad is
// attempted.
func (m *Machine) createCampaignShell(ctx context.Context) error {
	launchId := m.State().LaunchID
	draft := m.draft

	campaignId, err := m.deps.Platform.CreateCampaign(ctx, platform.CampaignParams{
		AdAccountID:      draft.AdAccountID,
		Name:             draft.CampaignName,
		Objective:        "OUTCOME_SALES",
		DailyBudgetCents: draft.DailyBudgetCents,
	})
	if err != nil {
		return fmt.Errorf("campaign creation failed: %w", err)
	}
	m.dispatch(Event{Kind: EVENT_CAMPAIGN_CREATED, EntityID: campaignId, AtEpochMilli: time.Now().UnixMilli()})
	log.Printf("correlationID: %s created campaign %s", launchId, campaignId)

	adSetId, err := m.deps.Platform.CreateAdSet(ctx, platform.AdSetParams{
		AdAccountID:      draft.AdAccountID,
		CampaignID:       campaignId,
		Name:             draft.CampaignName + " - Ad Set",
		PixelID:          draft.PixelID,
		GeoCountries:     splitGeoTarget(draft.GeoTarget),
		DailyBudgetCents: draft.DailyBudgetCents,
		StartAtEpochSec:  draft.StartAtEpochMilli / 1000,
		OptimizationGoal: "OFFSITE_CONVERSIONS",
		BillingEvent:     "IMPRESSIONS",
	})
	if err != nil {
		return fmt.Errorf("ad set creation failed: %w", err)
	}
	m.dispatch(Event{Kind: EVENT_ADSET_CREATED, EntityID: adSetId, AtEpochMilli: time.Now().UnixMilli()})
	log.Printf("correlationID: %s created ad set %s", launchId, adSetId)
	return nil
}

// createAds builds one creative + ad per ready media item. Per-ad failures
// are recorded and skipped; the remaining items still get their attempt.
// Returns the number of ads created.
func (m *Machine) createAds(ctx context.Context, readyItems []MediaItemState) int {
	launchId := m.State().LaunchID
	draft := m.draft
	adSetId := m.State().PlatformAdSetID
	destination := destinationURL(draft.WebsiteURL, draft.UTMParams)

	// Stable ad naming across retries of the same launch.
	sort.Slice(readyItems, func(i, j int) bool { return readyItems[i].MediaID < readyItems[j].MediaID })

	successCount := 0
	for i, item := range readyItems {
		if ctx.Err() != nil {
			return successCount
		}

		creativeParams := platform.CreativeParams{
			AdAccountID:  draft.AdAccountID,
			PageID:       draft.PageID,
			Name:         fmt.Sprintf("%s - Creative %d", draft.CampaignName, i+1),
			Message:      rotate(draft.PrimaryTexts, i),
			Headline:     rotate(draft.Headlines, i),
			Description:  rotate(draft.Descriptions, i),
			LinkURL:      destination,
			DisplayLink:  draft.DisplayLink,
			CallToAction: draft.CallToAction,
		}
		if item.Kind == tables.MEDIA_VIDEO {
			creativeParams.VideoID = item.AssetID
		} else {
			creativeParams.ImageHash = item.AssetID
		}

		creativeId, err := m.deps.Platform.CreateAdCreative(ctx, creativeParams)
		if err != nil {
			log.Printf("correlationID: %s creative creation failed for %s: %s", launchId, item.MediaID, err)
			m.dispatch(Event{Kind: EVENT_AD_FAILED, MediaID: item.MediaID, ErrorMessage: err.Error(), AtEpochMilli: time.Now().UnixMilli()})
			continue
		}

		adId, err := m.deps.Platform.CreateAd(ctx, platform.AdParams{
			AdAccountID: draft.AdAccountID,
			AdSetID:     adSetId,
			CreativeID:  creativeId,
			Name:        fmt.Sprintf("%s - Ad %d", draft.CampaignName, i+1),
			TrackingURL: draft.UTMParams,
		})
		if err != nil {
			log.Printf("correlationID: %s ad creation failed for %s: %s", launchId, item.MediaID, err)
			m.dispatch(Event{Kind: EVENT_AD_FAILED, MediaID: item.MediaID, ErrorMessage: err.Error(), AtEpochMilli: time.Now().UnixMilli()})
			continue
		}

		m.dispatch(Event{Kind: EVENT_AD_CREATED, EntityID: adId, AtEpochMilli: time.Now().UnixMilli()})
		successCount++
	}
	return successCount
}

// destinationURL appends the tracking params to the lander URL.
func destinationURL(websiteUrl string, utmParams string) string {
	if len(utmParams) == 0 {
		return websiteUrl
	}
	utm := strings.TrimPrefix(utmParams, "?")
	utm = strings.TrimPrefix(utm, "&")
	if strings.Contains(websiteUrl, "?") {
		return websiteUrl + "&" + utm
	}
	return websiteUrl + "?" + utm
}

func splitGeoTarget(geoTarget string) []string {
	parts := strings.Split(geoTarget, ",")
	result := []string{}
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if len(trimmed) > 0 {
			result = append(result, trimmed)
		}
	}
	return result
}

// rotate cycles copy entries across creatives so every ad gets text even
// when fewer than len(readyItems) variants exist.
func rotate(entries []string, i int) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[i%len(entries)]
}
