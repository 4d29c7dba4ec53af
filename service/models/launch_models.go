package models

// Wire models for the launch HTTP surface and the launch-request queue.

type DraftPayload struct {
	CampaignID           string   `json:"campaignId"`
	CampaignName         string   `json:"campaignName"`
	TrackingCampaignID   string   `json:"trackingCampaignId"`
	TrackingCampaignName string   `json:"trackingCampaignName"`
	AdPresetID           string   `json:"adPresetId"`
	AdAccountID          string   `json:"adAccountId"`
	PageID               string   `json:"pageId"`
	PixelID              string   `json:"pixelId"`
	StartAtEpochMilli    int64    `json:"startAtEpochMilli"`
	DailyBudgetCents     int64    `json:"dailyBudgetCents"`
	GeoTarget            string   `json:"geoTarget"`
	CallToAction         string   `json:"callToAction"`
	WebsiteURL           string   `json:"websiteUrl"`
	UTMParams            string   `json:"utmParams"`
	DisplayLink          string   `json:"displayLink"`
	LinkVariable         string   `json:"linkVariable"`
	PrimaryTexts         []string `json:"primaryTexts"`
	Headlines            []string `json:"headlines"`
	Descriptions         []string `json:"descriptions"`
}

type MediaSelection struct {
	MediaID    string `json:"mediaId"`
	Name       string `json:"name"`
	Kind       string `json:"kind"` // Video | Image
	Status     string `json:"status"`
	StorageKey string `json:"storageKey"` // Object key in the media staging bucket.
	InLibrary  bool   `json:"inLibrary"`
	AssetID    string `json:"assetId"` // Platform asset id when already in library.
}

type LaunchRequest struct {
	Draft          DraftPayload     `json:"draft"`
	SelectedVideos []MediaSelection `json:"selectedVideos"`
	SelectedImages []MediaSelection `json:"selectedImages"`
}

type LaunchQueueMessage struct {
	LaunchID string        `json:"launchId"`
	Request  LaunchRequest `json:"request"`
}

type StartLaunchResponse struct {
	LaunchID string `json:"launchId"`
}

type StopLaunchRequest struct {
	LaunchID string `json:"launchId"`
}

type LibraryCheckRequest struct {
	AdAccountID string           `json:"adAccountId"`
	Videos      []MediaSelection `json:"videos"`
	Images      []MediaSelection `json:"images"`
}

type LibraryCheckResponse struct {
	Videos []MediaSelection `json:"videos"`
	Images []MediaSelection `json:"images"`
}
