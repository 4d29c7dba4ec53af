package v1

import (
	"encoding/json"
	"fmt"
)

type LaunchPhase string

const (
	PHASE_IDLE              LaunchPhase = "IDLE"
	PHASE_UPLOADING         LaunchPhase = "UPLOADING"
	PHASE_PROCESSING        LaunchPhase = "PROCESSING"
	PHASE_CREATING_CAMPAIGN LaunchPhase = "CREATING_CAMPAIGN"
	PHASE_CREATING_ADS      LaunchPhase = "CREATING_ADS"
	PHASE_COMPLETE          LaunchPhase = "COMPLETE" // Terminal, success.
	PHASE_FAILED            LaunchPhase = "FAILED"   // Terminal, failure.
	PHASE_STOPPED           LaunchPhase = "STOPPED"  // Terminal, user cancel.
)

func (p LaunchPhase) IsTerminal() bool {
	return p == PHASE_COMPLETE || p == PHASE_FAILED || p == PHASE_STOPPED
}

type MediaKind string

const (
	MEDIA_VIDEO MediaKind = "Video"
	MEDIA_IMAGE MediaKind = "Image"
)

// MediaPhase orders a creative's journey through the pipeline. Transitions
// are monotonic: once READY or FAILED an item never moves again.
type MediaPhase string

const (
	MEDIA_QUEUED     MediaPhase = "QUEUED"
	MEDIA_UPLOADING  MediaPhase = "UPLOADING"
	MEDIA_UPLOADED   MediaPhase = "UPLOADED"
	MEDIA_PROCESSING MediaPhase = "PROCESSING"
	MEDIA_READY      MediaPhase = "READY"  // Terminal, usable in ad creation.
	MEDIA_FAILED     MediaPhase = "FAILED" // Terminal.
)

var mediaPhaseRank = map[MediaPhase]int{
	MEDIA_QUEUED:     0,
	MEDIA_UPLOADING:  1,
	MEDIA_UPLOADED:   2,
	MEDIA_PROCESSING: 3,
	MEDIA_READY:      4,
	MEDIA_FAILED:     4,
}

func (p MediaPhase) Rank() int {
	return mediaPhaseRank[p]
}

func (p MediaPhase) IsTerminal() bool {
	return p == MEDIA_READY || p == MEDIA_FAILED
}

// One row per selected creative inside a snapshot's MediaItems blob.
type MediaItemRecord struct {
	MediaID      string
	Name         string
	Kind         MediaKind
	Phase        MediaPhase
	Progress     int // 0-100 upload progress.
	AssetID      string
	ErrorMessage string
}

type LaunchSnapshot struct {
	// Required
	LaunchID             string // Also system correlation ID.
	CampaignID           string
	Phase                LaunchPhase // Terminal phase at time of write.
	LaunchedAtEpochMilli int64

	// Optional
	PlatformCampaignID string
	AdIDs              string // JSON list of created platform ad ids.
	MediaItems         string // JSON list of MediaItemRecord.
	ReadyCount         int
	FailedCount        int
	AdSuccessCount     int
	AdFailureCount     int
	ElapsedMilli       int64
	LastError          string
}

func (s *LaunchSnapshot) GetAdIDs() ([]string, error) {
	result := []string{}
	if len(s.AdIDs) == 0 {
		return result, nil
	}
	err := json.Unmarshal([]byte(s.AdIDs), &result)
	if err != nil {
		return result, fmt.Errorf("error deserializing snapshot ad ids: %w", err)
	}
	return result, nil
}

func (s *LaunchSnapshot) SetAdIDs(adIds []string) error {
	b, err := json.Marshal(adIds)
	if err != nil {
		return fmt.Errorf("error serializing snapshot ad ids: %w", err)
	}
	s.AdIDs = string(b)
	return nil
}

func (s *LaunchSnapshot) GetMediaItems() ([]MediaItemRecord, error) {
	result := []MediaItemRecord{}
	if len(s.MediaItems) == 0 {
		return result, nil
	}
	err := json.Unmarshal([]byte(s.MediaItems), &result)
	if err != nil {
		return result, fmt.Errorf("error deserializing snapshot media items: %w", err)
	}
	return result, nil
}

func (s *LaunchSnapshot) SetMediaItems(items []MediaItemRecord) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("error serializing snapshot media items: %w", err)
	}
	s.MediaItems = string(b)
	return nil
}

// Persisted draft fields for a campaign, re-hydrated into the setup session
// the first time campaign data loads.
type CampaignDraftFields struct {
	CampaignID           string // PK
	CampaignName         string
	TrackingCampaignID   string
	TrackingCampaignName string
	AdPresetID           string
	AdAccountID          string
	PageID               string
	PixelID              string
	StartAtEpochMilli    int64
	DailyBudgetCents     int64
	GeoTarget            string
	CallToAction         string
	WebsiteURL           string
	UTMParams            string
	DisplayLink          string
	LinkVariable         string
	PrimaryTexts         string // JSON array, 1-5 entries.
	Headlines            string // JSON array, 1-5 entries.
	Descriptions         string // JSON array, 1-5 entries.
	UpdatedAtEpochMilli  int64
}

func (c *CampaignDraftFields) GetCopyArray(field string) ([]string, error) {
	result := []string{}
	if len(field) == 0 {
		return result, nil
	}
	err := json.Unmarshal([]byte(field), &result)
	if err != nil {
		return result, fmt.Errorf("error deserializing draft copy array: %w", err)
	}
	return result, nil
}

func MarshalCopyArray(entries []string) (string, error) {
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("error serializing draft copy array: %w", err)
	}
	return string(b), nil
}
