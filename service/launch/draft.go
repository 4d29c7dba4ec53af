package launch

import (
	"strings"
	"sync"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	models "github.com/adlaunch-core/v2/service/models"
	tracking "github.com/adlaunch-core/v2/service/tracking"
)

const linkPlaceholder = "{{link}}"

// LaunchDraft is the campaign-to-be, assembled in the setup session and
// frozen at launch time.
type LaunchDraft struct {
	CampaignID           string
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
	PrimaryTexts         []string
	Headlines            []string
	Descriptions         []string
}

// DraftPartial carries only the fields a single update touches.
type DraftPartial struct {
	CampaignName         *string
	TrackingCampaignID   *string
	TrackingCampaignName *string
	AdPresetID           *string
	AdAccountID          *string
	PageID               *string
	PixelID              *string
	StartAtEpochMilli    *int64
	DailyBudgetCents     *int64
	GeoTarget            *string
	CallToAction         *string
	WebsiteURL           *string
	UTMParams            *string
	DisplayLink          *string
	PrimaryTexts         *[]string
	Headlines            *[]string
	Descriptions         *[]string
}

// DraftState owns the in-session draft. It applies the cross-field rules the
// setup UI depends on: an ad-account change invalidates the pixel and page
// chosen under the previous account, persisted fields are loaded exactly
// once, and tracking-campaign auto-population never clobbers a manual edit.
type DraftState struct {
	mu                 sync.Mutex
	draft              LaunchDraft
	initialized        bool
	autoPopulatedForID string // Tracking campaign id we last auto-populated from.
	manualURLEdit      bool
}

func NewDraftState(campaignId string) *DraftState {
	return &DraftState{draft: LaunchDraft{CampaignID: campaignId}}
}

func (s *DraftState) Draft() LaunchDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDraft(s.draft)
}

// InitFromFields hydrates the draft from persisted campaign fields the first
// time campaign data becomes available. Subsequent calls are no-ops so a
// refetch never clobbers user edits.
func (s *DraftState) InitFromFields(fields tables.CampaignDraftFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	primary, err := fields.GetCopyArray(fields.PrimaryTexts)
	if err != nil {
		return err
	}
	headlines, err := fields.GetCopyArray(fields.Headlines)
	if err != nil {
		return err
	}
	descriptions, err := fields.GetCopyArray(fields.Descriptions)
	if err != nil {
		return err
	}

	s.draft = LaunchDraft{
		CampaignID:           fields.CampaignID,
		CampaignName:         fields.CampaignName,
		TrackingCampaignID:   fields.TrackingCampaignID,
		TrackingCampaignName: fields.TrackingCampaignName,
		AdPresetID:           fields.AdPresetID,
		AdAccountID:          fields.AdAccountID,
		PageID:               fields.PageID,
		PixelID:              fields.PixelID,
		StartAtEpochMilli:    fields.StartAtEpochMilli,
		DailyBudgetCents:     fields.DailyBudgetCents,
		GeoTarget:            fields.GeoTarget,
		CallToAction:         fields.CallToAction,
		WebsiteURL:           fields.WebsiteURL,
		UTMParams:            fields.UTMParams,
		DisplayLink:          fields.DisplayLink,
		LinkVariable:         fields.LinkVariable,
		PrimaryTexts:         primary,
		Headlines:            headlines,
		Descriptions:         descriptions,
	}
	s.initialized = true
	return nil
}

func (s *DraftState) Update(p DraftPartial) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.AdAccountID != nil && *p.AdAccountID != s.draft.AdAccountID {
		// Pixel and page are scoped to an ad account; carrying them across
		// accounts would create stale cross-account references.
		s.draft.AdAccountID = *p.AdAccountID
		s.draft.PixelID = ""
		s.draft.PageID = ""
	}
	if p.TrackingCampaignID != nil && *p.TrackingCampaignID != s.draft.TrackingCampaignID {
		s.draft.TrackingCampaignID = *p.TrackingCampaignID
		// New tracking reference re-arms auto-population.
		s.autoPopulatedForID = ""
		s.manualURLEdit = false
	}
	if p.WebsiteURL != nil && *p.WebsiteURL != s.draft.WebsiteURL {
		s.draft.WebsiteURL = *p.WebsiteURL
		s.manualURLEdit = true
	}

	if p.CampaignName != nil {
		s.draft.CampaignName = *p.CampaignName
	}
	if p.TrackingCampaignName != nil {
		s.draft.TrackingCampaignName = *p.TrackingCampaignName
	}
	if p.AdPresetID != nil {
		s.draft.AdPresetID = *p.AdPresetID
	}
	if p.PageID != nil {
		s.draft.PageID = *p.PageID
	}
	if p.PixelID != nil {
		s.draft.PixelID = *p.PixelID
	}
	if p.StartAtEpochMilli != nil {
		s.draft.StartAtEpochMilli = *p.StartAtEpochMilli
	}
	if p.DailyBudgetCents != nil {
		s.draft.DailyBudgetCents = *p.DailyBudgetCents
	}
	if p.GeoTarget != nil {
		s.draft.GeoTarget = *p.GeoTarget
	}
	if p.CallToAction != nil {
		s.draft.CallToAction = *p.CallToAction
	}
	if p.UTMParams != nil {
		s.draft.UTMParams = *p.UTMParams
	}
	if p.DisplayLink != nil {
		s.draft.DisplayLink = *p.DisplayLink
	}
	if p.PrimaryTexts != nil {
		s.draft.PrimaryTexts = append([]string{}, (*p.PrimaryTexts)...)
	}
	if p.Headlines != nil {
		s.draft.Headlines = append([]string{}, (*p.Headlines)...)
	}
	if p.Descriptions != nil {
		s.draft.Descriptions = append([]string{}, (*p.Descriptions)...)
	}
}

// ApplyTrackingDetails writes the lander URL and tracking params looked up
// from the linked tracking campaign. The overwrite happens at most once per
// tracking-campaign reference, and never after the user edited the URL.
func (s *DraftState) ApplyTrackingDetails(details tracking.CampaignDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if details.CampaignID != s.draft.TrackingCampaignID {
		return
	}
	if s.manualURLEdit || s.autoPopulatedForID == details.CampaignID {
		return
	}
	s.draft.WebsiteURL = details.LanderURL
	s.draft.UTMParams = details.TrackingParams
	s.draft.TrackingCampaignName = details.Title
	s.autoPopulatedForID = details.CampaignID
}

// ResolveLinkVariable substitutes the {{link}} placeholder across all copy
// arrays once the destination URL is known, and records the resolved URL.
func (s *DraftState) ResolveLinkVariable(resolvedUrl string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(resolvedUrl) == 0 {
		return
	}
	s.draft.LinkVariable = resolvedUrl
	s.draft.PrimaryTexts = substituteLink(s.draft.PrimaryTexts, resolvedUrl)
	s.draft.Headlines = substituteLink(s.draft.Headlines, resolvedUrl)
	s.draft.Descriptions = substituteLink(s.draft.Descriptions, resolvedUrl)
}

func substituteLink(entries []string, resolvedUrl string) []string {
	result := make([]string, len(entries))
	for i, entry := range entries {
		result[i] = strings.ReplaceAll(entry, linkPlaceholder, resolvedUrl)
	}
	return result
}

func copyDraft(d LaunchDraft) LaunchDraft {
	result := d
	result.PrimaryTexts = append([]string{}, d.PrimaryTexts...)
	result.Headlines = append([]string{}, d.Headlines...)
	result.Descriptions = append([]string{}, d.Descriptions...)
	return result
}

func DraftFromPayload(p models.DraftPayload) LaunchDraft {
	return LaunchDraft{
		CampaignID:           p.CampaignID,
		CampaignName:         p.CampaignName,
		TrackingCampaignID:   p.TrackingCampaignID,
		TrackingCampaignName: p.TrackingCampaignName,
		AdPresetID:           p.AdPresetID,
		AdAccountID:          p.AdAccountID,
		PageID:               p.PageID,
		PixelID:              p.PixelID,
		StartAtEpochMilli:    p.StartAtEpochMilli,
		DailyBudgetCents:     p.DailyBudgetCents,
		GeoTarget:            p.GeoTarget,
		CallToAction:         p.CallToAction,
		WebsiteURL:           p.WebsiteURL,
		UTMParams:            p.UTMParams,
		DisplayLink:          p.DisplayLink,
		LinkVariable:         p.LinkVariable,
		PrimaryTexts:         append([]string{}, p.PrimaryTexts...),
		Headlines:            append([]string{}, p.Headlines...),
		Descriptions:         append([]string{}, p.Descriptions...),
	}
}

func PayloadFromDraft(d LaunchDraft) models.DraftPayload {
	return models.DraftPayload{
		CampaignID:           d.CampaignID,
		CampaignName:         d.CampaignName,
		TrackingCampaignID:   d.TrackingCampaignID,
		TrackingCampaignName: d.TrackingCampaignName,
		AdPresetID:           d.AdPresetID,
		AdAccountID:          d.AdAccountID,
		PageID:               d.PageID,
		PixelID:              d.PixelID,
		StartAtEpochMilli:    d.StartAtEpochMilli,
		DailyBudgetCents:     d.DailyBudgetCents,
		GeoTarget:            d.GeoTarget,
		CallToAction:         d.CallToAction,
		WebsiteURL:           d.WebsiteURL,
		UTMParams:            d.UTMParams,
		DisplayLink:          d.DisplayLink,
		LinkVariable:         d.LinkVariable,
		PrimaryTexts:         append([]string{}, d.PrimaryTexts...),
		Headlines:            append([]string{}, d.Headlines...),
		Descriptions:         append([]string{}, d.Descriptions...),
	}
}

func (d LaunchDraft) ToDraftFields() (tables.CampaignDraftFields, error) {
	primary, err := tables.MarshalCopyArray(d.PrimaryTexts)
	if err != nil {
		return tables.CampaignDraftFields{}, err
	}
	headlines, err := tables.MarshalCopyArray(d.Headlines)
	if err != nil {
		return tables.CampaignDraftFields{}, err
	}
	descriptions, err := tables.MarshalCopyArray(d.Descriptions)
	if err != nil {
		return tables.CampaignDraftFields{}, err
	}
	return tables.CampaignDraftFields{
		CampaignID:           d.CampaignID,
		CampaignName:         d.CampaignName,
		TrackingCampaignID:   d.TrackingCampaignID,
		TrackingCampaignName: d.TrackingCampaignName,
		AdPresetID:           d.AdPresetID,
		AdAccountID:          d.AdAccountID,
		PageID:               d.PageID,
		PixelID:              d.PixelID,
		StartAtEpochMilli:    d.StartAtEpochMilli,
		DailyBudgetCents:     d.DailyBudgetCents,
		GeoTarget:            d.GeoTarget,
		CallToAction:         d.CallToAction,
		WebsiteURL:           d.WebsiteURL,
		UTMParams:            d.UTMParams,
		DisplayLink:          d.DisplayLink,
		LinkVariable:         d.LinkVariable,
		PrimaryTexts:         primary,
		Headlines:            headlines,
		Descriptions:         descriptions,
	}, nil
}
