package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tracking "github.com/adlaunch-core/v2/service/tracking"
)

func str(s string) *string { return &s }

func TestUpdateAdAccountChangeClearsPixelAndPage(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{
		AdAccountID: str("act-1"),
		PageID:      str("page-1"),
		PixelID:     str("pixel-1"),
	})

	state.Update(DraftPartial{AdAccountID: str("act-2")})

	draft := state.Draft()
	assert.Equal(t, "act-2", draft.AdAccountID)
	assert.Empty(t, draft.PixelID)
	assert.Empty(t, draft.PageID)
}

func TestUpdateSameAdAccountKeepsPixelAndPage(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{
		AdAccountID: str("act-1"),
		PageID:      str("page-1"),
		PixelID:     str("pixel-1"),
	})

	state.Update(DraftPartial{AdAccountID: str("act-1")})

	draft := state.Draft()
	assert.Equal(t, "pixel-1", draft.PixelID)
	assert.Equal(t, "page-1", draft.PageID)
}

func TestUpdateEmptyPartialIsNoOp(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{
		CampaignName: str("Spring Sale"),
		AdAccountID:  str("act-1"),
		GeoTarget:    str("US"),
	})
	before := state.Draft()

	state.Update(DraftPartial{})

	assert.Equal(t, before, state.Draft())
}

func TestInitFromFieldsRunsOnce(t *testing.T) {
	state := NewDraftState("campaign-1")
	fields, err := LaunchDraft{
		CampaignID:   "campaign-1",
		CampaignName: "Persisted Name",
		PrimaryTexts: []string{"stored text"},
	}.ToDraftFields()
	assert.Nil(t, err)

	err = state.InitFromFields(fields)
	assert.Nil(t, err)
	assert.Equal(t, "Persisted Name", state.Draft().CampaignName)
	assert.Equal(t, []string{"stored text"}, state.Draft().PrimaryTexts)

	// User edits, then a refetch arrives.
	state.Update(DraftPartial{CampaignName: str("Edited Name")})
	err = state.InitFromFields(fields)
	assert.Nil(t, err)
	assert.Equal(t, "Edited Name", state.Draft().CampaignName)
}

func TestApplyTrackingDetailsPopulatesOnce(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{TrackingCampaignID: str("trk-1")})

	state.ApplyTrackingDetails(tracking.CampaignDetails{
		CampaignID:     "trk-1",
		Title:          "Tracked Campaign",
		LanderURL:      "https://l.example.com/abc",
		TrackingParams: "utm_source=tracker",
	})

	draft := state.Draft()
	assert.Equal(t, "https://l.example.com/abc", draft.WebsiteURL)
	assert.Equal(t, "utm_source=tracker", draft.UTMParams)
	assert.Equal(t, "Tracked Campaign", draft.TrackingCampaignName)

	// Second lookup for the same tracking id must not overwrite.
	state.ApplyTrackingDetails(tracking.CampaignDetails{
		CampaignID: "trk-1",
		LanderURL:  "https://l.example.com/changed",
	})
	assert.Equal(t, "https://l.example.com/abc", state.Draft().WebsiteURL)
}

func TestApplyTrackingDetailsSkipsAfterManualEdit(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{TrackingCampaignID: str("trk-1")})
	state.Update(DraftPartial{WebsiteURL: str("https://manual.example.com")})

	state.ApplyTrackingDetails(tracking.CampaignDetails{
		CampaignID: "trk-1",
		LanderURL:  "https://l.example.com/abc",
	})

	assert.Equal(t, "https://manual.example.com", state.Draft().WebsiteURL)
}

func TestApplyTrackingDetailsRearmsOnNewTrackingCampaign(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{TrackingCampaignID: str("trk-1")})
	state.ApplyTrackingDetails(tracking.CampaignDetails{CampaignID: "trk-1", LanderURL: "https://l.example.com/one"})

	state.Update(DraftPartial{TrackingCampaignID: str("trk-2")})
	state.ApplyTrackingDetails(tracking.CampaignDetails{CampaignID: "trk-2", LanderURL: "https://l.example.com/two"})

	assert.Equal(t, "https://l.example.com/two", state.Draft().WebsiteURL)
}

func TestApplyTrackingDetailsIgnoresMismatchedCampaign(t *testing.T) {
	state := NewDraftState("campaign-1")
	state.Update(DraftPartial{TrackingCampaignID: str("trk-1")})

	state.ApplyTrackingDetails(tracking.CampaignDetails{CampaignID: "trk-other", LanderURL: "https://l.example.com/abc"})

	assert.Empty(t, state.Draft().WebsiteURL)
}

func TestResolveLinkVariableSubstitutesAllCopyArrays(t *testing.T) {
	state := NewDraftState("campaign-1")
	primary := []string{"Check out {{link}} now"}
	headlines := []string{"Visit {{link}}"}
	descriptions := []string{"No placeholder here"}
	state.Update(DraftPartial{
		PrimaryTexts: &primary,
		Headlines:    &headlines,
		Descriptions: &descriptions,
	})

	state.ResolveLinkVariable("https://l.example.com/abc")

	draft := state.Draft()
	assert.Equal(t, "Check out https://l.example.com/abc now", draft.PrimaryTexts[0])
	assert.Equal(t, "Visit https://l.example.com/abc", draft.Headlines[0])
	assert.Equal(t, "No placeholder here", draft.Descriptions[0])
	assert.Equal(t, "https://l.example.com/abc", draft.LinkVariable)
}

func TestDraftFieldsRoundTrip(t *testing.T) {
	original := readyDraft()
	fields, err := original.ToDraftFields()
	assert.Nil(t, err)

	state := NewDraftState(original.CampaignID)
	err = state.InitFromFields(fields)
	assert.Nil(t, err)

	assert.Equal(t, original, state.Draft())
}
