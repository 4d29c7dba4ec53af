package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
)

func stateWithItems() LaunchState {
	return LaunchState{
		LaunchID:   "launch-1",
		CampaignID: "campaign-1",
		Phase:      tables.PHASE_IDLE,
		Items: map[string]MediaItemState{
			"vid-1": {MediaID: "vid-1", Kind: tables.MEDIA_VIDEO, Phase: tables.MEDIA_QUEUED},
			"img-1": {MediaID: "img-1", Kind: tables.MEDIA_IMAGE, Phase: tables.MEDIA_QUEUED},
		},
	}
}

func TestApplyTerminalPhaseFreezesAggregate(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_STOPPED, AtEpochMilli: 100})

	after := Apply(s, Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_CREATING_CAMPAIGN, AtEpochMilli: 200})
	assert.Equal(t, tables.PHASE_STOPPED, after.Phase)

	after = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_READY, AtEpochMilli: 200})
	assert.Equal(t, tables.MEDIA_QUEUED, after.Items["vid-1"].Phase)
}

func TestApplyMediaPhaseMonotonic(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_READY, Progress: 100})

	// A stale uploading report must not regress the item.
	after := Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_UPLOADING, Progress: 10})
	assert.Equal(t, tables.MEDIA_READY, after.Items["vid-1"].Phase)
	assert.Equal(t, 100, after.Items["vid-1"].Progress)
}

func TestApplyTerminalMediaItemNeverMoves(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_FAILED, ErrorMessage: "upload failed"})

	after := Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_READY, Progress: 100})
	assert.Equal(t, tables.MEDIA_FAILED, after.Items["vid-1"].Phase)
	assert.Equal(t, "upload failed", after.Items["vid-1"].ErrorMessage)
}

func TestApplyProgressOnlyIncreases(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_UPLOADING, Progress: 60})

	after := Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_UPLOADING, Progress: 30})
	assert.Equal(t, 60, after.Items["vid-1"].Progress)
}

func TestApplyRecomputesCounts(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_PROCESSING})
	assert.Equal(t, 1, s.ProcessingCount)

	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_READY, Progress: 100})
	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "img-1", MediaPhase: tables.MEDIA_FAILED, ErrorMessage: "bad file"})

	assert.Equal(t, 0, s.ProcessingCount)
	assert.Equal(t, 1, s.ReadyCount)
	assert.Equal(t, 1, s.FailedCount)
	assert.Equal(t, "bad file", s.LastError)
}

func TestApplyIsPure(t *testing.T) {
	before := stateWithItems()
	before.AdIDs = []string{"ad-1"}

	after := Apply(before, Event{Kind: EVENT_AD_CREATED, EntityID: "ad-2"})

	assert.Equal(t, []string{"ad-1"}, before.AdIDs)
	assert.Equal(t, tables.MEDIA_QUEUED, before.Items["vid-1"].Phase)
	assert.Equal(t, []string{"ad-1", "ad-2"}, after.AdIDs)
}

func TestApplyUnknownMediaIgnored(t *testing.T) {
	s := stateWithItems()
	after := Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "ghost", MediaPhase: tables.MEDIA_READY})
	assert.Equal(t, s, after)
}

func TestApplyTracksElapsedFromUploadStart(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_UPLOADING, AtEpochMilli: 1000})
	assert.Equal(t, int64(1000), s.StartedAtEpochMilli)

	s = Apply(s, Event{Kind: EVENT_MEDIA_PROGRESS, MediaID: "vid-1", MediaPhase: tables.MEDIA_UPLOADING, AtEpochMilli: 4500})
	assert.Equal(t, int64(3500), s.ElapsedMilli)

	// A second uploading transition must not reset the start time.
	s = Apply(s, Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_UPLOADING, AtEpochMilli: 9000})
	assert.Equal(t, int64(1000), s.StartedAtEpochMilli)
}

func TestApplyEntityEvents(t *testing.T) {
	s := stateWithItems()
	s = Apply(s, Event{Kind: EVENT_CAMPAIGN_CREATED, EntityID: "23845"})
	s = Apply(s, Event{Kind: EVENT_ADSET_CREATED, EntityID: "23846"})
	s = Apply(s, Event{Kind: EVENT_AD_FAILED, ErrorMessage: "creative rejected"})

	assert.Equal(t, "23845", s.PlatformCampaignID)
	assert.Equal(t, "23846", s.PlatformAdSetID)
	assert.Equal(t, 1, s.AdFailureCount)
	assert.Equal(t, "creative rejected", s.LastError)
}
