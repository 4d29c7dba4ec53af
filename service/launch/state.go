package launch

import (
	tables "github.com/adlaunch-core/v2/dal/tables/v1"
)

// MediaItemState is the per-creative execution record for one launch attempt.
type MediaItemState struct {
	MediaID      string            `json:"mediaId"`
	Name         string            `json:"name"`
	Kind         tables.MediaKind  `json:"kind"`
	Phase        tables.MediaPhase `json:"phase"`
	Progress     int               `json:"progress"`
	AssetID      string            `json:"assetId"`
	StorageKey   string            `json:"-"`
	ErrorMessage string            `json:"errorMessage"`
}

// LaunchState is the single source of truth for one launch attempt. It is
// only ever mutated through Apply; once the phase is terminal the aggregate
// is frozen and further events are ignored.
type LaunchState struct {
	LaunchID            string                    `json:"launchId"`
	CampaignID          string                    `json:"campaignId"`
	Phase               tables.LaunchPhase        `json:"phase"`
	Items               map[string]MediaItemState `json:"items"`
	ProcessingCount     int                       `json:"processingCount"`
	ReadyCount          int                       `json:"readyCount"`
	FailedCount         int                       `json:"failedCount"`
	PlatformCampaignID  string                    `json:"platformCampaignId"`
	PlatformAdSetID     string                    `json:"platformAdSetId"`
	AdIDs               []string                  `json:"adIds"`
	AdFailureCount      int                       `json:"adFailureCount"`
	LastError           string                    `json:"lastError"`
	StartedAtEpochMilli int64                     `json:"startedAtEpochMilli"`
	ElapsedMilli        int64                     `json:"elapsedMilli"`
}

type EventKind string

const (
	EVENT_LAUNCH_PHASE     EventKind = "LAUNCH_PHASE"
	EVENT_MEDIA_PROGRESS   EventKind = "MEDIA_PROGRESS"
	EVENT_CAMPAIGN_CREATED EventKind = "CAMPAIGN_CREATED"
	EVENT_ADSET_CREATED    EventKind = "ADSET_CREATED"
	EVENT_AD_CREATED       EventKind = "AD_CREATED"
	EVENT_AD_FAILED        EventKind = "AD_FAILED"
	EVENT_LAUNCH_ERROR     EventKind = "LAUNCH_ERROR"
)

// Event is one observation reported into the launch aggregate. Stages only
// dispatch events; they never mutate LaunchState directly.
type Event struct {
	Kind         EventKind
	Phase        tables.LaunchPhase // EVENT_LAUNCH_PHASE
	MediaID      string             // Media-scoped events.
	MediaPhase   tables.MediaPhase
	Progress     int
	AssetID      string
	EntityID     string // Created platform entity id.
	ErrorMessage string
	AtEpochMilli int64
}

// Apply folds one event into the state and returns the new value. Pure: the
// input state is never modified, the item map is copied before any change.
// Invariants enforced here rather than by callers:
//   - terminal launch phases freeze the aggregate
//   - media phases advance monotonically, terminal media items never move
func Apply(s LaunchState, e Event) LaunchState {
	if s.Phase.IsTerminal() {
		return s
	}

	next := s
	next.Items = copyItems(s.Items)
	next.AdIDs = append([]string{}, s.AdIDs...)

	switch e.Kind {
	case EVENT_LAUNCH_PHASE:
		next.Phase = e.Phase
		if e.Phase == tables.PHASE_UPLOADING && next.StartedAtEpochMilli == 0 {
			next.StartedAtEpochMilli = e.AtEpochMilli
		}
		if len(e.ErrorMessage) > 0 {
			next.LastError = e.ErrorMessage
		}
	case EVENT_MEDIA_PROGRESS:
		item, ok := next.Items[e.MediaID]
		if !ok {
			return s
		}
		if item.Phase.IsTerminal() || e.MediaPhase.Rank() < item.Phase.Rank() {
			return s
		}
		item.Phase = e.MediaPhase
		if e.Progress > item.Progress {
			item.Progress = e.Progress
		}
		if len(e.AssetID) > 0 {
			item.AssetID = e.AssetID
		}
		if len(e.ErrorMessage) > 0 {
			item.ErrorMessage = e.ErrorMessage
			next.LastError = e.ErrorMessage
		}
		next.Items[e.MediaID] = item
	case EVENT_CAMPAIGN_CREATED:
		next.PlatformCampaignID = e.EntityID
	case EVENT_ADSET_CREATED:
		next.PlatformAdSetID = e.EntityID
	case EVENT_AD_CREATED:
		next.AdIDs = append(next.AdIDs, e.EntityID)
	case EVENT_AD_FAILED:
		next.AdFailureCount++
		if len(e.ErrorMessage) > 0 {
			next.LastError = e.ErrorMessage
		}
	case EVENT_LAUNCH_ERROR:
		next.LastError = e.ErrorMessage
	}

	next.ProcessingCount, next.ReadyCount, next.FailedCount = countItems(next.Items)
	if e.AtEpochMilli > 0 && next.StartedAtEpochMilli > 0 && e.AtEpochMilli >= next.StartedAtEpochMilli {
		next.ElapsedMilli = e.AtEpochMilli - next.StartedAtEpochMilli
	}
	return next
}

func countItems(items map[string]MediaItemState) (processing int, ready int, failed int) {
	for _, item := range items {
		switch item.Phase {
		case tables.MEDIA_PROCESSING:
			processing++
		case tables.MEDIA_READY:
			ready++
		case tables.MEDIA_FAILED:
			failed++
		}
	}
	return processing, ready, failed
}

func copyItems(items map[string]MediaItemState) map[string]MediaItemState {
	result := make(map[string]MediaItemState, len(items))
	for k, v := range items {
		result[k] = v
	}
	return result
}
