package launch

import (
	"log"
	"time"

	dal "github.com/adlaunch-core/v2/dal"
	tables "github.com/adlaunch-core/v2/dal/tables/v1"
)

// toSnapshot freezes a terminal LaunchState into its persisted record.
func toSnapshot(state LaunchState) (tables.LaunchSnapshot, error) {
	items := make([]tables.MediaItemRecord, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, tables.MediaItemRecord{
			MediaID:      item.MediaID,
			Name:         item.Name,
			Kind:         item.Kind,
			Phase:        item.Phase,
			Progress:     item.Progress,
			AssetID:      item.AssetID,
			ErrorMessage: item.ErrorMessage,
		})
	}

	launchedAt := state.StartedAtEpochMilli
	if launchedAt == 0 {
		launchedAt = time.Now().UnixMilli()
	}

	snapshot := tables.LaunchSnapshot{
		LaunchID:             state.LaunchID,
		CampaignID:           state.CampaignID,
		Phase:                state.Phase,
		LaunchedAtEpochMilli: launchedAt,
		PlatformCampaignID:   state.PlatformCampaignID,
		ReadyCount:           state.ReadyCount,
		FailedCount:          state.FailedCount,
		AdSuccessCount:       len(state.AdIDs),
		AdFailureCount:       state.AdFailureCount,
		ElapsedMilli:         state.ElapsedMilli,
		LastError:            state.LastError,
	}
	err := snapshot.SetAdIDs(state.AdIDs)
	if err != nil {
		return snapshot, err
	}
	err = snapshot.SetMediaItems(items)
	return snapshot, err
}

// writeSnapshot persists the terminal record and fans out the outcome
// notification. The launch already succeeded or failed on the platform;
// persistence errors are logged, never propagated back into the state.
func writeSnapshot(deps Deps, state LaunchState) {
	snapshot, err := toSnapshot(state)
	if err != nil {
		log.Printf("correlationID: %s error building launch snapshot: %s", state.LaunchID, err)
		return
	}

	err = deps.Snapshots.WriteSnapshot(snapshot)
	if err != nil {
		log.Printf("correlationID: %s error persisting launch snapshot: %s", state.LaunchID, err)
	}

	if deps.Notifier != nil {
		err = deps.Notifier.NotifyLaunchOutcome(snapshot)
		if err != nil {
			log.Printf("correlationID: %s error publishing launch outcome: %s", state.LaunchID, err)
		}
	}
}

// DynamoSnapshotSink persists snapshots through the launch snapshot DAO.
type DynamoSnapshotSink struct{}

func (DynamoSnapshotSink) WriteSnapshot(item tables.LaunchSnapshot) error {
	return dal.WriteLaunchSnapshot(item)
}
