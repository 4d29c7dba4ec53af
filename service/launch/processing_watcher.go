package launch

import (
	"context"
	"log"
	"time"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	platform "github.com/adlaunch-core/v2/service/platform"
)

// watchProcessing polls the platform until every uploaded video finishes
// transcoding. Polling stops when all tracked items are terminal, the run is
// cancelled, or the processing deadline passes; items still pending at the
// deadline fail with a timeout error instead of polling forever.
func (m *Machine) watchProcessing(ctx context.Context) {
	launchId := m.State().LaunchID

	tracked := m.uploadedVideos()
	for _, item := range tracked {
		m.dispatch(Event{
			Kind:         EVENT_MEDIA_PROGRESS,
			MediaID:      item.MediaID,
			MediaPhase:   tables.MEDIA_PROCESSING,
			AtEpochMilli: time.Now().UnixMilli(),
		})
	}
	if len(tracked) == 0 {
		return
	}

	deadline := time.Now().Add(m.deps.Config.ProcessingTimeout)
	ticker := time.NewTicker(m.deps.Config.ProcessingPollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		remaining := m.processingItems()
		if len(remaining) == 0 {
			return
		}

		for _, item := range remaining {
			status, err := m.deps.Platform.GetVideoStatus(ctx, item.AssetID)
			if err != nil {
				// Transient lookup failure; the next tick retries.
				log.Printf("correlationID: %s status poll failed for %s: %s", launchId, item.MediaID, err)
				continue
			}
			switch status {
			case platform.MEDIA_STATUS_READY:
				m.dispatch(Event{
					Kind:         EVENT_MEDIA_PROGRESS,
					MediaID:      item.MediaID,
					MediaPhase:   tables.MEDIA_READY,
					Progress:     100,
					AtEpochMilli: time.Now().UnixMilli(),
				})
			case platform.MEDIA_STATUS_FAILED:
				m.failMediaItem(item.MediaID, "platform processing failed")
			}
		}

		if len(m.processingItems()) == 0 {
			return
		}

		if time.Now().After(deadline) {
			for _, item := range m.processingItems() {
				log.Printf("correlationID: %s processing deadline exceeded for %s", launchId, item.MediaID)
				m.failMediaItem(item.MediaID, "timed out waiting for platform processing")
			}
			return
		}
	}
}

func (m *Machine) uploadedVideos() []MediaItemState {
	state := m.State()
	result := []MediaItemState{}
	for _, item := range state.Items {
		if item.Kind == tables.MEDIA_VIDEO && item.Phase == tables.MEDIA_UPLOADED {
			result = append(result, item)
		}
	}
	return result
}

func (m *Machine) processingItems() []MediaItemState {
	state := m.State()
	result := []MediaItemState{}
	for _, item := range state.Items {
		if item.Phase == tables.MEDIA_PROCESSING {
			result = append(result, item)
		}
	}
	return result
}
