package launch

import (
	"context"
	"log"
	"sync"
	"time"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
)

// runUploadStage pushes every queued creative into the platform media
// library. Items run concurrently under a bounded worker pool; one item's
// failure never aborts the rest.
func (m *Machine) runUploadStage(ctx context.Context) {
	pending := m.pendingUploads()
	if len(pending) == 0 {
		return
	}

	concurrency := m.deps.Config.UploadConcurrencyCap
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, item := range pending {
		wg.Add(1)
		go func(it MediaItemState) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			m.uploadOne(ctx, it)
		}(item)
	}
	wg.Wait()
}

func (m *Machine) pendingUploads() []MediaItemState {
	state := m.State()
	result := []MediaItemState{}
	for _, item := range state.Items {
		if item.Phase == tables.MEDIA_QUEUED {
			result = append(result, item)
		}
	}
	return result
}

func (m *Machine) uploadOne(ctx context.Context, item MediaItemState) {
	if ctx.Err() != nil {
		return
	}
	launchId := m.State().LaunchID

	m.dispatch(Event{
		Kind:         EVENT_MEDIA_PROGRESS,
		MediaID:      item.MediaID,
		MediaPhase:   tables.MEDIA_UPLOADING,
		Progress:     10,
		AtEpochMilli: time.Now().UnixMilli(),
	})

	fileUrl, err := m.deps.Media.FetchURL(ctx, item.StorageKey)
	if err != nil {
		log.Printf("correlationID: %s unable to resolve staged media %s: %s", launchId, item.MediaID, err)
		m.failMediaItem(item.MediaID, "staged media unavailable: "+err.Error())
		return
	}

	adAccountId := m.draft.AdAccountID
	switch item.Kind {
	case tables.MEDIA_IMAGE:
		assetId, err := m.deps.Platform.UploadImage(ctx, adAccountId, item.Name, fileUrl)
		if err != nil {
			log.Printf("correlationID: %s image upload failed %s: %s", launchId, item.MediaID, err)
			m.failMediaItem(item.MediaID, err.Error())
			return
		}
		// Images have no asynchronous processing step.
		m.dispatch(Event{
			Kind:         EVENT_MEDIA_PROGRESS,
			MediaID:      item.MediaID,
			MediaPhase:   tables.MEDIA_READY,
			Progress:     100,
			AssetID:      assetId,
			AtEpochMilli: time.Now().UnixMilli(),
		})
	default:
		assetId, err := m.deps.Platform.UploadVideo(ctx, adAccountId, item.Name, fileUrl)
		if err != nil {
			log.Printf("correlationID: %s video upload failed %s: %s", launchId, item.MediaID, err)
			m.failMediaItem(item.MediaID, err.Error())
			return
		}
		m.dispatch(Event{
			Kind:         EVENT_MEDIA_PROGRESS,
			MediaID:      item.MediaID,
			MediaPhase:   tables.MEDIA_UPLOADED,
			Progress:     100,
			AssetID:      assetId,
			AtEpochMilli: time.Now().UnixMilli(),
		})
	}
}

func (m *Machine) failMediaItem(mediaId string, message string) {
	m.dispatch(Event{
		Kind:         EVENT_MEDIA_PROGRESS,
		MediaID:      mediaId,
		MediaPhase:   tables.MEDIA_FAILED,
		ErrorMessage: message,
		AtEpochMilli: time.Now().UnixMilli(),
	})
}
