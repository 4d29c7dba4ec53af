package launch

import (
	"context"
	"log"
	"sync"
	"time"

	configuration "github.com/adlaunch-core/v2/configuration"
	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	platform "github.com/adlaunch-core/v2/service/platform"
)

// PlatformAPI is the narrow ad-platform surface the pipeline depends on.
// Implemented by platform.GraphClient; faked in tests.
type PlatformAPI interface {
	UploadVideo(ctx context.Context, adAccountId string, name string, fileUrl string) (string, error)
	UploadImage(ctx context.Context, adAccountId string, name string, fileUrl string) (string, error)
	GetVideoStatus(ctx context.Context, videoId string) (platform.MediaStatus, error)
	ListLibraryVideos(ctx context.Context, adAccountId string) ([]platform.LibraryAsset, error)
	ListLibraryImages(ctx context.Context, adAccountId string) ([]platform.LibraryAsset, error)
	CreateCampaign(ctx context.Context, p platform.CampaignParams) (string, error)
	CreateAdSet(ctx context.Context, p platform.AdSetParams) (string, error)
	CreateAdCreative(ctx context.Context, p platform.CreativeParams) (string, error)
	CreateAd(ctx context.Context, p platform.AdParams) (string, error)
	PauseCampaign(ctx context.Context, campaignId string) error
}

// MediaSource resolves a staged creative into a URL the platform can fetch.
type MediaSource interface {
	FetchURL(ctx context.Context, storageKey string) (string, error)
}

type SnapshotSink interface {
	WriteSnapshot(item tables.LaunchSnapshot) error
}

type Notifier interface {
	NotifyLaunchOutcome(item tables.LaunchSnapshot) error
}

type PipelineConfig struct {
	UploadConcurrencyCap  int
	ProcessingPollPeriod  time.Duration
	ProcessingTimeout     time.Duration
	MinimumAdSuccessCount int
}

func PipelineConfigFromEnv(cfg *configuration.EnvConfigVals) PipelineConfig {
	return PipelineConfig{
		UploadConcurrencyCap:  cfg.UploadConcurrencyCap,
		ProcessingPollPeriod:  time.Duration(cfg.ProcessingPollPeriodMilli) * time.Millisecond,
		ProcessingTimeout:     time.Duration(cfg.ProcessingTimeoutSec) * time.Second,
		MinimumAdSuccessCount: cfg.MinimumAdSuccessCount,
	}
}

type Deps struct {
	Platform  PlatformAPI
	Media     MediaSource
	Snapshots SnapshotSink
	Notifier  Notifier
	Config    PipelineConfig
}

// Machine owns LaunchState for one attempt and drives it through the phase
// sequence. Stages report in via dispatch; the state itself is only written
// through the Apply reducer.
type Machine struct {
	mu     sync.Mutex
	state  LaunchState
	draft  LaunchDraft
	deps   Deps
	cancel context.CancelFunc

	snapshotOnce sync.Once
	done         chan struct{}
}

func NewMachine(launchId string, draft LaunchDraft, selected []SelectableMedia, deps Deps) *Machine {
	items := make(map[string]MediaItemState, len(selected))
	for _, m := range selected {
		item := MediaItemState{
			MediaID:    m.MediaID,
			Name:       m.Name,
			Kind:       m.Kind,
			Phase:      tables.MEDIA_QUEUED,
			StorageKey: m.StorageKey,
		}
		if m.InLibrary {
			// Already in the platform library; nothing to upload or process.
			item.Phase = tables.MEDIA_READY
			item.Progress = 100
			item.AssetID = m.AssetID
		}
		items[m.MediaID] = item
	}

	return &Machine{
		state: LaunchState{
			LaunchID:   launchId,
			CampaignID: draft.CampaignID,
			Phase:      tables.PHASE_IDLE,
			Items:      items,
		},
		draft: copyDraft(draft),
		deps:  deps,
		done:  make(chan struct{}),
	}
}

// Run executes the launch pipeline to a terminal phase. Blocking; callers
// start it on its own goroutine and observe progress via State.
func (m *Machine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()
	defer close(m.done)
	defer m.finish()

	launchId := m.state.LaunchID
	log.Printf("correlationID: %s launch pipeline starting", launchId)

	m.dispatch(Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_UPLOADING, AtEpochMilli: time.Now().UnixMilli()})
	m.runUploadStage(ctx)
	if m.halted(ctx) {
		return
	}

	m.dispatch(Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_PROCESSING, AtEpochMilli: time.Now().UnixMilli()})
	m.watchProcessing(ctx)
	if m.halted(ctx) {
		return
	}

	readyItems := m.readyItems()
	if len(readyItems) == 0 {
		log.Printf("correlationID: %s no creatives reached ready, failing launch", launchId)
		m.fail("no creatives available for ad creation")
		return
	}

	m.dispatch(Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_CREATING_CAMPAIGN, AtEpochMilli: time.Now().UnixMilli()})
	err := m.createCampaignShell(ctx)
	if err != nil {
		if m.halted(ctx) {
			return
		}
		log.Printf("correlationID: %s campaign creation failed: %s", launchId, err)
		m.fail(err.Error())
		return
	}

	m.dispatch(Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_CREATING_ADS, AtEpochMilli: time.Now().UnixMilli()})
	adSuccessCount := m.createAds(ctx, readyItems)
	if m.halted(ctx) {
		return
	}

	if adSuccessCount >= m.deps.Config.MinimumAdSuccessCount {
		m.dispatch(Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_COMPLETE, AtEpochMilli: time.Now().UnixMilli()})
		log.Printf("correlationID: %s launch complete with %d ads", launchId, adSuccessCount)
	} else {
		log.Printf("correlationID: %s only %d ads created, below threshold %d",
			launchId, adSuccessCount, m.deps.Config.MinimumAdSuccessCount)
		m.fail("ad creation below minimum success threshold")
	}
}

// Stop cancels the launch. The aggregate freezes at STOPPED immediately; no
// phase transition can follow. An already-created campaign is left paused,
// never deleted.
func (m *Machine) Stop() {
	m.mu.Lock()
	if m.state.Phase.IsTerminal() {
		m.mu.Unlock()
		return
	}
	m.state = Apply(m.state, Event{Kind: EVENT_LAUNCH_PHASE, Phase: tables.PHASE_STOPPED, AtEpochMilli: time.Now().UnixMilli()})
	campaignId := m.state.PlatformCampaignID
	cancel := m.cancel
	launchId := m.state.LaunchID
	m.mu.Unlock()

	log.Printf("correlationID: %s launch stopped by user", launchId)
	if cancel != nil {
		cancel()
	}
	if len(campaignId) > 0 {
		go func() {
			pauseCtx, pauseCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer pauseCancel()
			err := m.deps.Platform.PauseCampaign(pauseCtx, campaignId)
			if err != nil {
				log.Printf("correlationID: %s unable to pause campaign after stop: %s", launchId, err)
			}
		}()
	}
}

// State returns the current aggregate. Item maps produced by Apply are never
// mutated in place, so the returned value is safe to read concurrently.
func (m *Machine) State() LaunchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done closes once the pipeline goroutine has finished, snapshot included.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

func (m *Machine) dispatch(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Apply(m.state, e)
}

func (m *Machine) fail(message string) {
	m.dispatch(Event{
		Kind:         EVENT_LAUNCH_PHASE,
		Phase:        tables.PHASE_FAILED,
		ErrorMessage: message,
		AtEpochMilli: time.Now().UnixMilli(),
	})
}

func (m *Machine) halted(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Phase.IsTerminal()
}

func (m *Machine) readyItems() []MediaItemState {
	state := m.State()
	result := []MediaItemState{}
	for _, item := range state.Items {
		if item.Phase == tables.MEDIA_READY {
			result = append(result, item)
		}
	}
	return result
}

// finish persists the terminal snapshot exactly once, regardless of which
// path ended the run. Snapshot failure is logged and does not alter the
// launch's terminal state.
func (m *Machine) finish() {
	m.snapshotOnce.Do(func() {
		state := m.State()
		if !state.Phase.IsTerminal() {
			// Snapshots only exist for terminal phases.
			return
		}
		writeSnapshot(m.deps, state)
	})
}
