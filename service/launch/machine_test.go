package launch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	platform "github.com/adlaunch-core/v2/service/platform"
)

type fakePlatform struct {
	mu sync.Mutex

	uploadVideoErr    map[string]error // keyed by media name
	statusHold        bool             // keep every video in processing
	videoStatus       map[string]platform.MediaStatus
	createCampaignErr error
	createCreativeErr error
	createAdErr       error
	listLibraryErr    error
	libraryVideos     []platform.LibraryAsset
	libraryImages     []platform.LibraryAsset

	uploadedVideos   []string
	uploadedImages   []string
	campaignCalls    int
	adSetCalls       int
	creativeAssetIds []string
	createdAds       []string
	pausedCampaigns  []string
}

func (f *fakePlatform) UploadVideo(ctx context.Context, adAccountId string, name string, fileUrl string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadVideoErr[name]; err != nil {
		return "", err
	}
	f.uploadedVideos = append(f.uploadedVideos, name)
	return "asset-" + name, nil
}

func (f *fakePlatform) UploadImage(ctx context.Context, adAccountId string, name string, fileUrl string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadedImages = append(f.uploadedImages, name)
	return "hash-" + name, nil
}

func (f *fakePlatform) GetVideoStatus(ctx context.Context, videoId string) (platform.MediaStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusHold {
		return platform.MEDIA_STATUS_PROCESSING, nil
	}
	status, ok := f.videoStatus[videoId]
	if ok {
		return status, nil
	}
	return platform.MEDIA_STATUS_READY, nil
}

func (f *fakePlatform) ListLibraryVideos(ctx context.Context, adAccountId string) ([]platform.LibraryAsset, error) {
	return f.libraryVideos, f.listLibraryErr
}

func (f *fakePlatform) ListLibraryImages(ctx context.Context, adAccountId string) ([]platform.LibraryAsset, error) {
	return f.libraryImages, f.listLibraryErr
}

func (f *fakePlatform) CreateCampaign(ctx context.Context, p platform.CampaignParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCampaignErr != nil {
		return "", f.createCampaignErr
	}
	f.campaignCalls++
	return "camp-1", nil
}

func (f *fakePlatform) CreateAdSet(ctx context.Context, p platform.AdSetParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adSetCalls++
	return "adset-1", nil
}

func (f *fakePlatform) CreateAdCreative(ctx context.Context, p platform.CreativeParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCreativeErr != nil {
		return "", f.createCreativeErr
	}
	assetId := p.VideoID
	if len(assetId) == 0 {
		assetId = p.ImageHash
	}
	f.creativeAssetIds = append(f.creativeAssetIds, assetId)
	return fmt.Sprintf("creative-%d", len(f.creativeAssetIds)), nil
}

func (f *fakePlatform) CreateAd(ctx context.Context, p platform.AdParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createAdErr != nil {
		return "", f.createAdErr
	}
	adId := fmt.Sprintf("ad-%d", len(f.createdAds)+1)
	f.createdAds = append(f.createdAds, adId)
	return adId, nil
}

func (f *fakePlatform) PauseCampaign(ctx context.Context, campaignId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pausedCampaigns = append(f.pausedCampaigns, campaignId)
	return nil
}

func (f *fakePlatform) pausedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pausedCampaigns)
}

type fakeMedia struct {
	fetchErr map[string]error // keyed by storage key
}

func (f *fakeMedia) FetchURL(ctx context.Context, storageKey string) (string, error) {
	if err := f.fetchErr[storageKey]; err != nil {
		return "", err
	}
	return "https://media.test/" + storageKey, nil
}

type fakeSink struct {
	mu        sync.Mutex
	snapshots []tables.LaunchSnapshot
}

func (s *fakeSink) WriteSnapshot(item tables.LaunchSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, item)
	return nil
}

func (s *fakeSink) all() []tables.LaunchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tables.LaunchSnapshot{}, s.snapshots...)
}

func testDeps(api *fakePlatform, sink *fakeSink) Deps {
	return Deps{
		Platform:  api,
		Media:     &fakeMedia{},
		Snapshots: sink,
		Config: PipelineConfig{
			UploadConcurrencyCap:  2,
			ProcessingPollPeriod:  5 * time.Millisecond,
			ProcessingTimeout:     500 * time.Millisecond,
			MinimumAdSuccessCount: 1,
		},
	}
}

func selectedVideo(id string, name string) SelectableMedia {
	return SelectableMedia{MediaID: id, Name: name, Kind: tables.MEDIA_VIDEO, Status: "available", StorageKey: "staged/" + name}
}

func selectedImage(id string, name string) SelectableMedia {
	return SelectableMedia{MediaID: id, Name: name, Kind: tables.MEDIA_IMAGE, StorageKey: "staged/" + name}
}

func TestRunCompletesWithVideoAndImage(t *testing.T) {
	api := &fakePlatform{}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedVideo("vid-1", "clip-1.mp4"),
		selectedImage("img-1", "banner-1.png"),
	}, testDeps(api, sink))

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_COMPLETE, state.Phase)
	assert.Equal(t, 2, state.ReadyCount)
	assert.Equal(t, 0, state.FailedCount)
	assert.Len(t, state.AdIDs, 2)
	assert.Equal(t, 1, api.campaignCalls)
	assert.Equal(t, 1, api.adSetCalls)

	snapshots := sink.all()
	assert.Len(t, snapshots, 1)
	assert.Equal(t, tables.PHASE_COMPLETE, snapshots[0].Phase)
	assert.Equal(t, 2, snapshots[0].AdSuccessCount)
	adIds, err := snapshots[0].GetAdIDs()
	assert.Nil(t, err)
	assert.Len(t, adIds, 2)
	items, err := snapshots[0].GetMediaItems()
	assert.Nil(t, err)
	assert.Len(t, items, 2)
}

func TestRunProceedsPastSingleUploadFailure(t *testing.T) {
	api := &fakePlatform{uploadVideoErr: map[string]error{
		"broken.mp4": errors.New("upload rejected"),
	}}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedVideo("vid-1", "clip-1.mp4"),
		selectedVideo("vid-2", "broken.mp4"),
		selectedVideo("vid-3", "clip-3.mp4"),
	}, testDeps(api, sink))

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_COMPLETE, state.Phase)
	assert.Equal(t, 2, state.ReadyCount)
	assert.Equal(t, 1, state.FailedCount)
	assert.Len(t, state.AdIDs, 2)
	assert.Equal(t, tables.MEDIA_FAILED, state.Items["vid-2"].Phase)
	assert.Equal(t, "upload rejected", state.Items["vid-2"].ErrorMessage)
	// The failed creative never reaches ad creation.
	assert.NotContains(t, api.creativeAssetIds, "asset-broken.mp4")
}

func TestRunFailsWhenNoCreativesReady(t *testing.T) {
	api := &fakePlatform{uploadVideoErr: map[string]error{
		"clip-1.mp4": errors.New("upload rejected"),
	}}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedVideo("vid-1", "clip-1.mp4"),
	}, testDeps(api, sink))

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_FAILED, state.Phase)
	assert.Equal(t, "no creatives available for ad creation", state.LastError)
	assert.Equal(t, 0, api.campaignCalls)

	snapshots := sink.all()
	assert.Len(t, snapshots, 1)
	assert.Equal(t, tables.PHASE_FAILED, snapshots[0].Phase)
}

func TestRunFailsWhenCampaignCreationFails(t *testing.T) {
	api := &fakePlatform{createCampaignErr: errors.New("invalid ad account")}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedImage("img-1", "banner-1.png"),
	}, testDeps(api, sink))

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_FAILED, state.Phase)
	assert.Contains(t, state.LastError, "invalid ad account")
	assert.Empty(t, state.AdIDs)
}

func TestRunFailsBelowAdSuccessThreshold(t *testing.T) {
	api := &fakePlatform{createCreativeErr: errors.New("creative rejected")}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedImage("img-1", "banner-1.png"),
		selectedImage("img-2", "banner-2.png"),
	}, testDeps(api, sink))

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_FAILED, state.Phase)
	assert.Equal(t, 2, state.AdFailureCount)
	assert.Empty(t, state.AdIDs)

	snapshots := sink.all()
	assert.Len(t, snapshots, 1)
	assert.Equal(t, tables.PHASE_FAILED, snapshots[0].Phase)
	assert.Equal(t, 2, snapshots[0].AdFailureCount)
}

func TestStopDuringProcessingFreezesLaunch(t *testing.T) {
	api := &fakePlatform{statusHold: true}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedVideo("vid-1", "clip-1.mp4"),
	}, testDeps(api, sink))

	go machine.Run(context.Background())
	waitForPhase(t, machine, tables.PHASE_PROCESSING)

	machine.Stop()
	<-machine.Done()

	state := machine.State()
	assert.Equal(t, tables.PHASE_STOPPED, state.Phase)
	assert.Equal(t, 0, api.campaignCalls)
	assert.Empty(t, state.AdIDs)

	snapshots := sink.all()
	assert.Len(t, snapshots, 1)
	assert.Equal(t, tables.PHASE_STOPPED, snapshots[0].Phase)
}

func TestStopAfterCampaignCreatedPausesIt(t *testing.T) {
	api := &fakePlatform{}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedImage("img-1", "banner-1.png"),
	}, testDeps(api, sink))
	machine.dispatch(Event{Kind: EVENT_CAMPAIGN_CREATED, EntityID: "camp-1", AtEpochMilli: time.Now().UnixMilli()})

	machine.Stop()

	assert.Equal(t, tables.PHASE_STOPPED, machine.State().Phase)
	deadline := time.Now().Add(2 * time.Second)
	for api.pausedCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"camp-1"}, api.pausedCampaigns)
}

func TestStopIsIdempotentOnTerminalLaunch(t *testing.T) {
	api := &fakePlatform{}
	sink := &fakeSink{}
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedImage("img-1", "banner-1.png"),
	}, testDeps(api, sink))

	machine.Run(context.Background())
	assert.Equal(t, tables.PHASE_COMPLETE, machine.State().Phase)

	machine.Stop()
	assert.Equal(t, tables.PHASE_COMPLETE, machine.State().Phase)
	assert.Equal(t, 0, api.pausedCount())
	assert.Len(t, sink.all(), 1)
}

func TestRunSkipsUploadForLibraryItems(t *testing.T) {
	api := &fakePlatform{}
	sink := &fakeSink{}
	inLibrary := selectedVideo("vid-1", "clip-1.mp4")
	inLibrary.InLibrary = true
	inLibrary.AssetID = "lib-asset-7"
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{inLibrary}, testDeps(api, sink))

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_COMPLETE, state.Phase)
	assert.Empty(t, api.uploadedVideos)
	assert.Equal(t, []string{"lib-asset-7"}, api.creativeAssetIds)
}

func TestRunFailsMediaOnProcessingTimeout(t *testing.T) {
	api := &fakePlatform{statusHold: true}
	sink := &fakeSink{}
	deps := testDeps(api, sink)
	deps.Config.ProcessingTimeout = 20 * time.Millisecond
	machine := NewMachine("launch-1", readyDraft(), []SelectableMedia{
		selectedVideo("vid-1", "clip-1.mp4"),
	}, deps)

	machine.Run(context.Background())

	state := machine.State()
	assert.Equal(t, tables.PHASE_FAILED, state.Phase)
	assert.Equal(t, tables.MEDIA_FAILED, state.Items["vid-1"].Phase)
	assert.Contains(t, state.Items["vid-1"].ErrorMessage, "timed out")
}

func waitForPhase(t *testing.T, machine *Machine, phase tables.LaunchPhase) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if machine.State().Phase == phase {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("launch never reached phase %s, currently %s", phase, machine.State().Phase)
}
