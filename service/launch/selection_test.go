package launch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	platform "github.com/adlaunch-core/v2/service/platform"
)

func videoPoolOf(n int) []SelectableMedia {
	result := make([]SelectableMedia, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, SelectableMedia{
			MediaID: string(rune('a'+i)) + "-video",
			Name:    "clip",
			Kind:    tables.MEDIA_VIDEO,
			Status:  "available",
		})
	}
	return result
}

func TestToggleSelectAndDeselect(t *testing.T) {
	state := NewSelectionState(videoPoolOf(3), nil, 1)

	state.Toggle(tables.MEDIA_VIDEO, "a-video")
	assert.True(t, state.SelectedVideoIDs().Contains("a-video"))

	state.Toggle(tables.MEDIA_VIDEO, "a-video")
	assert.False(t, state.SelectedVideoIDs().Contains("a-video"))
}

func TestToggleUnknownMediaIgnored(t *testing.T) {
	state := NewSelectionState(videoPoolOf(3), nil, 1)

	state.Toggle(tables.MEDIA_VIDEO, "not-in-pool")

	assert.True(t, state.SelectedVideoIDs().Empty())
}

func TestSelectRandomVideosCappedAtPoolSize(t *testing.T) {
	state := NewSelectionState(videoPoolOf(12), nil, 1)

	state.SelectRandomVideos(20)

	assert.Equal(t, 12, state.SelectedVideoIDs().Len())
}

func TestSelectRandomVideosPicksDistinct(t *testing.T) {
	state := NewSelectionState(videoPoolOf(12), nil, 42)

	state.SelectRandomVideos(5)

	selected := state.SelectedVideoIDs()
	assert.Equal(t, 5, selected.Len())
	for id := range selected {
		assert.True(t, state.poolContains(tables.MEDIA_VIDEO, id))
	}
}

func TestUnselectAllClearsBothKinds(t *testing.T) {
	images := []SelectableMedia{{MediaID: "img-1", Kind: tables.MEDIA_IMAGE}}
	state := NewSelectionState(videoPoolOf(3), images, 1)
	state.Toggle(tables.MEDIA_VIDEO, "a-video")
	state.Toggle(tables.MEDIA_IMAGE, "img-1")

	state.UnselectAll()

	assert.True(t, state.SelectedVideoIDs().Empty())
	assert.True(t, state.SelectedImageIDs().Empty())
}

func TestCheckLibraryMatchesByFoldedName(t *testing.T) {
	api := &fakePlatform{
		libraryVideos: []platform.LibraryAsset{{AssetID: "lib-vid-9", Name: "SPRING-PROMO.MP4"}},
		libraryImages: []platform.LibraryAsset{{AssetID: "lib-img-3", Name: "banner-1.png"}},
	}
	videos := []SelectableMedia{
		{MediaID: "vid-1", Name: "spring-promo.mp4", Kind: tables.MEDIA_VIDEO},
		{MediaID: "vid-2", Name: "unmatched.mp4", Kind: tables.MEDIA_VIDEO},
	}
	images := []SelectableMedia{
		{MediaID: "img-1", Name: "Banner-1.PNG", Kind: tables.MEDIA_IMAGE},
	}

	videos, images, err := CheckLibrary(context.Background(), api, "act-1", videos, images)

	assert.Nil(t, err)
	assert.True(t, videos[0].InLibrary)
	assert.Equal(t, "lib-vid-9", videos[0].AssetID)
	assert.False(t, videos[1].InLibrary)
	assert.True(t, images[0].InLibrary)
	assert.Equal(t, "lib-img-3", images[0].AssetID)
}

func TestCheckLibraryErrorLeavesPoolUnmarked(t *testing.T) {
	api := &fakePlatform{listLibraryErr: errors.New("platform unavailable")}
	videos := []SelectableMedia{{MediaID: "vid-1", Name: "clip.mp4", Kind: tables.MEDIA_VIDEO}}

	videos, _, err := CheckLibrary(context.Background(), api, "act-1", videos, nil)

	assert.NotNil(t, err)
	assert.False(t, videos[0].InLibrary)
}
