package launch

import (
	"context"
	"log"
	"math/rand"
	"sync"

	"bitbucket.org/creachadair/stringset"
	"golang.org/x/text/cases"

	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	models "github.com/adlaunch-core/v2/service/models"
	platform "github.com/adlaunch-core/v2/service/platform"
)

// SelectableMedia is one creative from the product's asset pool.
type SelectableMedia struct {
	MediaID    string
	Name       string
	Kind       tables.MediaKind
	Status     string // Video review status; images carry no status.
	StorageKey string
	InLibrary  bool
	AssetID    string
}

// SelectionState tracks which creatives the user picked for the session.
type SelectionState struct {
	mu             sync.Mutex
	videos         []SelectableMedia
	images         []SelectableMedia
	selectedVideos stringset.Set
	selectedImages stringset.Set
	rng            *rand.Rand
}

func NewSelectionState(videos []SelectableMedia, images []SelectableMedia, seed int64) *SelectionState {
	return &SelectionState{
		videos:         append([]SelectableMedia{}, videos...),
		images:         append([]SelectableMedia{}, images...),
		selectedVideos: stringset.New(),
		selectedImages: stringset.New(),
		rng:            rand.New(rand.NewSource(seed)),
	}
}

func (s *SelectionState) Toggle(kind tables.MediaKind, mediaId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.setFor(kind)
	if set.Contains(mediaId) {
		set.Discard(mediaId)
		return
	}
	if s.poolContains(kind, mediaId) {
		set.Add(mediaId)
	}
}

// SelectRandomVideos picks n distinct videos at random, capped at the size
// of the available pool.
func (s *SelectionState) SelectRandomVideos(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.videos) {
		for _, v := range s.videos {
			s.selectedVideos.Add(v.MediaID)
		}
		return
	}
	perm := s.rng.Perm(len(s.videos))
	s.selectedVideos = stringset.New()
	for _, idx := range perm[:n] {
		s.selectedVideos.Add(s.videos[idx].MediaID)
	}
}

func (s *SelectionState) UnselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedVideos = stringset.New()
	s.selectedImages = stringset.New()
}

func (s *SelectionState) SelectedVideoIDs() stringset.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedVideos.Clone()
}

func (s *SelectionState) SelectedImageIDs() stringset.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedImages.Clone()
}

func (s *SelectionState) AvailableVideos() []SelectableMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SelectableMedia{}, s.videos...)
}

func (s *SelectionState) AvailableImages() []SelectableMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SelectableMedia{}, s.images...)
}

func (s *SelectionState) setFor(kind tables.MediaKind) *stringset.Set {
	if kind == tables.MEDIA_VIDEO {
		return &s.selectedVideos
	}
	return &s.selectedImages
}

func (s *SelectionState) poolContains(kind tables.MediaKind, mediaId string) bool {
	pool := s.images
	if kind == tables.MEDIA_VIDEO {
		pool = s.videos
	}
	for _, m := range pool {
		if m.MediaID == mediaId {
			return true
		}
	}
	return false
}

// CheckLibrary marks creatives that already exist in the platform media
// library so the upload stage skips them. Matching is by case-folded name;
// a user-triggered pre-launch step, distinct from the upload itself.
func CheckLibrary(ctx context.Context, api PlatformAPI, adAccountId string,
	videos []SelectableMedia, images []SelectableMedia) ([]SelectableMedia, []SelectableMedia, error) {
	libraryVideos, err := api.ListLibraryVideos(ctx, adAccountId)
	if err != nil {
		log.Printf("error listing library videos during check: %s", err)
		return videos, images, err
	}
	libraryImages, err := api.ListLibraryImages(ctx, adAccountId)
	if err != nil {
		log.Printf("error listing library images during check: %s", err)
		return videos, images, err
	}

	videos = markInLibrary(videos, libraryVideos)
	images = markInLibrary(images, libraryImages)
	return videos, images, nil
}

func markInLibrary(pool []SelectableMedia, library []platform.LibraryAsset) []SelectableMedia {
	folder := cases.Fold()
	byName := make(map[string]string, len(library))
	for _, asset := range library {
		byName[folder.String(asset.Name)] = asset.AssetID
	}

	result := append([]SelectableMedia{}, pool...)
	for i, m := range result {
		assetId, ok := byName[folder.String(m.Name)]
		if ok {
			result[i].InLibrary = true
			result[i].AssetID = assetId
		}
	}
	return result
}

func SelectableFromModels(selections []models.MediaSelection, kind tables.MediaKind) []SelectableMedia {
	result := make([]SelectableMedia, 0, len(selections))
	for _, m := range selections {
		result = append(result, SelectableMedia{
			MediaID:    m.MediaID,
			Name:       m.Name,
			Kind:       kind,
			Status:     m.Status,
			StorageKey: m.StorageKey,
			InLibrary:  m.InLibrary,
			AssetID:    m.AssetID,
		})
	}
	return result
}

func SelectableToModels(pool []SelectableMedia) []models.MediaSelection {
	result := make([]models.MediaSelection, 0, len(pool))
	for _, m := range pool {
		result = append(result, models.MediaSelection{
			MediaID:    m.MediaID,
			Name:       m.Name,
			Kind:       string(m.Kind),
			Status:     m.Status,
			StorageKey: m.StorageKey,
			InLibrary:  m.InLibrary,
			AssetID:    m.AssetID,
		})
	}
	return result
}
