package platform

import (
	"context"
	"fmt"
	"log"
	"net/url"
)

type MediaStatus string

const (
	MEDIA_STATUS_READY      MediaStatus = "ready"
	MEDIA_STATUS_PROCESSING MediaStatus = "processing"
	MEDIA_STATUS_FAILED     MediaStatus = "error"
)

// An asset already present in the ad account's media library.
type LibraryAsset struct {
	AssetID string
	Name    string
}

type idResponse struct {
	ID string `json:"id"`
}

// UploadVideo registers a video with the account media library by handing the
// platform a fetchable source URL. Returns the platform video id; encoding
// continues asynchronously after this call returns.
func (c *GraphClient) UploadVideo(ctx context.Context, adAccountId string, name string, fileUrl string) (string, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("file_url", fileUrl)

	result := idResponse{}
	err := c.postForm(ctx, fmt.Sprintf("act_%s/advideos", adAccountId), params, &result)
	if err != nil {
		log.Printf("error uploading video %s: %s", name, err)
		return "", err
	}
	return result.ID, nil
}

type imageUploadResponse struct {
	Images map[string]struct {
		Hash string `json:"hash"`
	} `json:"images"`
}

// UploadImage registers an image and returns its library hash. Images have no
// asynchronous processing step; the returned hash is immediately usable.
func (c *GraphClient) UploadImage(ctx context.Context, adAccountId string, name string, fileUrl string) (string, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("url", fileUrl)

	result := imageUploadResponse{}
	err := c.postForm(ctx, fmt.Sprintf("act_%s/adimages", adAccountId), params, &result)
	if err != nil {
		log.Printf("error uploading image %s: %s", name, err)
		return "", err
	}
	for _, img := range result.Images {
		return img.Hash, nil
	}
	return "", fmt.Errorf("image upload response missing hash for %s", name)
}

type videoStatusResponse struct {
	Status struct {
		VideoStatus string `json:"video_status"`
	} `json:"status"`
}

func (c *GraphClient) GetVideoStatus(ctx context.Context, videoId string) (MediaStatus, error) {
	params := url.Values{}
	params.Set("fields", "status")

	result := videoStatusResponse{}
	err := c.getForm(ctx, videoId, params, &result)
	if err != nil {
		log.Printf("error fetching video status %s: %s", videoId, err)
		return MEDIA_STATUS_PROCESSING, err
	}
	switch result.Status.VideoStatus {
	case "ready":
		return MEDIA_STATUS_READY, nil
	case "error":
		return MEDIA_STATUS_FAILED, nil
	}
	return MEDIA_STATUS_PROCESSING, nil
}

type videoListResponse struct {
	Data []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"data"`
}

func (c *GraphClient) ListLibraryVideos(ctx context.Context, adAccountId string) ([]LibraryAsset, error) {
	params := url.Values{}
	params.Set("fields", "id,title")

	result := videoListResponse{}
	err := c.getForm(ctx, fmt.Sprintf("act_%s/advideos", adAccountId), params, &result)
	if err != nil {
		log.Printf("error listing library videos for account %s: %s", adAccountId, err)
		return nil, err
	}
	assets := make([]LibraryAsset, 0, len(result.Data))
	for _, v := range result.Data {
		assets = append(assets, LibraryAsset{AssetID: v.ID, Name: v.Title})
	}
	return assets, nil
}

type imageListResponse struct {
	Data []struct {
		Hash string `json:"hash"`
		Name string `json:"name"`
	} `json:"data"`
}

func (c *GraphClient) ListLibraryImages(ctx context.Context, adAccountId string) ([]LibraryAsset, error) {
	params := url.Values{}
	params.Set("fields", "hash,name")

	result := imageListResponse{}
	err := c.getForm(ctx, fmt.Sprintf("act_%s/adimages", adAccountId), params, &result)
	if err != nil {
		log.Printf("error listing library images for account %s: %s", adAccountId, err)
		return nil, err
	}
	assets := make([]LibraryAsset, 0, len(result.Data))
	for _, v := range result.Data {
		assets = append(assets, LibraryAsset{AssetID: v.Hash, Name: v.Name})
	}
	return assets, nil
}
