package launch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	configuration "github.com/adlaunch-core/v2/configuration"
)

// R2MediaSource resolves staged creatives out of the R2 media bucket. The
// platform fetches uploads by URL, so staged objects are handed over as
// short-lived presigned GETs rather than streamed through this service.
type R2MediaSource struct {
	bucket string
	svc    *s3.S3
	expiry time.Duration
}

func NewR2MediaSource(cfg *configuration.EnvConfigVals) *R2MediaSource {
	return &R2MediaSource{
		bucket: cfg.MediaBucketName,
		svc:    s3.New(configuration.GetMediaBucketSession()),
		expiry: time.Duration(cfg.MediaFetchURLExpiryMin) * time.Minute,
	}
}

func (s *R2MediaSource) FetchURL(ctx context.Context, storageKey string) (string, error) {
	exists, err := s.mediaExists(ctx, storageKey)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("staged media missing from bucket: %s", storageKey)
	}

	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	urlStr, err := req.Presign(s.expiry)
	if err != nil {
		log.Printf("error presigning staged media %s: %s", storageKey, err)
		return "", err
	}
	return urlStr, nil
}

func (s *R2MediaSource) mediaExists(ctx context.Context, storageKey string) (bool, error) {
	_, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})

	if aerr, ok := err.(awserr.Error); ok {
		if aerr.Code() == "NotFound" {
			log.Printf("storage key missing from media bucket: %s", storageKey)
			return false, nil
		}
	}
	if err != nil {
		log.Printf("error checking %s media existence: %s", storageKey, err)
		return false, err
	}

	return true, nil
}
