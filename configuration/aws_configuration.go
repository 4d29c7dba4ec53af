package configuration

import (
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

var sessInst *session.Session
var once sync.Once

var mediaSessInst *session.Session
var mediaOnce sync.Once

func GetAwsSession() *session.Session {
	if sessInst != nil {
		return sessInst
	}
	once.Do(func() {
		creds := credentials.NewStaticCredentials(os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"), "")
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(os.Getenv("AWS_REGION")),
			Credentials: creds,
		})
		if err != nil {
			panic(err)
		}
		sessInst = sess
	})

	return sessInst
}

// Session against the R2 media bucket. R2 speaks the S3 API but needs its
// own endpoint, path-style addressing, and the "auto" region.
func GetMediaBucketSession() *session.Session {
	if mediaSessInst != nil {
		return mediaSessInst
	}
	mediaOnce.Do(func() {
		creds := credentials.NewStaticCredentials(os.Getenv("R2_ACCESS_KEY_ID"), os.Getenv("R2_SECRET_ACCESS_KEY"), "")
		sess, err := session.NewSession(&aws.Config{
			Region:           aws.String("auto"),
			Endpoint:         aws.String(GetEnvConfigs().MediaBucketEndpoint),
			S3ForcePathStyle: aws.Bool(true),
			Credentials:      creds,
		})
		if err != nil {
			panic(err)
		}
		mediaSessInst = sess
	})

	return mediaSessInst
}
