package configuration

import (
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

type EnvConfigVals struct {
	PlatformGraphEndpoint     string `yaml:"PlatformGraphEndpoint"`
	PlatformAPIVersion        string `yaml:"PlatformAPIVersion"`
	GraphRequestTimeoutSec    int    `yaml:"GraphRequestTimeoutSec"`
	GraphMaxRetries           int    `yaml:"GraphMaxRetries"`
	GraphRetryBaseDelaySec    int    `yaml:"GraphRetryBaseDelaySec"`
	TrackingAPIEndpoint       string `yaml:"TrackingAPIEndpoint"`
	UploadConcurrencyCap      int    `yaml:"UploadConcurrencyCap"`
	ProcessingPollPeriodMilli int64  `yaml:"ProcessingPollPeriodMilli"`
	ProcessingTimeoutSec      int64  `yaml:"ProcessingTimeoutSec"`
	MinimumAdSuccessCount     int    `yaml:"MinimumAdSuccessCount"`
	MediaBucketName           string `yaml:"MediaBucketName"`
	MediaBucketEndpoint       string `yaml:"MediaBucketEndpoint"`
	MediaFetchURLExpiryMin    int    `yaml:"MediaFetchURLExpiryMin"`
	LaunchQueueName           string `yaml:"LaunchQueueName"`
	PollVisibilityTimeoutSec  int64  `yaml:"PollVisibilityTimeoutSec"`
	PollWaitSec               int64  `yaml:"PollWaitSec"`
	PollPeriodMilli           int64  `yaml:"PollPeriodMilli"`
	MaxMessagesPerPoll        int64  `yaml:"MaxMessagesPerPoll"`
	MaxConsumers              int    `yaml:"MaxConsumers"`
	SNSLaunchTopic            string `yaml:"SNSLaunchTopic"`
}

var configSync sync.Once
var EnvConfigs *EnvConfigVals

func GetEnvConfigs() *EnvConfigVals {
	if EnvConfigs != nil {
		return EnvConfigs
	}
	configSync.Do(func() {
		var configFile []byte
		var err error
		if os.Getenv("env") == "" || os.Getenv("env") != "prod" {
			configFile, err = os.ReadFile("./configuration/env-dev.yml")
		} else {
			configFile, err = os.ReadFile("./configuration/env-prod.yml")
		}

		if err != nil {
			log.Fatalf("failed to load config file: %s", err)
		}

		var vals EnvConfigVals
		err = yaml.Unmarshal(configFile, &vals)
		if err != nil {
			log.Fatalf("failed to unmarshall config file values: %s", err)
		}
		EnvConfigs = &vals
	})
	return EnvConfigs
}
