package launch

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	configuration "github.com/adlaunch-core/v2/configuration"
	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	models "github.com/adlaunch-core/v2/service/models"
	platform "github.com/adlaunch-core/v2/service/platform"
)

// In-flight launch runs, keyed by launch id. Status and stop requests from
// the HTTP surface resolve through here.
type runRegistry struct {
	mu   sync.Mutex
	runs map[string]*Machine
}

var registry = &runRegistry{runs: make(map[string]*Machine)}

var depsOnce sync.Once
var defaultDepsInst Deps

func defaultDeps() Deps {
	depsOnce.Do(func() {
		cfg := configuration.GetEnvConfigs()
		defaultDepsInst = Deps{
			Platform:  platform.NewGraphClient(cfg, os.Getenv("PLATFORM_ACCESS_TOKEN"), os.Getenv("PLATFORM_APP_SECRET")),
			Media:     NewR2MediaSource(cfg),
			Snapshots: DynamoSnapshotSink{},
			Notifier:  SNSLaunchNotifier{},
			Config:    PipelineConfigFromEnv(cfg),
		}
	})
	return defaultDepsInst
}

// PlatformClient exposes the shared platform client for request-path
// library checks.
func PlatformClient() PlatformAPI {
	return defaultDeps().Platform
}

// StartFromQueueMessage builds a machine for the queued launch and runs it
// on its own goroutine. Duplicate deliveries of the same launch id are
// dropped; the snapshot write-once condition covers the crash-redelivery
// window.
func StartFromQueueMessage(message models.LaunchQueueMessage) (*Machine, error) {
	draft := DraftFromPayload(message.Request.Draft)
	selected := append(
		SelectableFromModels(message.Request.SelectedVideos, tables.MEDIA_VIDEO),
		SelectableFromModels(message.Request.SelectedImages, tables.MEDIA_IMAGE)...,
	)
	if len(selected) == 0 {
		return nil, fmt.Errorf("correlationID: %s launch request has no selected creatives", message.LaunchID)
	}

	machine := NewMachine(message.LaunchID, draft, selected, defaultDeps())

	registry.mu.Lock()
	_, exists := registry.runs[message.LaunchID]
	if exists {
		registry.mu.Unlock()
		log.Printf("correlationID: %s launch already running, ignoring duplicate", message.LaunchID)
		return nil, nil
	}
	registry.runs[message.LaunchID] = machine
	registry.mu.Unlock()

	go machine.Run(context.Background())
	return machine, nil
}

func GetRun(launchId string) (*Machine, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	machine, ok := registry.runs[launchId]
	return machine, ok
}

func StopRun(launchId string) bool {
	machine, ok := GetRun(launchId)
	if !ok {
		return false
	}
	machine.Stop()
	return true
}
