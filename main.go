package main

import (
	"log"
	"net/http"

	config "github.com/adlaunch-core/v2/configuration"
	dynamo_configuration "github.com/adlaunch-core/v2/configuration/dynamo"
	handlers "github.com/adlaunch-core/v2/handlers"
	launch "github.com/adlaunch-core/v2/service/launch"
)

const route_health = "/health"

// Launch pipeline surface
const route_launch_validate = "/v1/launch/validate"
const route_launch_library_check = "/v1/launch/library/check"
const route_launch_start = "/v1/launch/start"
const route_launch_stop = "/v1/launch/stop"
const route_launch_status = "/v1/launch/status"
const route_launch_snapshot = "/v1/launch/snapshot"
const route_launch_tracking = "/v1/launch/tracking"
const route_launch_history = "/v1/launch/history"
const route_launch_draft = "/v1/launch/draft"

func main() {
	http.HandleFunc(route_health, handlers.HandlerHealthCheck)
	http.HandleFunc(route_launch_validate, handlers.HandlerValidateLaunch)
	http.HandleFunc(route_launch_library_check, handlers.HandlerLibraryCheck)
	http.HandleFunc(route_launch_start, handlers.HandlerStartLaunch)
	http.HandleFunc(route_launch_stop, handlers.HandlerStopLaunch)
	http.HandleFunc(route_launch_status, handlers.HandlerLaunchStatus)
	http.HandleFunc(route_launch_snapshot, handlers.HandlerLaunchSnapshot)
	http.HandleFunc(route_launch_tracking, handlers.HandlerTrackingCampaignDetails)
	http.HandleFunc(route_launch_history, handlers.HandlerLaunchHistory)
	http.HandleFunc(route_launch_draft, handlers.HandlerGetDraft)

	config.GetEnvConfigs()
	dynamo_configuration.Init()
	go launch.PollForLaunchRequests()
	log.Fatal(http.ListenAndServe(":8080", nil))
}
