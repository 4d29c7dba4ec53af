package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"

	"bitbucket.org/creachadair/stringset"
	"github.com/google/uuid"

	configuration "github.com/adlaunch-core/v2/configuration"
	dal "github.com/adlaunch-core/v2/dal"
	tables "github.com/adlaunch-core/v2/dal/tables/v1"
	launch "github.com/adlaunch-core/v2/service/launch"
	requestModels "github.com/adlaunch-core/v2/service/models"
	tracking "github.com/adlaunch-core/v2/service/tracking"
)

var trackingOnce sync.Once
var trackingClient *tracking.Client

func getTrackingClient() *tracking.Client {
	trackingOnce.Do(func() {
		trackingClient = tracking.NewClient(configuration.GetEnvConfigs(), os.Getenv("TRACKING_API_KEY"))
	})
	return trackingClient
}

func HandlerHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Ok")
}

func HandlerValidateLaunch(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Route must be called with POST, given %s", r.Method)
		return
	}

	var payload requestModels.LaunchRequest
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, err.Error())
		return
	}

	result := validateRequest(payload)
	writeJson(w, http.StatusOK, result)
}

func HandlerLibraryCheck(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Route must be called with POST, given %s", r.Method)
		return
	}

	var payload requestModels.LibraryCheckRequest
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, err.Error())
		return
	}

	videos := launch.SelectableFromModels(payload.Videos, tables.MEDIA_VIDEO)
	images := launch.SelectableFromModels(payload.Images, tables.MEDIA_IMAGE)
	videos, images, err = launch.CheckLibrary(r.Context(), launch.PlatformClient(), payload.AdAccountID, videos, images)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, err.Error())
		return
	}

	writeJson(w, http.StatusOK, requestModels.LibraryCheckResponse{
		Videos: launch.SelectableToModels(videos),
		Images: launch.SelectableToModels(images),
	})
}

func HandlerStartLaunch(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Route must be called with POST, given %s", r.Method)
		return
	}

	var payload requestModels.LaunchRequest
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, err.Error())
		return
	}

	// Validation gates the launch action; an unready draft never enqueues.
	result := validateRequest(payload)
	if !result.AllChecksPass {
		writeJson(w, http.StatusUnprocessableEntity, result)
		return
	}

	launchId := uuid.New().String()
	draft := launch.DraftFromPayload(payload.Draft)
	fields, err := draft.ToDraftFields()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}
	err = dal.SaveCampaignDraftFields(fields)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}

	err = launch.EnqueueLaunchRequest(requestModels.LaunchQueueMessage{
		LaunchID: launchId,
		Request:  payload,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}

	log.Printf("correlationID: %s launch accepted for campaign %s", launchId, payload.Draft.CampaignID)
	writeJson(w, http.StatusAccepted, requestModels.StartLaunchResponse{LaunchID: launchId})
}

func HandlerStopLaunch(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}
	if r.Method != "POST" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Route must be called with POST, given %s", r.Method)
		return
	}

	var payload requestModels.StopLaunchRequest
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, err.Error())
		return
	}

	if !launch.StopRun(payload.LaunchID) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no running launch with id %s", payload.LaunchID)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Ok")
}

func HandlerLaunchStatus(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}

	launchId := r.URL.Query().Get("launchId")
	machine, ok := launch.GetRun(launchId)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no running launch with id %s", launchId)
		return
	}
	writeJson(w, http.StatusOK, machine.State())
}

func HandlerLaunchSnapshot(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}

	launchId := r.URL.Query().Get("launchId")
	snapshot, err := dal.GetLaunchSnapshot(launchId)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}
	if len(snapshot.LaunchID) == 0 {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no snapshot for launch id %s", launchId)
		return
	}
	writeJson(w, http.StatusOK, snapshot)
}

// HandlerGetDraft rehydrates the persisted draft for a campaign so a new
// setup session starts from the saved fields.
func HandlerGetDraft(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}

	campaignId := r.URL.Query().Get("campaignId")
	if len(campaignId) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "campaignId is required")
		return
	}

	fields, err := dal.GetCampaignDraftFields(campaignId)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}
	if len(fields.CampaignID) == 0 {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "no draft for campaign id %s", campaignId)
		return
	}

	state := launch.NewDraftState(campaignId)
	err = state.InitFromFields(fields)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}
	writeJson(w, http.StatusOK, launch.PayloadFromDraft(state.Draft()))
}

// HandlerLaunchHistory lists past launch attempts for a campaign, newest
// first.
func HandlerLaunchHistory(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}

	campaignId := r.URL.Query().Get("campaignId")
	if len(campaignId) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "campaignId is required")
		return
	}
	limit, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}

	snapshots, err := dal.ListLaunchSnapshotsByCampaign(campaignId, limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, err.Error())
		return
	}
	writeJson(w, http.StatusOK, snapshots)
}

// HandlerTrackingCampaignDetails looks up a linked tracking campaign so the
// setup UI can auto-populate the lander URL and tracking params.
func HandlerTrackingCampaignDetails(w http.ResponseWriter, r *http.Request) {
	if !isAuthorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Unauthorized.")
		return
	}

	trackingCampaignId := r.URL.Query().Get("trackingCampaignId")
	if len(trackingCampaignId) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "trackingCampaignId is required")
		return
	}

	details, err := getTrackingClient().GetCampaignDetails(r.Context(), trackingCampaignId)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, err.Error())
		return
	}
	writeJson(w, http.StatusOK, details)
}

func validateRequest(payload requestModels.LaunchRequest) launch.ValidationResult {
	draft := launch.DraftFromPayload(payload.Draft)
	videos := launch.SelectableFromModels(payload.SelectedVideos, tables.MEDIA_VIDEO)
	images := launch.SelectableFromModels(payload.SelectedImages, tables.MEDIA_IMAGE)

	videoIds := stringset.New()
	for _, v := range videos {
		videoIds.Add(v.MediaID)
	}
	imageIds := stringset.New()
	for _, img := range images {
		imageIds.Add(img.MediaID)
	}
	return launch.Validate(draft, videoIds, imageIds, videos, images)
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		log.Printf("error encoding response body: %s", err)
	}
}
