package launch

import (
	"strings"

	"bitbucket.org/creachadair/stringset"
)

const (
	GROUP_ASSETS         = "Assets"
	GROUP_INFRASTRUCTURE = "Infrastructure"
	GROUP_DELIVERY       = "Delivery"
	GROUP_SYSTEM         = "System"
)

type ValidationCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

type ValidationGroup struct {
	Name      string            `json:"name"`
	Checks    []ValidationCheck `json:"checks"`
	AllPassed bool              `json:"allPassed"`
}

type ValidationResult struct {
	Groups        []ValidationGroup `json:"groups"`
	AllChecksPass bool              `json:"allChecksPass"`

	// Resolved selections for the preview pane.
	SelectedVideos []SelectableMedia `json:"selectedVideos"`
	SelectedImages []SelectableMedia `json:"selectedImages"`
}

// Video review statuses usable in a launch.
var launchableVideoStatuses = stringset.New("review", "available")

// Validate computes the readiness groups gating the launch action. Pure
// function of its inputs; safe to call on every state change.
func Validate(draft LaunchDraft, selectedVideoIds stringset.Set, selectedImageIds stringset.Set,
	availableVideos []SelectableMedia, availableImages []SelectableMedia) ValidationResult {

	selectedVideos := filterSelected(availableVideos, selectedVideoIds)
	selectedImages := filterSelected(availableImages, selectedImageIds)

	assets := buildGroup(GROUP_ASSETS, []ValidationCheck{
		{Name: "Ad preset selected", Passed: len(draft.AdPresetID) > 0},
		{Name: "Link placeholders resolved", Passed: !hasLinkPlaceholder(draft)},
		{Name: "At least one creative selected", Passed: len(selectedVideos)+len(selectedImages) > 0},
		{Name: "Selected videos ready for launch", Passed: allVideosLaunchable(selectedVideos)},
	})
	infrastructure := buildGroup(GROUP_INFRASTRUCTURE, []ValidationCheck{
		{Name: "Ad account selected", Passed: len(draft.AdAccountID) > 0},
		{Name: "Page selected", Passed: len(draft.PageID) > 0},
		{Name: "Pixel selected", Passed: len(draft.PixelID) > 0},
	})
	delivery := buildGroup(GROUP_DELIVERY, []ValidationCheck{
		{Name: "Budget set", Passed: draft.DailyBudgetCents > 0},
		{Name: "Start date set", Passed: draft.StartAtEpochMilli > 0},
		{Name: "Geo target set", Passed: len(draft.GeoTarget) > 0},
	})
	system := buildGroup(GROUP_SYSTEM, []ValidationCheck{
		{Name: "Campaign name set", Passed: len(strings.TrimSpace(draft.CampaignName)) > 0},
	})

	groups := []ValidationGroup{assets, infrastructure, delivery, system}
	allPass := true
	for _, g := range groups {
		if !g.AllPassed {
			allPass = false
		}
	}

	return ValidationResult{
		Groups:         groups,
		AllChecksPass:  allPass,
		SelectedVideos: selectedVideos,
		SelectedImages: selectedImages,
	}
}

func buildGroup(name string, checks []ValidationCheck) ValidationGroup {
	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
		}
	}
	return ValidationGroup{Name: name, Checks: checks, AllPassed: allPassed}
}

func hasLinkPlaceholder(draft LaunchDraft) bool {
	for _, entries := range [][]string{draft.PrimaryTexts, draft.Headlines, draft.Descriptions} {
		for _, entry := range entries {
			if strings.Contains(entry, linkPlaceholder) {
				return true
			}
		}
	}
	return false
}

// Images carry no review status and are always launchable.
func allVideosLaunchable(selected []SelectableMedia) bool {
	for _, v := range selected {
		if !launchableVideoStatuses.Contains(strings.ToLower(v.Status)) {
			return false
		}
	}
	return true
}

func filterSelected(pool []SelectableMedia, selectedIds stringset.Set) []SelectableMedia {
	result := []SelectableMedia{}
	for _, m := range pool {
		if selectedIds.Contains(m.MediaID) {
			result = append(result, m)
		}
	}
	return result
}
