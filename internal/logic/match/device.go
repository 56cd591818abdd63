package match

import (
	"strconv"
	"strings"

	"github.com/adlytic/addecision/internal/models"
)

// Device scores device compatibility between an ad's device target and the
// user's actual device. Type, browser and OS compare by case-insensitive
// equality. Screen size compares the ad's required "WxH" against the user's
// screen: both requested dimensions must fit. A malformed size string on
// either side fails that sub-check only.
func Device(target, user *models.DeviceCriteria) models.DimensionResult {
	if target == nil || user == nil {
		return neutral("no device targeting or no user device")
	}

	details := make(map[string]string)
	var sum float64
	checks := 0

	if target.Type != "" && user.Type != "" {
		checks++
		if strings.EqualFold(target.Type, user.Type) {
			sum++
			details["type"] = "match"
		} else {
			details["type"] = "mismatch"
		}
	}
	if target.Browser != "" && user.Browser != "" {
		checks++
		if strings.EqualFold(target.Browser, user.Browser) {
			sum++
			details["browser"] = "match"
		} else {
			details["browser"] = "mismatch"
		}
	}
	if target.OS != "" && user.OS != "" {
		checks++
		if strings.EqualFold(target.OS, user.OS) {
			sum++
			details["os"] = "match"
		} else {
			details["os"] = "mismatch"
		}
	}
	if target.ScreenSize != "" && user.ScreenSize != "" {
		checks++
		if screenFits(target.ScreenSize, user.ScreenSize) {
			sum++
			details["screen_size"] = "compatible"
		} else {
			details["screen_size"] = "incompatible"
		}
	}

	if checks == 0 {
		return neutral("no comparable device fields")
	}

	score := sum / float64(checks)
	return models.DimensionResult{
		Matches: score >= defaultThreshold,
		Score:   score,
		Details: details,
	}
}

// screenFits reports whether the requested WxH fits within the user's screen.
// Malformed strings are incompatible rather than an error.
func screenFits(requested, actual string) bool {
	reqW, reqH, ok := parseScreenSize(requested)
	if !ok {
		return false
	}
	actW, actH, ok := parseScreenSize(actual)
	if !ok {
		return false
	}
	return reqW <= actW && reqH <= actH
}

func parseScreenSize(s string) (w, h int, ok bool) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
