// internal/pkg/fingerprint/ua.go
package fingerprint

import (
	"strings"

	"sentinel-service/internal/domain/session"
)

// parseUserAgent pulls browser, OS and device class out of a User-Agent
// value. It is deliberately coarse: the descriptor feeds a "new device?"
// heuristic, not an identity check. Desktop is the fallback class.
func parseUserAgent(ua string) session.Device {
	dev := session.Device{Class: session.DeviceDesktop}
	if ua == "" {
		return dev
	}

	dev.Class = deviceClass(ua)
	dev.BrowserName, dev.BrowserVersion = browserInfo(ua)
	dev.OSName, dev.OSVersion = osInfo(ua)

	return dev
}

func deviceClass(ua string) string {
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "smart-tv"), strings.Contains(lower, "smarttv"),
		strings.Contains(lower, "appletv"), strings.Contains(lower, "googletv"):
		return session.DeviceTV
	case strings.Contains(lower, "watch"):
		return session.DeviceWearable
	case strings.Contains(lower, "ipad"), strings.Contains(lower, "tablet"):
		return session.DeviceTablet
	case strings.Contains(lower, "mobile"), strings.Contains(lower, "iphone"),
		strings.Contains(lower, "android"):
		return session.DeviceMobile
	case strings.Contains(lower, "curl"), strings.Contains(lower, "wget"),
		strings.Contains(lower, "embedded"):
		return session.DeviceEmbedded
	default:
		return session.DeviceDesktop
	}
}

func browserInfo(ua string) (string, string) {
	// Order matters: Chrome UAs also contain "Safari", Edge UAs contain both.
	for _, probe := range []struct {
		marker string
		name   string
	}{
		{"Edg/", "Edge"},
		{"OPR/", "Opera"},
		{"Firefox/", "Firefox"},
		{"Chrome/", "Chrome"},
	} {
		if v := versionAfter(ua, probe.marker); v != "" {
			return probe.name, v
		}
	}

	if strings.Contains(ua, "Safari/") {
		return "Safari", versionAfter(ua, "Version/")
	}

	return "", ""
}

func osInfo(ua string) (string, string) {
	switch {
	case strings.Contains(ua, "Windows NT"):
		return "Windows", tokenAfter(ua, "Windows NT ")
	case strings.Contains(ua, "iPhone OS"):
		return "iOS", strings.ReplaceAll(tokenAfter(ua, "iPhone OS "), "_", ".")
	case strings.Contains(ua, "Mac OS X"):
		return "macOS", strings.ReplaceAll(tokenAfter(ua, "Mac OS X "), "_", ".")
	case strings.Contains(ua, "Android"):
		return "Android", tokenAfter(ua, "Android ")
	case strings.Contains(ua, "Linux"):
		return "Linux", ""
	default:
		return "", ""
	}
}

// versionAfter returns the version number following "Name/" markers.
func versionAfter(ua, marker string) string {
	idx := strings.Index(ua, marker)
	if idx < 0 {
		return ""
	}
	rest := ua[idx+len(marker):]
	end := strings.IndexAny(rest, " ;)")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// tokenAfter returns the token following a "Name " marker, stopping at the
// usual UA delimiters.
func tokenAfter(ua, marker string) string {
	idx := strings.Index(ua, marker)
	if idx < 0 {
		return ""
	}
	rest := ua[idx+len(marker):]
	end := strings.IndexAny(rest, " ;)")
	if end < 0 {
		return rest
	}
	return rest[:end]
}
