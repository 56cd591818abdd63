package logic

import (
	"net"
	"strings"

	"github.com/avct/uasurfer"

	"github.com/adlytic/addecision/internal/geoip"
	"github.com/adlytic/addecision/internal/models"
)

// ResolveDeviceFromUA parses a raw User-Agent string into device criteria
// using the uasurfer library. The second return reports whether the agent is
// a known bot or crawler.
func ResolveDeviceFromUA(uaString string) (*models.DeviceCriteria, bool) {
	u := uasurfer.Parse(uaString)

	var deviceType string
	switch u.DeviceType {
	case uasurfer.DeviceComputer:
		deviceType = "desktop"
	case uasurfer.DevicePhone:
		deviceType = "mobile"
	case uasurfer.DeviceTablet:
		deviceType = "tablet"
	case uasurfer.DeviceTV:
		deviceType = "tv"
	default:
		deviceType = "other"
	}

	return &models.DeviceCriteria{
		Type:    deviceType,
		OS:      osName(u.OS.Name),
		Browser: browserName(u.Browser.Name),
	}, u.IsBot()
}

// EnrichUserContext fills device and geo fields the caller left empty from
// the raw User-Agent and IP address. Fields the caller supplied explicitly
// are never overwritten; first-party context beats derived context.
func EnrichUserContext(g *geoip.GeoIP, user *models.UserContext, uaString, ipString string) {
	if user == nil {
		return
	}
	if user.Device == nil && uaString != "" {
		if device, isBot := ResolveDeviceFromUA(uaString); !isBot {
			user.Device = device
		}
	}
	if user.Geo == nil && g != nil {
		if ip := net.ParseIP(strings.TrimSpace(ipString)); ip != nil {
			geo := &models.GeoCriteria{
				Country: g.Country(ip),
				Region:  g.Region(ip),
				City:    g.City(ip),
			}
			if geo.Country != "" || geo.Region != "" || geo.City != "" {
				user.Geo = geo
			}
		}
	}
}

func osName(name uasurfer.OSName) string {
	switch name {
	case uasurfer.OSWindows:
		return "Windows"
	case uasurfer.OSMacOSX:
		return "macOS"
	case uasurfer.OSiOS:
		return "iOS"
	case uasurfer.OSAndroid:
		return "Android"
	case uasurfer.OSLinux:
		return "Linux"
	case uasurfer.OSChromeOS:
		return "ChromeOS"
	default:
		return "other"
	}
}

func browserName(name uasurfer.BrowserName) string {
	switch name {
	case uasurfer.BrowserChrome:
		return "Chrome"
	case uasurfer.BrowserSafari:
		return "Safari"
	case uasurfer.BrowserFirefox:
		return "Firefox"
	case uasurfer.BrowserIE:
		return "IE"
	case uasurfer.BrowserOpera:
		return "Opera"
	default:
		return "other"
	}
}
