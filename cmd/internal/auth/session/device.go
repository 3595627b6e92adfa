package session

import (
	"strings"

	"github.com/mssola/useragent"
)

// Device is the classified client of a session.
type Device struct {
	Browser         string
	OperatingSystem string
	DeviceType      string
}

const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceBot     = "Bot"
	unknownLabel  = "Unknown"
)

// DeviceClassifier turns a User-Agent header into display labels.
type DeviceClassifier interface {
	Classify(userAgent string) Device
}

// UserAgentClassifier implements DeviceClassifier with mssola/useragent.
type UserAgentClassifier struct{}

// Classify never fails; unrecognized parts are labeled "Unknown".
func (UserAgentClassifier) Classify(userAgent string) Device {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Device{Browser: unknownLabel, OperatingSystem: unknownLabel, DeviceType: unknownLabel}
	}

	ua := useragent.New(userAgent)

	browser := unknownLabel
	if name, version := ua.Browser(); name != "" {
		browser = strings.TrimSpace(name + " " + majorMinor(version))
	}

	os := unknownLabel
	if info := ua.OSInfo(); info.Name != "" {
		os = strings.TrimSpace(info.Name + " " + majorMinor(strings.ReplaceAll(info.Version, "_", ".")))
	}

	deviceType := DeviceDesktop
	switch {
	case ua.Bot():
		deviceType = DeviceBot
	case strings.Contains(userAgent, "iPad") || strings.Contains(userAgent, "Tablet"):
		deviceType = DeviceTablet
	case ua.Mobile():
		deviceType = DeviceMobile
	}

	return Device{Browser: browser, OperatingSystem: os, DeviceType: deviceType}
}

func majorMinor(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return parts[0]
}
