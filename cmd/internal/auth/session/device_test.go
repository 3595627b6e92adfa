package session

import (
	"strings"
	"testing"
)

func TestUserAgentClassifier(t *testing.T) {
	c := UserAgentClassifier{}

	cases := []struct {
		name       string
		ua         string
		browser    string
		deviceType string
	}{
		{
			name:       "desktop chrome",
			ua:         testUA,
			browser:    "Chrome",
			deviceType: DeviceDesktop,
		},
		{
			name:       "iphone safari",
			ua:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
			browser:    "Safari",
			deviceType: DeviceMobile,
		},
		{
			name:       "ipad",
			ua:         "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			browser:    "Safari",
			deviceType: DeviceTablet,
		},
		{
			name:       "firefox linux",
			ua:         "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			browser:    "Firefox",
			deviceType: DeviceDesktop,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := c.Classify(tc.ua)
			if !strings.HasPrefix(d.Browser, tc.browser) {
				t.Fatalf("browser: got %q want prefix %q", d.Browser, tc.browser)
			}
			if d.DeviceType != tc.deviceType {
				t.Fatalf("device type: got %q want %q", d.DeviceType, tc.deviceType)
			}
			if d.OperatingSystem == "" {
				t.Fatalf("operating system must be labeled")
			}
		})
	}
}

func TestUserAgentClassifier_Empty(t *testing.T) {
	d := UserAgentClassifier{}.Classify("  ")
	if d.Browser != "Unknown" || d.OperatingSystem != "Unknown" || d.DeviceType != "Unknown" {
		t.Fatalf("expected unknown labels, got %+v", d)
	}
}

func TestMajorMinor(t *testing.T) {
	for in, want := range map[string]string{
		"120.0.6099.71": "120.0",
		"17.2":          "17.2",
		"11":            "11",
		"":              "",
	} {
		if got := majorMinor(in); got != want {
			t.Fatalf("majorMinor(%q) = %q, want %q", in, got, want)
		}
	}
}
