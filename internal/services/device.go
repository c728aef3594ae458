package services

import (
	"strings"

	"github.com/mileusna/useragent"
)

// ExtractDeviceInfo parses a User-Agent header into a friendly device
// description for audit logging on signup and login events.
//
// Returns a formatted string like "Chrome 120 · Windows 11 · Desktop" or
// "Unknown Device" if the User-Agent is empty.
//
// Example:
//
//	deviceInfo := services.ExtractDeviceInfo(r.UserAgent())
//	// Returns: "Chrome 120.0 · Windows 11 · Desktop"
//	// Or: "Safari 17.0 · iOS 17.1 · Mobile"
func ExtractDeviceInfo(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.Parse(userAgent)

	// Build friendly device string
	var parts []string

	// Browser
	if ua.Name != "" {
		browser := ua.Name
		if ua.Version != "" {
			browser += " " + ua.Version
		}
		parts = append(parts, browser)
	}

	// Operating System
	if ua.OS != "" {
		os := ua.OS
		if ua.OSVersion != "" {
			os += " " + ua.OSVersion
		}
		parts = append(parts, os)
	}

	// Device type
	if ua.Mobile {
		parts = append(parts, "Mobile")
	} else if ua.Tablet {
		parts = append(parts, "Tablet")
	} else if ua.Desktop {
		parts = append(parts, "Desktop")
	}

	info := strings.Join(parts, " · ")
	if len(parts) == 0 {
		// Fallback to the raw user agent
		info = userAgent
	}

	// Garbage user agents can parse into absurdly long names; cap what
	// reaches the audit log either way.
	if len(info) > 100 {
		return info[:100] + "..."
	}
	return info
}
