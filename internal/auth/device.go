package auth

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a short display label for
// the sessions list, e.g. "Chrome on Mac OS X" or "Safari on iPhone".
func ParseUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		os = ua.Platform()
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.Join(strings.Fields(fmt.Sprintf("%s on %s", browser, os)), " ")
}
