package dental

import (
	"net/url"
	"regexp"
	"strings"
)

var driveFilePath = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)

// NormalizeImageURL turns Google Drive share links into direct-view links.
// Other URLs are returned unchanged.
func NormalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "drive.google.com") {
		return raw
	}
	if m := driveFilePath.FindStringSubmatch(raw); m != nil {
		return "https://drive.google.com/uc?export=view&id=" + m[1]
	}
	if u, err := url.Parse(raw); err == nil && strings.HasPrefix(u.Path, "/open") {
		if id := u.Query().Get("id"); id != "" {
			return "https://drive.google.com/uc?export=view&id=" + id
		}
	}
	return raw
}

// IsValidImageURL requires an absolute http(s) URL.
func IsValidImageURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
