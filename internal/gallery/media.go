// Package gallery turns sheet rows into display units and renders them.
package gallery

import (
	"strings"
)

// MediaKind is how a product's media is previewed.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var videoExtensions = []string{".mp4", ".webm", ".mov", ".avi", ".mkv"}

// IsVideo reports whether url ends in a known video extension, ignoring case.
// Only the suffix is inspected: a mislabelled file is classified by its name.
func IsVideo(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Classify returns MediaVideo for video URLs and MediaImage for everything else.
func Classify(url string) MediaKind {
	if IsVideo(url) {
		return MediaVideo
	}
	return MediaImage
}
