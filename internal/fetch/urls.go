package fetch

import (
	"regexp"

	"github.com/tiktoksage/tiktok-sage/internal/model"
)

// Known TikTok video URL shapes. Short links redirect to the canonical
// /@user/video/ID form; the fetcher follows that redirect.
var (
	canonicalURLPattern = regexp.MustCompile(`^https?://(www\.)?tiktok\.com/@[\w.\-]+/video/\d+`)
	shortURLPattern     = regexp.MustCompile(`^https?://(vm|vt)\.tiktok\.com/[\w]+/?`)
)

// ValidateVideoURL checks that the input matches a known TikTok video URL
// shape. It runs before any network call; a mismatch is ErrInvalidURL.
func ValidateVideoURL(url string) error {
	if canonicalURLPattern.MatchString(url) || shortURLPattern.MatchString(url) {
		return nil
	}
	return model.ErrInvalidURL
}
