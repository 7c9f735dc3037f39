// Package youtube extracts video identifiers from the URL shapes YouTube
// hands out (watch?v=, youtu.be/, embed/, /v/).
package youtube

import (
	"fmt"
	"regexp"
)

// A canonical YouTube video id is always 11 characters.
const idLength = 11

var urlPattern = regexp.MustCompile(`^.*((youtu\.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)

// ExtractVideoID pulls the video id out of rawURL. It fails when the URL
// does not look like any known YouTube shape or when the candidate id is not
// exactly 11 characters, and in that case nothing should be mutated.
func ExtractVideoID(rawURL string) (string, error) {
	match := urlPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", fmt.Errorf("no youtube video found in %q", rawURL)
	}
	id := match[7]
	if len(id) != idLength {
		return "", fmt.Errorf("no youtube video found in %q", rawURL)
	}
	return id, nil
}
