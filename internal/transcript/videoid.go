package transcript

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNotYouTube      = errors.New("not a YouTube video URL")
	ErrNoCaptions      = errors.New("video has no caption tracks")
	ErrEmptyTranscript = errors.New("caption track is empty")
	ErrNoPlayerData    = errors.New("player response not found in watch page")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoID extracts the 11 character id from a watch, short-link, shorts,
// embed or live URL. A bare id is accepted as is.
func VideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrNotYouTube
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && isPathKind(segments[0]):
			id = segments[1]
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", ErrNotYouTube
	}
	return id, nil
}

func isPathKind(s string) bool {
	switch s {
	case "shorts", "embed", "live", "v":
		return true
	}
	return false
}
