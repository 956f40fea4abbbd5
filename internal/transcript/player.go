package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const playerMarker = "ytInitialPlayerResponse"

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// extractPlayerResponse finds the inline player JSON in a watch page
func extractPlayerResponse(page []byte) (*playerResponse, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	var found *playerResponse
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			if pr, ok := decodePlayerScript(n.FirstChild.Data); ok {
				found = pr
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil {
		return nil, ErrNoPlayerData
	}
	return found, nil
}

func decodePlayerScript(script string) (*playerResponse, bool) {
	i := strings.Index(script, playerMarker)
	if i < 0 {
		return nil, false
	}
	j := strings.IndexByte(script[i:], '{')
	if j < 0 {
		return nil, false
	}

	// the decoder stops after one value, ignoring the trailing ";var ..."
	var pr playerResponse
	if err := json.NewDecoder(strings.NewReader(script[i+j:])).Decode(&pr); err != nil {
		return nil, false
	}
	return &pr, true
}

// pickTrack prefers a manual track in lang, then an auto-generated one, then
// whatever comes first.
func pickTrack(tracks []captionTrack, lang string) captionTrack {
	var auto *captionTrack
	for i, t := range tracks {
		if !strings.EqualFold(t.LanguageCode, lang) {
			continue
		}
		if t.Kind != "asr" {
			return t
		}
		if auto == nil {
			auto = &tracks[i]
		}
	}
	if auto != nil {
		return *auto
	}
	return tracks[0]
}
