package transcript

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
)

// timedText accepts both caption formats served by the timedtext endpoint:
// the legacy <transcript><text> list and format 3 <timedtext><body><p>.
type timedText struct {
	Texts []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			Text     string `xml:",chardata"`
			Segments []struct {
				Text string `xml:",chardata"`
			} `xml:"s"`
		} `xml:"p"`
	} `xml:"body"`
}

// parseTimedText flattens a caption document into one line of text
func parseTimedText(data []byte) (string, error) {
	var doc timedText
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return "", fmt.Errorf("parse captions: %w", err)
	}

	var fragments []string
	for _, t := range doc.Texts {
		fragments = append(fragments, t.Text)
	}
	for _, p := range doc.Body.Paragraphs {
		if len(p.Segments) == 0 {
			fragments = append(fragments, p.Text)
			continue
		}
		for _, s := range p.Segments {
			fragments = append(fragments, s.Text)
		}
	}

	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		// fragments arrive entity-escaped a second time
		f = strings.Join(strings.Fields(html.UnescapeString(f)), " ")
		if f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptyTranscript
	}
	return strings.Join(parts, " "), nil
}
