package model

import (
	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
)

// PayloadType is the discriminator of a normalized request
type PayloadType string

const (
	PayloadText  PayloadType = "text"
	PayloadURL   PayloadType = "url"
	PayloadImage PayloadType = "image"
	PayloadFile  PayloadType = "file"
)

// Payload is the normalized request sent to the narrative service.
// Exactly one content field is set, matching Type.
type Payload struct {
	Type  PayloadType `json:"type"`
	Text  string      `json:"text,omitempty"`
	URL   string      `json:"url,omitempty"`
	Image string      `json:"image,omitempty"`
	File  string      `json:"file,omitempty"`
}

// Content returns the single populated content field
func (p Payload) Content() string {
	switch p.Type {
	case PayloadText:
		return p.Text
	case PayloadURL:
		return p.URL
	case PayloadImage:
		return p.Image
	case PayloadFile:
		return p.File
	}
	return ""
}

// Media decodes the embedded media for image and file payloads.
// Text and url payloads carry no media and return nil.
func (p Payload) Media() (*datauri.DataURI, error) {
	switch p.Type {
	case PayloadImage:
		return datauri.Parse(p.Image)
	case PayloadFile:
		return datauri.Parse(p.File)
	}
	return nil, nil
}

// Validate checks the one-field-per-type invariant
func (p Payload) Validate() error {
	set := 0
	for _, v := range []string{p.Text, p.URL, p.Image, p.File} {
		if v != "" {
			set++
		}
	}
	switch p.Type {
	case PayloadText, PayloadURL, PayloadImage, PayloadFile:
	default:
		return &InvalidInputError{Field: "type", Reason: "unknown payload type " + string(p.Type)}
	}
	if set != 1 || p.Content() == "" {
		return &InvalidInputError{Field: string(p.Type), Reason: "payload must carry exactly one content field matching its type"}
	}
	return nil
}
