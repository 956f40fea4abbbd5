// Package datauri parses and builds base64 data URIs of the form
// data:<mime>;base64,<payload>.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

const (
	scheme       = "data:"
	base64Marker = ";base64,"
)

var (
	ErrMissingScheme  = errors.New("data uri must start with data:")
	ErrNotBase64      = errors.New("data uri must use ;base64, encoding")
	ErrMissingMIME    = errors.New("data uri has no mime type")
	ErrEmptyPayload   = errors.New("data uri has an empty payload")
	ErrInvalidPayload = errors.New("data uri payload is not valid base64")
)

// DataURI is a decoded data URI
type DataURI struct {
	MIMEType string
	Data     []byte
}

// Parse decodes s. The mime type is mandatory and the payload must be
// non-empty standard base64.
func Parse(s string) (*DataURI, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, scheme) {
		return nil, ErrMissingScheme
	}
	rest := s[len(scheme):]

	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return nil, ErrNotBase64
	}

	mediaType := strings.TrimSpace(rest[:idx])
	payload := rest[idx+len(base64Marker):]

	if mediaType == "" {
		return nil, ErrMissingMIME
	}
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	return &DataURI{MIMEType: mediaType, Data: data}, nil
}

// Encode builds a data URI from raw bytes and a content type
func Encode(contentType string, data []byte) string {
	return scheme + contentType + base64Marker + base64.StdEncoding.EncodeToString(data)
}

// String re-encodes the data URI
func (d *DataURI) String() string {
	return Encode(d.MIMEType, d.Data)
}

// BaseMIMEType returns the mime type without parameters (e.g. "; charset=utf-8")
func (d *DataURI) BaseMIMEType() string {
	return BaseMIMEType(d.MIMEType)
}

// IsImage reports whether the payload is declared as image/*
func (d *DataURI) IsImage() bool {
	return strings.HasPrefix(d.BaseMIMEType(), "image/")
}

// Base64 returns the payload re-encoded as standard base64
func (d *DataURI) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

// BaseMIMEType strips parameters from a content type header value.
// Unparseable values are returned lowercased and trimmed.
func BaseMIMEType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Valid reports whether s parses as a data URI
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
