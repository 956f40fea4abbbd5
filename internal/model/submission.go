package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
)

// SubmissionKind tags the variant held by a Submission
type SubmissionKind string

const (
	SubmissionText SubmissionKind = "text"
	SubmissionURL  SubmissionKind = "url"
	SubmissionFile SubmissionKind = "file"
)

// Submission is the user's single unit of input. Exactly one of text, url or
// file is held, selected by kind. Values are immutable once constructed.
type Submission struct {
	kind  SubmissionKind
	value string
}

// NewTextSubmission wraps free text
func NewTextSubmission(text string) Submission {
	return Submission{kind: SubmissionText, value: text}
}

// NewURLSubmission wraps a URL (web page, video or direct image link)
func NewURLSubmission(url string) Submission {
	return Submission{kind: SubmissionURL, value: strings.TrimSpace(url)}
}

// NewFileSubmission wraps an uploaded file encoded as a base64 data URI
func NewFileSubmission(dataURI string) (Submission, error) {
	if _, err := datauri.Parse(dataURI); err != nil {
		return Submission{}, &InvalidInputError{Field: "file", Reason: err.Error()}
	}
	return Submission{kind: SubmissionFile, value: strings.TrimSpace(dataURI)}, nil
}

// Kind returns the variant tag. The zero Submission has an empty kind.
func (s Submission) Kind() SubmissionKind { return s.kind }

// Text returns the text of a text submission
func (s Submission) Text() (string, bool) {
	return s.value, s.kind == SubmissionText
}

// URL returns the URL of a url submission
func (s Submission) URL() (string, bool) {
	return s.value, s.kind == SubmissionURL
}

// File returns the data URI of a file submission
func (s Submission) File() (string, bool) {
	return s.value, s.kind == SubmissionFile
}

// Validate checks the variant tag and the required field
func (s Submission) Validate() error {
	switch s.kind {
	case SubmissionText:
		if strings.TrimSpace(s.value) == "" {
			return &InvalidInputError{Field: "text", Reason: "must not be empty"}
		}
	case SubmissionURL:
		if s.value == "" {
			return &InvalidInputError{Field: "url", Reason: "must not be empty"}
		}
	case SubmissionFile:
		if _, err := datauri.Parse(s.value); err != nil {
			return &InvalidInputError{Field: "file", Reason: err.Error()}
		}
	case "":
		return &InvalidInputError{Field: "type", Reason: "missing submission type"}
	default:
		return &InvalidInputError{Field: "type", Reason: fmt.Sprintf("unknown submission type %q", s.kind)}
	}
	return nil
}

// Summary is a short human-readable label used in logs and reports
func (s Submission) Summary() string {
	switch s.kind {
	case SubmissionFile:
		if d, err := datauri.Parse(s.value); err == nil {
			return fmt.Sprintf("file (%s, %d bytes)", d.BaseMIMEType(), len(d.Data))
		}
		return "file"
	default:
		v := s.value
		if utf8.RuneCountInString(v) > 80 {
			v = string([]rune(v)[:77]) + "..."
		}
		return v
	}
}

type submissionJSON struct {
	Type SubmissionKind `json:"type"`
	Text *string        `json:"text,omitempty"`
	URL  *string        `json:"url,omitempty"`
	File *string        `json:"file,omitempty"`
}

// MarshalJSON encodes the {"type": ..., "<type>": ...} wire shape
func (s Submission) MarshalJSON() ([]byte, error) {
	out := submissionJSON{Type: s.kind}
	v := s.value
	switch s.kind {
	case SubmissionText:
		out.Text = &v
	case SubmissionURL:
		out.URL = &v
	case SubmissionFile:
		out.File = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire shape and fails fast on unknown variants or
// missing content fields.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var in submissionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return &InvalidInputError{Reason: fmt.Sprintf("malformed submission: %v", err)}
	}

	var field *string
	switch in.Type {
	case SubmissionText:
		field = in.Text
	case SubmissionURL:
		field = in.URL
	case SubmissionFile:
		field = in.File
	case "":
		return &InvalidInputError{Field: "type", Reason: "missing submission type"}
	default:
		return &InvalidInputError{Field: "type", Reason: fmt.Sprintf("unknown submission type %q", in.Type)}
	}
	if field == nil {
		return &InvalidInputError{Field: string(in.Type), Reason: "required field missing"}
	}

	candidate := Submission{kind: in.Type, value: *field}
	if in.Type == SubmissionURL {
		candidate.value = strings.TrimSpace(candidate.value)
	}
	if err := candidate.Validate(); err != nil {
		return err
	}
	*s = candidate
	return nil
}
