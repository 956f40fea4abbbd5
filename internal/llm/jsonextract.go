package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a reply contains no JSON object
var ErrNoJSON = errors.New("no JSON object in model reply")

// ExtractJSON returns the first JSON object in text. Models often wrap the
// object in a ```json fence or surround it with prose.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		fenced := s[i+3:]
		if nl := strings.IndexByte(fenced, '\n'); nl >= 0 {
			fenced = fenced[nl+1:]
		}
		if end := strings.Index(fenced, "```"); end >= 0 {
			fenced = fenced[:end]
		}
		if obj, err := firstObject(fenced); err == nil {
			return obj, nil
		}
	}
	return firstObject(s)
}

func firstObject(s string) (json.RawMessage, error) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(s[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return raw, nil
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, ErrNoJSON
}

// DecodeJSON extracts the first JSON object from text into v. Unknown
// fields are ignored; type mismatches are errors.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
