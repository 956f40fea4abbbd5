// Package render writes analysis reports as JSON, Markdown or HTML.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// Format selects an output encoding
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts json, md/markdown and html
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown output format %q (supported: json, md, html)", s)
}

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm":
		return FormatHTML
	}
	return FormatJSON
}

// Report is one rendered analysis: the input, the envelope and any frames
type Report struct {
	Input  string                  `json:"input"`
	Result model.AnalysisResult    `json:"result"`
	Images model.IllustrationBatch `json:"images,omitempty"`
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Write encodes r to w in format f
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatHTML:
		return HTML(w, r)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// WriteFile renders r to path, choosing the format from its extension
func WriteFile(path string, r Report) error {
	var buf bytes.Buffer
	if err := Write(&buf, FormatFromPath(path), r); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Markdown renders the report as a Markdown document
func Markdown(r Report) string {
	var b strings.Builder
	if r.Result.Failed() {
		b.WriteString("# Analysis failed\n\n")
		fmt.Fprintf(&b, "**Input:** %s\n\n", r.Input)
		fmt.Fprintf(&b, "> %s\n", r.Result.Error)
		return b.String()
	}

	res := r.Result.Data
	fmt.Fprintf(&b, "# %s\n\n", res.Title)
	fmt.Fprintf(&b, "**Input:** %s\n\n", r.Input)
	fmt.Fprintf(&b, "**Bizarre-O-Meter:** %s (%d/5)\n\n", meter(res.BizarrenessRating), res.BizarrenessRating)

	b.WriteString("## Connection\n\n")
	for i, step := range res.Steps {
		fmt.Fprintf(&b, "### Step %d\n\n%s\n\n", i+1, step.Explanation)
		if i < len(r.Images) {
			fmt.Fprintf(&b, "![%s](%s)\n\n", altText(step.ImagePrompt), r.Images[i])
		} else {
			fmt.Fprintf(&b, "_Image prompt:_ %s\n\n", step.ImagePrompt)
		}
	}

	if len(res.SupportingEvidence) > 0 {
		b.WriteString("## Supporting evidence\n\n")
		status := make(map[string]model.LinkStatus, len(res.Links))
		for _, l := range res.Links {
			status[l.URL] = l
		}
		for _, e := range res.SupportingEvidence {
			line := "- " + e
			if l, ok := status[e]; ok && !l.Reachable {
				line += " (unreachable)"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the Markdown form through goldmark inside a minimal page
func HTML(w io.Writer, r Report) error {
	title := "Analysis failed"
	if !r.Result.Failed() {
		title = r.Result.Data.Title
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		escapeTitle(title), body.String())
	return err
}

func meter(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func altText(prompt string) string {
	r := strings.NewReplacer("[", "(", "]", ")", "\n", " ")
	return r.Replace(prompt)
}

func escapeTitle(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
