package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

func sampleReport() Report {
	return Report{
		Input: "the pyramids",
		Result: model.AnalysisResult{Data: &model.NarrativeResult{
			Title: "The Menacing <Pyramids>",
			Steps: []model.NarrativeStep{
				{Explanation: "The pyramids are in Egypt.", ImagePrompt: "Pyramids [menacing]"},
				{Explanation: "DIO waits in Cairo.", ImagePrompt: "DIO in Cairo"},
			},
			BizarrenessRating:  3,
			SupportingEvidence: []string{"https://a.test/ok", "https://a.test/dead", "a quote"},
			Links: []model.LinkStatus{
				{URL: "https://a.test/ok", Reachable: true},
				{URL: "https://a.test/dead", Reachable: false, StatusCode: 404},
			},
		}},
		Images: model.IllustrationBatch{"data:image/png;base64,AA==", model.PlaceholderImage},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleReport())

	assert.True(t, strings.HasPrefix(out, "# The Menacing <Pyramids>\n"))
	assert.Contains(t, out, "★★★☆☆ (3/5)")
	assert.Contains(t, out, "### Step 1\n\nThe pyramids are in Egypt.")
	assert.Contains(t, out, "![Pyramids (menacing)](data:image/png;base64,AA==)")
	assert.Contains(t, out, "![DIO in Cairo]("+model.PlaceholderImage+")")
	assert.Contains(t, out, "- https://a.test/dead (unreachable)")
	assert.Contains(t, out, "- https://a.test/ok\n")
}

func TestMarkdown_WithoutImagesShowsPrompts(t *testing.T) {
	r := sampleReport()
	r.Images = nil
	assert.Contains(t, Markdown(r), "_Image prompt:_ DIO in Cairo")
}

func TestMarkdown_Failure(t *testing.T) {
	r := Report{Input: "x", Result: model.NewAnalysisFailure(assert.AnError)}
	out := Markdown(r)
	assert.Contains(t, out, "# Analysis failed")
	assert.Contains(t, out, model.AnalysisFailurePrefix)
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "<title>The Menacing &lt;Pyramids&gt;</title>")
	assert.Contains(t, out, "<h3>Step 1</h3>")
	assert.Contains(t, out, `<img src="data:image/png;base64,AA=="`)
	assert.Contains(t, out, "<li>")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleReport()))

	var decoded struct {
		Input  string `json:"input"`
		Result struct {
			Data struct {
				Title  string `json:"connectionTitle"`
				Rating int    `json:"bizarreOMeter"`
			} `json:"data"`
		} `json:"result"`
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "the pyramids", decoded.Input)
	assert.Equal(t, 3, decoded.Result.Data.Rating)
	assert.Len(t, decoded.Images, 2)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report.json", "report.md", "report.html"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, sampleReport()))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data, name)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "markdown": FormatMarkdown, "md": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
