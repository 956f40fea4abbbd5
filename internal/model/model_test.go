package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngURI = "data:image/png;base64,iVBORw0KGgo="

func TestSubmission_Variants(t *testing.T) {
	text := NewTextSubmission("the pyramids")
	v, ok := text.Text()
	assert.True(t, ok)
	assert.Equal(t, "the pyramids", v)
	_, ok = text.URL()
	assert.False(t, ok)

	u := NewURLSubmission("  https://example.com/a  ")
	v, ok = u.URL()
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/a", v)

	f, err := NewFileSubmission(pngURI)
	require.NoError(t, err)
	assert.Equal(t, SubmissionFile, f.Kind())
	assert.Equal(t, "file (image/png, 8 bytes)", f.Summary())

	_, err = NewFileSubmission("not a data uri")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSubmission_Validate(t *testing.T) {
	assert.NoError(t, NewTextSubmission("x").Validate())
	assert.Error(t, NewTextSubmission("   ").Validate())
	assert.Error(t, NewURLSubmission("").Validate())

	var zero Submission
	err := zero.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSubmission_JSON(t *testing.T) {
	in := NewURLSubmission("https://youtu.be/dQw4w9WgXcQ")
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"url","url":"https://youtu.be/dQw4w9WgXcQ"}`, string(data))

	var out Submission
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestSubmission_UnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown type", `{"type":"audio","audio":"x"}`},
		{"missing type", `{"text":"hello"}`},
		{"missing field", `{"type":"text","url":"https://example.com"}`},
		{"bad file", `{"type":"file","file":"data:image/png;base64,"}`},
		{"not an object", `"text"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Submission
			err := json.Unmarshal([]byte(tt.in), &s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestPayload_Media(t *testing.T) {
	p := Payload{Type: PayloadImage, Image: pngURI}
	require.NoError(t, p.Validate())
	m, err := p.Media()
	require.NoError(t, err)
	assert.Equal(t, "image/png", m.MIMEType)

	text := Payload{Type: PayloadText, Text: "hello"}
	m, err = text.Media()
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestPayload_ValidateExactlyOne(t *testing.T) {
	assert.Error(t, Payload{Type: PayloadImage, Image: pngURI, URL: "https://x"}.Validate())
	assert.Error(t, Payload{Type: PayloadURL, Text: "x"}.Validate())
	assert.Error(t, Payload{Type: "video", URL: "https://x"}.Validate())
	assert.NoError(t, Payload{Type: PayloadURL, URL: "https://x"}.Validate())
}

func TestSubmission_SummaryTruncatesOnRunes(t *testing.T) {
	s := NewTextSubmission(strings.Repeat("a", 76) + "ジョジョの奇妙な冒険")
	got := s.Summary()
	assert.True(t, utf8.ValidString(got), "%q", got)
	assert.Equal(t, strings.Repeat("a", 76)+"ジ...", got)

	short := NewTextSubmission("ゴゴゴゴ")
	assert.Equal(t, "ゴゴゴゴ", short.Summary())
}

func validResult() *NarrativeResult {
	return &NarrativeResult{
		Title: "Menacing Pyramids",
		Steps: []NarrativeStep{
			{Explanation: "Part 3 ends in Egypt.", ImagePrompt: "Jotaro before a pyramid"},
		},
		BizarrenessRating: 3,
	}
}

func TestNarrativeResult_Validate(t *testing.T) {
	assert.NoError(t, validResult().Validate())

	for _, rating := range []int{0, 6, -1} {
		r := validResult()
		r.BizarrenessRating = rating
		err := r.Validate()
		require.Error(t, err, "rating %d", rating)
		assert.Contains(t, err.Error(), "BizarrenessRating")
	}

	r := validResult()
	r.Steps = nil
	assert.Error(t, r.Validate())

	r = validResult()
	r.Steps[0].ImagePrompt = ""
	assert.Error(t, r.Validate())

	r = validResult()
	r.Title = ""
	assert.Error(t, r.Validate())
}

func TestNarrativeResult_WireShape(t *testing.T) {
	var r NarrativeResult
	err := json.Unmarshal([]byte(`{
		"connectionTitle": "T",
		"connectionSteps": [{"explanation":"a","imagePrompt":"p1"},{"explanation":"b","imagePrompt":"p2"}],
		"bizarreOMeter": 5
	}`), &r)
	require.NoError(t, err)
	require.NoError(t, r.Validate())
	if diff := cmp.Diff([]string{"p1", "p2"}, r.ImagePrompts()); diff != "" {
		t.Errorf("ImagePrompts mismatch (-want +got):\n%s", diff)
	}
}

func TestNarrativeResult_WholeNumberRating(t *testing.T) {
	decode := func(rating string) (NarrativeResult, error) {
		var r NarrativeResult
		err := json.Unmarshal([]byte(`{"connectionTitle":"T","connectionSteps":[{"explanation":"a","imagePrompt":"p"}],"bizarreOMeter":`+rating+`}`), &r)
		return r, err
	}

	r, err := decode("3.0")
	require.NoError(t, err)
	assert.Equal(t, 3, r.BizarrenessRating)
	assert.Equal(t, "T", r.Title)
	require.Len(t, r.Steps, 1)

	_, err = decode("2.5")
	assert.Error(t, err)

	r, err = decode("9")
	require.NoError(t, err)
	assert.Error(t, r.Validate())

	var rating BizarrenessRating
	require.NoError(t, json.Unmarshal([]byte(`{"bizarrenessRating":4.0,"ratingExplanation":"ORA"}`), &rating))
	assert.Equal(t, 4, rating.Rating)
	assert.Equal(t, "ORA", rating.Explanation)
}

func TestBizarrenessRating_Validate(t *testing.T) {
	assert.NoError(t, (&BizarrenessRating{Rating: 1, Explanation: "mild"}).Validate())
	assert.Error(t, (&BizarrenessRating{Rating: 6, Explanation: "too much"}).Validate())
	assert.Error(t, (&BizarrenessRating{Rating: 3}).Validate())
}

func TestAnalysisFailure(t *testing.T) {
	res := NewAnalysisFailure(errors.New("quota exceeded"))
	assert.True(t, res.Failed())
	assert.Equal(t, "An unexpected error occurred during analysis. WRYYYYY! Details: quota exceeded", res.Error)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null,"error":"An unexpected error occurred during analysis. WRYYYYY! Details: quota exceeded"}`, string(out))
}

func TestAnalysisResult_SuccessHasNullError(t *testing.T) {
	out, err := json.Marshal(AnalysisResult{Data: validResult()})
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &wire))
	require.Contains(t, wire, "error")
	assert.Equal(t, "null", string(wire["error"]))
	assert.Contains(t, wire, "data")

	var back AnalysisResult
	require.NoError(t, json.Unmarshal(out, &back))
	assert.False(t, back.Failed())
	assert.Empty(t, back.Error)
	assert.Equal(t, 3, back.Data.BizarrenessRating)
}

func TestIllustrationBatch_Placeholders(t *testing.T) {
	b := IllustrationBatch{"data:image/png;base64,AA==", PlaceholderImage, "data:image/png;base64,AA=="}
	assert.Equal(t, 1, b.Placeholders())
}

func TestErrors_Is(t *testing.T) {
	var err error = &FetchError{URL: "https://x", StatusCode: 404}
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Equal(t, "fetch https://x: unexpected status: 404", err.Error())

	err = &TranscriptUnavailableError{URL: "u", Err: &FetchError{URL: "u", StatusCode: 500}}
	assert.True(t, errors.Is(err, ErrTranscriptUnavailable))
	assert.True(t, errors.Is(err, ErrFetch))

	err = &GenerationServiceError{Op: "analyze", Err: ErrNoImage}
	assert.True(t, errors.Is(err, ErrGenerationService))
	assert.True(t, errors.Is(err, ErrNoImage))
	assert.False(t, errors.Is(err, ErrNotAnImage))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Fetch.Retry.Attempts)
	assert.Equal(t, PlaceholderImage, cfg.Image.Placeholder)
	assert.Equal(t, DefaultStyleSuffix, cfg.Image.StyleSuffix)
	assert.Equal(t, 4, cfg.LLM.MaxToolRounds)
	assert.Equal(t, "en", cfg.Transcript.Language)
}
