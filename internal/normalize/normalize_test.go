package normalize

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/fetch"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

type fakeFetcher struct {
	uri   string
	err   error
	calls int
}

func (f *fakeFetcher) FetchImageAsDataURI(context.Context, string) (string, error) {
	f.calls++
	return f.uri, f.err
}

func TestNormalize_TextIsVerbatim(t *testing.T) {
	f := &fakeFetcher{}
	d := NewDiscriminator(f, nil)

	got, err := d.Normalize(context.Background(), model.NewTextSubmission("  the pyramids of Giza "))
	require.NoError(t, err)
	assert.Equal(t, model.Payload{Type: model.PayloadText, Text: "  the pyramids of Giza "}, got)
	assert.Zero(t, f.calls)
}

func TestNormalize_URLFallsBackOnAnyFailure(t *testing.T) {
	for _, cause := range []error{
		&model.NotAnImageError{URL: "u", ContentType: "text/html"},
		&model.FetchError{URL: "u", StatusCode: 404},
		context.DeadlineExceeded,
	} {
		d := NewDiscriminator(&fakeFetcher{err: cause}, nil)
		got, err := d.Normalize(context.Background(), model.NewURLSubmission("https://en.wikipedia.org/wiki/Egypt"))
		require.NoError(t, err)
		assert.Equal(t, model.Payload{Type: model.PayloadURL, URL: "https://en.wikipedia.org/wiki/Egypt"}, got)
	}
}

func TestNormalize_ImageURL(t *testing.T) {
	d := NewDiscriminator(&fakeFetcher{uri: "data:image/png;base64,iVBORw0KGgo="}, nil)

	got, err := d.Normalize(context.Background(), model.NewURLSubmission("https://x.test/a.png"))
	require.NoError(t, err)
	assert.Equal(t, model.PayloadImage, got.Type)
	assert.Empty(t, got.URL)
	assert.True(t, datauri.Valid(got.Image))
	require.NoError(t, got.Validate())
}

func TestNormalize_File(t *testing.T) {
	s, err := model.NewFileSubmission("data:application/pdf;base64,JVBERi0=")
	require.NoError(t, err)

	got, err := NewDiscriminator(nil, nil).Normalize(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, model.PayloadFile, got.Type)

	media, err := got.Media()
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", media.BaseMIMEType())
}

func TestNormalize_InvalidSubmission(t *testing.T) {
	d := NewDiscriminator(&fakeFetcher{}, nil)

	var zero model.Submission
	_, err := d.Normalize(context.Background(), zero)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	_, err = d.Normalize(context.Background(), model.NewTextSubmission(""))
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestClassifyURL_NilFetcher(t *testing.T) {
	c := NewDiscriminator(nil, nil).ClassifyURL(context.Background(), "https://x.test/a.png")
	assert.Equal(t, PlainURL, c.Kind)
	assert.Equal(t, "url", c.Kind.String())
}

// End to end with the real fetcher: a page stays a url, a png becomes an image.
func TestNormalize_WithFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := NewDiscriminator(fetch.NewFetcher(server.Client(), fetch.Options{}), nil)

	page, err := d.Normalize(context.Background(), model.NewURLSubmission(server.URL+"/page"))
	require.NoError(t, err)
	assert.Equal(t, model.PayloadURL, page.Type)

	img, err := d.Normalize(context.Background(), model.NewURLSubmission(server.URL+"/cat.png"))
	require.NoError(t, err)
	assert.Equal(t, model.PayloadImage, img.Type)
	assert.Equal(t, "data:image/png;base64,iVBORw==", img.Image)
}
