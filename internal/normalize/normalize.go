// Package normalize turns a user submission into the payload sent to the
// narrative service, deciding whether a URL is a direct image link.
package normalize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// ImageFetcher retrieves a URL as an image data URI; *fetch.Fetcher satisfies it
type ImageFetcher interface {
	FetchImageAsDataURI(ctx context.Context, url string) (string, error)
}

// URLKind is the outcome of classifying a URL submission
type URLKind int

const (
	PlainURL URLKind = iota
	ImageURL
)

func (k URLKind) String() string {
	if k == ImageURL {
		return "image"
	}
	return "url"
}

// Classification holds the decision and, for images, the fetched data URI
type Classification struct {
	Kind    URLKind
	DataURI string
}

// Discriminator normalizes submissions
type Discriminator struct {
	images ImageFetcher
	logger *zap.Logger
}

// NewDiscriminator creates a discriminator. A nil fetcher treats every URL
// as a plain link.
func NewDiscriminator(images ImageFetcher, logger *zap.Logger) *Discriminator {
	return &Discriminator{images: images, logger: logging.OrNop(logger).Named("normalize")}
}

// ClassifyURL decides between a direct image and a plain link. Any fetch
// failure means a plain link; the cause is logged and never surfaced.
func (d *Discriminator) ClassifyURL(ctx context.Context, url string) Classification {
	c := Classification{Kind: PlainURL}
	if d.images != nil {
		uri, err := d.images.FetchImageAsDataURI(ctx, url)
		if err == nil {
			c = Classification{Kind: ImageURL, DataURI: uri}
		} else {
			d.logger.Debug("url is not a fetchable image", zap.String("url", url), zap.Error(err))
		}
	}
	metrics.ObserveURLClassification(c.Kind.String())
	return c
}

// Normalize builds the payload for s. Only a malformed submission is an
// error; URL classification failures fall back to a url payload.
func (d *Discriminator) Normalize(ctx context.Context, s model.Submission) (model.Payload, error) {
	if err := s.Validate(); err != nil {
		return model.Payload{}, err
	}

	switch s.Kind() {
	case model.SubmissionText:
		text, _ := s.Text()
		return model.Payload{Type: model.PayloadText, Text: text}, nil
	case model.SubmissionURL:
		url, _ := s.URL()
		if c := d.ClassifyURL(ctx, url); c.Kind == ImageURL {
			return model.Payload{Type: model.PayloadImage, Image: c.DataURI}, nil
		}
		return model.Payload{Type: model.PayloadURL, URL: url}, nil
	case model.SubmissionFile:
		file, _ := s.File()
		return model.Payload{Type: model.PayloadFile, File: file}, nil
	default:
		return model.Payload{}, &model.InvalidInputError{Field: "type", Reason: fmt.Sprintf("unknown submission type %q", s.Kind())}
	}
}
