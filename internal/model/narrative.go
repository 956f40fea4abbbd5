package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// PlaceholderImage stands in for any slideshow frame that failed to render
const PlaceholderImage = "https://placehold.co/512x512.png"

// AnalysisFailurePrefix starts every user-facing analysis failure message
const AnalysisFailurePrefix = "An unexpected error occurred during analysis. WRYYYYY! Details: "

// NarrativeStep is one link in the connection chain
type NarrativeStep struct {
	Explanation string `json:"explanation" validate:"required"`
	ImagePrompt string `json:"imagePrompt" validate:"required"`
}

// NarrativeResult is the structured output of an analysis
type NarrativeResult struct {
	Title              string          `json:"connectionTitle" validate:"required"`
	Steps              []NarrativeStep `json:"connectionSteps" validate:"required,min=1,dive"`
	BizarrenessRating  int             `json:"bizarreOMeter" validate:"min=1,max=5"`
	SupportingEvidence []string        `json:"supportingEvidence,omitempty"`

	// Links holds evidence link checks when enabled. It never alters the
	// narrative itself.
	Links []LinkStatus `json:"links,omitempty" validate:"-"`
}

// UnmarshalJSON accepts whole-number floats such as 3.0 for the rating
func (r *NarrativeResult) UnmarshalJSON(data []byte) error {
	type plain NarrativeResult
	aux := struct {
		*plain
		Rating json.Number `json:"bizarreOMeter"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n, err := wholeNumber("bizarreOMeter", aux.Rating)
	if err != nil {
		return err
	}
	r.BizarrenessRating = n
	return nil
}

// ImagePrompts returns the step prompts in order
func (r *NarrativeResult) ImagePrompts() []string {
	prompts := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		prompts[i] = s.ImagePrompt
	}
	return prompts
}

// Validate enforces the result schema. Ratings outside [1,5] are rejected.
func (r *NarrativeResult) Validate() error {
	return validateStruct(r)
}

// BizarrenessRating is the output of the standalone rating operation
type BizarrenessRating struct {
	Rating      int    `json:"bizarrenessRating" validate:"min=1,max=5"`
	Explanation string `json:"ratingExplanation" validate:"required"`
}

// UnmarshalJSON accepts whole-number floats such as 3.0 for the rating
func (b *BizarrenessRating) UnmarshalJSON(data []byte) error {
	type plain BizarrenessRating
	aux := struct {
		*plain
		Rating json.Number `json:"bizarrenessRating"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n, err := wholeNumber("bizarrenessRating", aux.Rating)
	if err != nil {
		return err
	}
	b.Rating = n
	return nil
}

// wholeNumber converts a JSON number with no fractional part. A missing
// number decodes to zero and is left to schema validation.
func wholeNumber(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be a whole number, got %s", field, n)
	}
	return int(f), nil
}

// Validate enforces the rating range
func (b *BizarrenessRating) Validate() error {
	return validateStruct(b)
}

// ConnectionTitle is the output of the standalone title operation
type ConnectionTitle struct {
	Title string `json:"title" validate:"required"`
}

// Validate requires a non-empty title
func (t *ConnectionTitle) Validate() error {
	return validateStruct(t)
}

// LinkStatus is the reachability of one supporting evidence link
type LinkStatus struct {
	URL        string `json:"url"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnalysisResult is the failure-tolerant envelope returned to callers.
// Exactly one of Data and Error is set; the unset one encodes as null.
type AnalysisResult struct {
	Data  *NarrativeResult `json:"data"`
	Error string           `json:"error"`
}

// MarshalJSON always writes both keys, with a null error on success
func (a AnalysisResult) MarshalJSON() ([]byte, error) {
	var msg *string
	if a.Error != "" {
		msg = &a.Error
	}
	return json.Marshal(struct {
		Data  *NarrativeResult `json:"data"`
		Error *string          `json:"error"`
	}{a.Data, msg})
}

// Failed reports whether the analysis produced an error message
func (a AnalysisResult) Failed() bool { return a.Data == nil }

// NewAnalysisFailure builds the user-facing failure envelope for err
func NewAnalysisFailure(err error) AnalysisResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return AnalysisResult{Error: AnalysisFailurePrefix + msg}
}

// IllustrationBatch holds one image reference per prompt, index-aligned with
// the prompts. Failed frames hold PlaceholderImage.
type IllustrationBatch []string

// Placeholders counts the frames that failed
func (b IllustrationBatch) Placeholders() int {
	n := 0
	for _, ref := range b {
		if ref == PlaceholderImage {
			n++
		}
	}
	return n
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validateStruct(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
