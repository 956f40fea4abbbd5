package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

type slideshowRequest struct {
	Prompts []string `json:"prompts" binding:"required,max=32"`
}

type slideshowResponse struct {
	Images       model.IllustrationBatch `json:"images"`
	Placeholders int                     `json:"placeholders"`
}

type titleRequest struct {
	Input             string `json:"input" binding:"required"`
	ConnectionSummary string `json:"connectionSummary" binding:"required"`
}

type rateRequest struct {
	ConnectionExplanation string `json:"connectionExplanation" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// analyze always answers with the {data, error} envelope. A body that does
// not decode into a submission is a 400; analysis failures are a 200 whose
// error field is set.
func (s *Server) analyze(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		_ = c.Error(err)
		c.JSON(bindStatus(err), model.NewAnalysisFailure(err))
		return
	}
	c.JSON(http.StatusOK, s.analyzer.Submit(c.Request.Context(), sub))
}

func (s *Server) slideshow(c *gin.Context) {
	var req slideshowRequest
	if !s.bind(c, &req) {
		return
	}
	images := s.illustrator.GenerateSlideshowImages(c.Request.Context(), req.Prompts)
	c.JSON(http.StatusOK, slideshowResponse{Images: images, Placeholders: images.Placeholders()})
}

func (s *Server) title(c *gin.Context) {
	var req titleRequest
	if !s.bind(c, &req) {
		return
	}
	title, err := s.analyzer.GenerateTitle(c.Request.Context(), req.Input, req.ConnectionSummary)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

func (s *Server) rate(c *gin.Context) {
	var req rateRequest
	if !s.bind(c, &req) {
		return
	}
	rating, err := s.analyzer.RateBizarreness(c.Request.Context(), req.ConnectionExplanation)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (s *Server) mascot(c *gin.Context) {
	uri, err := s.illustrator.GenerateMascot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": uri})
}

func (s *Server) transcript(c *gin.Context) {
	videoURL := c.Query("url")
	if videoURL == "" {
		s.fail(c, &model.InvalidInputError{Field: "url", Reason: "query parameter is required"})
		return
	}
	text, err := s.transcripts.GetYouTubeTranscript(c.Request.Context(), videoURL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": text})
}

func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(err)
		c.JSON(bindStatus(err), errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), errorResponse{Error: err.Error()})
}

func bindStatus(err error) int {
	if isTooLarge(err) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func statusFor(err error) int {
	switch {
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTranscriptUnavailable):
		return http.StatusNotFound
	case errors.Is(err, model.ErrGenerationService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
