package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/alkime/captions/internal/content"
	"github.com/gin-gonic/gin"
)

const (
	fieldAudioFile = "audio_file"
	fieldAudioBlob = "audio_blob"

	// blobFilename names browser uploads that arrive without a usable extension.
	blobFilename = "recording.wav"

	errTooLarge = "File too large"
)

type generateCaptionRequest struct {
	Transcription *string `json:"transcription"`
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
}

// handleTranscribe transcribes an uploaded audio file.
func (s *Server) handleTranscribe(c *gin.Context) {
	header, err := c.FormFile(fieldAudioFile)
	if err != nil {
		s.formFileError(c, err, "No audio file provided")
		return
	}

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	if !content.IsAllowedAudioFile(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "File type not allowed. Allowed types: " + strings.Join(content.AllowedAudioExtensions, ", "),
		})
		return
	}

	s.transcribe(c, header, filepath.Base(header.Filename))
}

// handleUploadAudio transcribes an audio blob recorded by a client.
func (s *Server) handleUploadAudio(c *gin.Context) {
	header, err := c.FormFile(fieldAudioBlob)
	if err != nil {
		s.formFileError(c, err, "No audio blob provided")
		return
	}

	filename := filepath.Base(header.Filename)
	if !content.IsAllowedAudioFile(filename) {
		filename = blobFilename
	}

	s.transcribe(c, header, filename)
}

func (s *Server) transcribe(c *gin.Context, header *multipart.FileHeader, filename string) {
	file, err := header.Open()
	if err != nil {
		s.internalError(c, "transcribe", fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	text, err := s.transcriber.TranscribeFile(c.Request.Context(), file, filename)
	if err != nil {
		s.internalError(c, "transcribe", err)
		return
	}

	s.logger.Info("Transcribed audio", "filename", filename, "bytes", header.Size, "chars", len(text))
	c.JSON(http.StatusOK, transcriptionResponse{Transcription: text})
}

// handleGenerateCaption turns a transcription into a Reuters caption.
func (s *Server) handleGenerateCaption(c *gin.Context) {
	var req generateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Transcription == nil || strings.TrimSpace(*req.Transcription) == "" {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No transcription provided"})
		return
	}

	caption, err := s.captioner.GenerateCaption(c.Request.Context(), *req.Transcription)
	if err != nil {
		s.internalError(c, "generate_caption", err)
		return
	}

	s.logger.Info("Generated caption", "missing", len(caption.MissingInformation))
	c.JSON(http.StatusOK, caption)
}

func (s *Server) formFileError(c *gin.Context, err error, missing string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errTooLarge})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": missing})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error("Request failed", "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
