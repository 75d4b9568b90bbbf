package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fifthdraft/fifthdraft-backend/config"
	"github.com/fifthdraft/fifthdraft-backend/logger"
	"github.com/fifthdraft/fifthdraft-backend/models"
)

// TranscriptionResult is what the speech vendor gives back for one blob.
type TranscriptionResult struct {
	Text     string           `json:"text"`
	Segments []models.Segment `json:"segments"`
	Language string           `json:"language"`
}

// Transcriber is the speech-to-text surface the pipeline depends on.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (*TranscriptionResult, error)
}

// SpeechClient talks to a whisper-compatible verbose-json endpoint.
// A failure here, after retries, is fatal to the whole pipeline run.
type SpeechClient struct {
	cfg        config.AppConfig
	httpClient *http.Client
}

func NewSpeechClient(cfg config.AppConfig) *SpeechClient {
	return &SpeechClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "audio/mpeg":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/mp4", "audio/x-m4a":
		return "m4a"
	case "audio/ogg":
		return "ogg"
	case "audio/flac":
		return "flac"
	case "audio/aac":
		return "aac"
	default:
		return "webm"
	}
}

func (s *SpeechClient) Transcribe(ctx context.Context, audio []byte, contentType string) (*TranscriptionResult, error) {
	log := logger.New().WithField("service", "transcription")

	if s.cfg.STTAPIURL == "" {
		return nil, fmt.Errorf("speech vendor not configured")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", "audio."+extensionForContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio body: %w", err)
	}
	if err := writer.WriteField("model", s.cfg.STTModel); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write response_format field: %w", err)
	}
	writer.Close()
	payload := body.Bytes()

	var result TranscriptionResult

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.STTAPIURL, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.cfg.STTAPIKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			log.WithField("status", resp.StatusCode).Warn("speech vendor error, retrying")
			return fmt.Errorf("speech vendor %d: %s", resp.StatusCode, string(respBody))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("speech vendor %d: %s", resp.StatusCode, string(respBody)))
		}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return backoff.Permanent(fmt.Errorf("unexpected speech vendor response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 90 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	log.WithField("chars", len(result.Text)).Info("transcription done")
	return &result, nil
}
