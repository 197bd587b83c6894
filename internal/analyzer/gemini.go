package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matchsight/analysis-api/internal/models"
)

// GeminiConfig configures the generateContent-style HTTP client.
type GeminiConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
	Logger          *zap.Logger
}

// GeminiClient calls a Gemini-compatible generateContent endpoint.
type GeminiClient struct {
	cfg    GeminiConfig
	client *http.Client
	logger *zap.SugaredLogger
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.Sugar(),
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the prompt and maps the provider's stop signal onto the
// service's tri-state finish reason.
func (c *GeminiClient) Analyze(ctx context.Context, prompt string) (*Result, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if c.cfg.MaxOutputTokens > 0 || c.cfg.Temperature > 0 {
		reqBody.GenerationConfig = &generationConfig{
			MaxOutputTokens: c.cfg.MaxOutputTokens,
			Temperature:     c.cfg.Temperature,
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read analyze response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnw("Analyzer returned non-OK status",
			"status", resp.StatusCode, "duration", time.Since(start))
		return nil, fmt.Errorf("analyze call failed: status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode analyze response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("analyze call failed: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 {
		return &Result{FinishReason: models.FinishError}, nil
	}

	cand := parsed.Candidates[0]
	var text string
	for _, p := range cand.Content.Parts {
		text += p.Text
	}

	result := &Result{Content: text}
	switch cand.FinishReason {
	case "STOP", "":
		result.FinishReason = models.FinishComplete
	case "MAX_TOKENS":
		result.FinishReason = models.FinishMaxTokens
	default:
		// SAFETY, RECITATION, OTHER: content is unusable
		result.FinishReason = models.FinishError
	}

	c.logger.Debugw("Analyzer call complete",
		"finishReason", result.FinishReason,
		"contentLen", len(result.Content),
		"duration", time.Since(start))

	return result, nil
}
