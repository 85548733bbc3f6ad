package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/frahmantamala/calendar-sharing/internal"
)

// Translator converts text between languages. Implementations must be
// safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Client calls an external machine-translation HTTP API.
type Client struct {
	apiURL  string
	apiKey  string
	timeout time.Duration
	enabled bool
	logger  *slog.Logger
}

func NewClient(cfg internal.TranslationConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiURL:  cfg.APIURL,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// Translate returns the text unchanged when translation is disabled or
// when source and target languages already match.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" || sourceLang == targetLang {
		return text, nil
	}

	if !c.enabled {
		c.logger.Debug("translation disabled, returning original text",
			"source_lang", sourceLang,
			"target_lang", targetLang)
		return text, nil
	}

	payload := map[string]string{
		"q":      text,
		"source": sourceLang,
		"target": targetLang,
		"format": "text",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", c.apiURL+"/translate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create translation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpClient := &http.Client{Timeout: c.timeout}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}

	c.logger.Debug("text translated",
		"source_lang", sourceLang,
		"target_lang", targetLang,
		"length", len(text))

	return apiResponse.TranslatedText, nil
}
