package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownLanguage is returned for languages the judge has no id for.
var ErrUnknownLanguage = errors.New("unknown submission language")

// languageIDs maps accepted language names onto the judge's numeric ids.
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"go":         60,
	"java":       62,
	"javascript": 63,
	"python":     71,
	"rust":       73,
}

// SupportedLanguage reports whether submissions in the language are judged.
func SupportedLanguage(language string) bool {
	_, ok := languageIDs[language]
	return ok
}

// Config holds the judge endpoint settings.
type Config struct {
	BaseURL      string
	AuthToken    string
	PollInterval time.Duration // default 500ms
	Timeout      time.Duration // default 30s
}

// Client talks to the external code-execution service. From the core's
// perspective the whole exchange reduces to one boolean verdict; the round
// trip can be long and must never run under a match lock.
type Client struct {
	baseURL      string
	authToken    string
	pollInterval time.Duration
	timeout      time.Duration
	http         *http.Client
	logger       zerolog.Logger
}

// NewClient creates a judge client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		authToken:    cfg.AuthToken,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		http:         &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

type submitRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
}

type submitResponse struct {
	Token string `json:"token"`
}

type resultResponse struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Judge status ids: 1 in queue, 2 processing, 3 accepted, >3 rejected.
const (
	statusProcessing = 2
	statusAccepted   = 3
)

// Verdict submits the source to the judge and reduces the judge's final
// status to correct/incorrect (accepted or not). The request carries only the
// source and the language id; no problem id, test input or expected output is
// sent. Blocks until the judge finishes or the configured timeout elapses.
func (c *Client) Verdict(ctx context.Context, source, language string) (bool, error) {
	languageID, ok := languageIDs[language]
	if !ok {
		return false, ErrUnknownLanguage
	}

	token, err := c.submit(ctx, source, languageID)
	if err != nil {
		return false, err
	}

	deadline := time.Now().Add(c.timeout)
	for {
		result, err := c.result(ctx, token)
		if err != nil {
			return false, err
		}
		if result.Status.ID > statusProcessing {
			correct := result.Status.ID == statusAccepted
			c.logger.Info().
				Str("token", token).
				Bool("correct", correct).
				Str("judge_status", result.Status.Description).
				Msg("verdict received")
			return correct, nil
		}
		if time.Now().After(deadline) {
			return false, fmt.Errorf("judge verdict timed out")
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) submit(ctx context.Context, source string, languageID int) (string, error) {
	body, err := json.Marshal(submitRequest{SourceCode: source, LanguageID: languageID})
	if err != nil {
		return "", fmt.Errorf("encode judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submissions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit to judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode judge response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge returned empty token")
	}
	return out.Token, nil
}

func (c *Client) result(ctx context.Context, token string) (*resultResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/submissions/"+token, nil)
	if err != nil {
		return nil, fmt.Errorf("build judge poll: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll judge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var out resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode judge poll: %w", err)
	}
	return &out, nil
}
