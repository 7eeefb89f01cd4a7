package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configures the vision describer. The API is OpenAI-compatible chat
// completions with image input (xAI Grok Vision by default).
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client analyses an uploaded photo and returns a painter-ready description
// of the subject(s).
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.x.ai/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "grok-2-vision-1212"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

const analysisInstruction = "Analyse this photo of my %s and describe the subject(s) in vivid detail for a Renaissance portrait painter. Include: species or type (if animal), age estimate, hair/fur colour, eye colour, skin tone, distinguishing features, expression, and any notable physical characteristics. Be specific and descriptive. Maximum 120 words. No preamble."

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// DescribeSubject runs one vision call over the uploaded photo. The label is
// the caller's display name for the category ("golden retriever", "family").
func (c *Client) DescribeSubject(ctx context.Context, image []byte, mimeType, label string) (string, error) {
	if !c.HasCredentials() {
		return "", errors.New("vision: api key is required")
	}
	if mimeType = strings.TrimSpace(mimeType); mimeType == "" {
		mimeType = "image/jpeg"
	}
	payload := chatRequest{
		Model:     c.model,
		MaxTokens: 300,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{
					Type: "image_url",
					ImageURL: &imageURL{
						URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image)),
						Detail: "high",
					},
				},
				{
					Type: "text",
					Text: fmt.Sprintf(analysisInstruction, strings.ToLower(strings.TrimSpace(label))),
				},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vision: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vision: read response: %w", err)
	}
	var decoded chatResponse
	if resp.StatusCode >= 300 {
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error.Message != "" {
			return "", fmt.Errorf("vision: %s (http %d)", decoded.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("vision: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("vision: empty response")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
