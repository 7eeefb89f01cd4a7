package dashscope

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pawtraits/server/internal/domain"
	"pawtraits/server/internal/portrait"
)

// Options configures the DashScope image-edit client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client performs HTTP calls to the DashScope image-edit API. The API is
// synchronous, so Submit returns an already-terminal job and the runner
// never polls it.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://dashscope-intl.aliyuncs.com/api/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "qwen-image-edit"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}
}

func (c *Client) Name() string { return "dashscope" }

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

type generationRequest struct {
	Model      string           `json:"model"`
	Input      generationInput  `json:"input"`
	Parameters generationParams `json:"parameters"`
}

type generationInput struct {
	Messages []generationMessage `json:"messages"`
}

type generationMessage struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

type imageContent struct {
	ImageBytes string `json:"image_bytes"`
	MIMEType   string `json:"mime_type"`
}

type generationParams struct {
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Size           string `json:"size,omitempty"`
	Watermark      bool   `json:"watermark"`
}

type generationResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content []map[string]string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Submit invokes the edit API once. The response already carries the output
// reference, so the returned job is terminal.
func (c *Client) Submit(ctx context.Context, req portrait.SubmitRequest) (*domain.GenerationJob, error) {
	payload := generationRequest{
		Model: c.model,
		Input: generationInput{
			Messages: []generationMessage{{
				Role: "user",
				Content: []any{
					map[string]any{"image": imageContent{
						ImageBytes: base64.StdEncoding.EncodeToString(req.ImageBytes),
						MIMEType:   req.MimeType,
					}},
					map[string]string{"text": req.Prompts.Positive},
				},
			}},
		},
		Parameters: generationParams{
			NegativePrompt: req.Prompts.Negative,
		},
	}
	if req.Tuning.Width > 0 && req.Tuning.Height > 0 {
		payload.Parameters.Size = fmt.Sprintf("%d*%d", req.Tuning.Width, req.Tuning.Height)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dashscope: encode request: %w", err)
	}
	endpoint := c.baseURL + "/services/aigc/multimodal-generation/generation"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dashscope: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dashscope: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dashscope: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var decoded generationResponse
		message := strings.TrimSpace(string(raw))
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
			message = fmt.Sprintf("%s (%s)", decoded.Message, decoded.Code)
		}
		return nil, &domain.UpstreamSubmitError{StatusCode: resp.StatusCode, Message: message}
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("dashscope: decode response: %w", err)
	}
	if decoded.Code != "" {
		return nil, &domain.UpstreamJobFailedError{
			Status:  domain.JobStatusFailed,
			Message: fmt.Sprintf("%s (%s)", decoded.Message, decoded.Code),
		}
	}
	return &domain.GenerationJob{
		ID:        decoded.RequestID,
		Status:    domain.JobStatusSucceeded,
		OutputURL: firstImageURL(decoded),
	}, nil
}

// Poll is never reached for this backend: Submit always returns a terminal
// job.
func (c *Client) Poll(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	return nil, errors.New("dashscope: polling not supported")
}

// FetchOutput downloads the generated image once.
func (c *Client) FetchOutput(ctx context.Context, job *domain.GenerationJob) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(job.OutputURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("dashscope: invalid image url: %s", job.OutputURL)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dashscope: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dashscope: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dashscope: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dashscope: read image: %w", err)
	}
	return data, nil
}

var _ portrait.Backend = (*Client)(nil)

func firstImageURL(resp generationResponse) string {
	for _, choice := range resp.Output.Choices {
		for _, content := range choice.Message.Content {
			if url := strings.TrimSpace(content["image"]); url != "" {
				return url
			}
		}
	}
	return ""
}
